package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a monotonic ULID stamped with the supplied time.
func New(at time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(at), entropy)
}

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
func CreateULID() string {
	return New(time.Now()).String()
}

// CreateRequestID formats a ULID the way invocation request ids are shown in
// logs: lower case, grouped 8-4-4-10.
func CreateRequestID() string {
	raw := []rune(CreateULID())
	out := make([]rune, 0, len(raw)+3)
	for i, r := range raw {
		if i == 8 || i == 12 || i == 16 {
			out = append(out, '-')
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
