// Package headers holds the two header representations an ALB response can
// carry: one value per name, or an ordered list of values per name.
package headers

import "net/http"

// Well-known header names.
const (
	ContentType = "Content-Type"
	Location    = "Location"
)

// Single maps a header name to exactly one value.
type Single map[string]string

func (s Single) cloneWithExtra(extra int) Single {
	size := len(s) + extra
	if size <= 0 {
		return Single{}
	}

	cloned := make(Single, size)
	for k, v := range s {
		cloned[k] = v
	}
	return cloned
}

// Clone returns a shallow copy of the header map.
func (s Single) Clone() Single {
	return s.cloneWithExtra(0)
}

// With returns a cloned map containing the provided name/value pair.
func (s Single) With(name, value string) Single {
	cloned := s.cloneWithExtra(1)
	cloned[name] = value
	return cloned
}

// WithAll returns a cloned map containing the supplied entries.
func (s Single) WithAll(entries Single) Single {
	cloned := s.cloneWithExtra(len(entries))
	for k, v := range entries {
		cloned[k] = v
	}
	return cloned
}

// Multi converts every entry into a one-element value list.
func (s Single) Multi() Multi {
	multi := make(Multi, len(s))
	for k, v := range s {
		multi[k] = []string{v}
	}
	return multi
}

// Multi maps a header name to an ordered list of values.
type Multi map[string][]string

// Clone returns a deep copy so value slices never alias.
func (m Multi) Clone() Multi {
	cloned := make(Multi, len(m))
	for k, v := range m {
		cloned[k] = append([]string(nil), v...)
	}
	return cloned
}

// Add returns a cloned map with value appended to name.
func (m Multi) Add(name, value string) Multi {
	cloned := m.Clone()
	cloned[name] = append(cloned[name], value)
	return cloned
}

// Single keeps the first value of every entry.
func (m Multi) Single() Single {
	single := make(Single, len(m))
	for k, v := range m {
		if len(v) > 0 {
			single[k] = v[0]
		}
	}
	return single
}

// New constructs a Single map from alternating name/value pairs.
func New(pairs ...string) Single {
	s := make(Single, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		s[pairs[i]] = pairs[i+1]
	}
	return s
}

// ForOptional builds a one-entry map, or an empty one when value is nil.
func ForOptional(name string, value *string) Single {
	if value == nil {
		return Single{}
	}
	return New(name, *value)
}

// FromHTTP copies an http.Header into the multi-value representation using
// canonical names.
func FromHTTP(h http.Header) Multi {
	multi := make(Multi, len(h))
	for k, v := range h {
		multi[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return multi
}
