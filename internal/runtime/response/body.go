package response

import (
	"github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
)

// BodyKind tells an empty body apart from a text one.
type BodyKind uint8

const (
	BodyEmpty BodyKind = iota
	BodyText
)

// Body is the response payload. The zero value is Empty and encodes as "".
type Body struct {
	kind BodyKind
	text string
}

// EmptyBody returns the explicit empty variant.
func EmptyBody() Body {
	return Body{kind: BodyEmpty}
}

// TextBody wraps s. An empty string is still a Text body.
func TextBody(s string) Body {
	return Body{kind: BodyText, text: s}
}

// BodyFrom maps nil to Empty and anything else to Text.
func BodyFrom(s *string) Body {
	if s == nil {
		return EmptyBody()
	}
	return TextBody(*s)
}

func (b Body) Kind() BodyKind {
	return b.kind
}

func (b Body) IsEmpty() bool {
	return b.kind == BodyEmpty
}

// String returns the wire text, "" for Empty.
func (b Body) String() string {
	if b.kind == BodyEmpty {
		return ""
	}
	return b.text
}

func (b Body) MarshalJSON() ([]byte, error) {
	return jsoncodec.Marshal(b.String())
}

func (b *Body) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = EmptyBody()
		return nil
	}
	var s string
	if err := jsoncodec.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*b = EmptyBody()
		return nil
	}
	*b = TextBody(s)
	return nil
}
