package jsoncodec

import (
	"github.com/bytedance/sonic"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var defaultConfig = sonic.ConfigStd

var protoUnmarshaler = protojson.UnmarshalOptions{DiscardUnknown: true}

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

// Valid reports whether data is a syntactically valid JSON document.
func Valid(data []byte) bool {
	return defaultConfig.Valid(data)
}

// MarshalValue encodes protobuf messages with protojson and everything else
// with sonic. A nil message encodes as null.
func MarshalValue(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok && msg != nil {
		if !msg.ProtoReflect().IsValid() {
			return []byte("null"), nil
		}
		return protojson.Marshal(msg)
	}
	return Marshal(v)
}

// UnmarshalValue is the decoding counterpart of MarshalValue. Unknown protobuf
// fields are ignored so event shapes may grow.
func UnmarshalValue(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok && msg != nil {
		return protoUnmarshaler.Unmarshal(data, msg)
	}
	return Unmarshal(data, v)
}
