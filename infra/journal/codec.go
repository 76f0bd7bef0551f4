package journal

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodePayload marshals fields as a protobuf Struct. Values must be
// representable by structpb: strings, numbers, bools, nil, []any and
// map[string]any.
func EncodePayload(fields map[string]any) ([]byte, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "build payload")
	}
	return proto.Marshal(st)
}

func DecodePayload(b []byte) (map[string]any, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	return st.AsMap(), nil
}

// Strings converts a []T of string kind to the []any structpb expects.
func Strings[T ~string](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
