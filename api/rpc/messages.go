package rpc

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"fellowmatch/domain/matching"
)

// Struct field names shared by client and server.
const (
	FieldStudentID    = "student_id"
	FieldFellowshipID = "fellowship_id"
	FieldCapacity     = "capacity"
	FieldRanked       = "ranked"
	FieldRunID        = "run_id"
	FieldSeq          = "seq"
	FieldMatched      = "matched"
	FieldMatches      = "matches"
	FieldProposals    = "proposals"
	FieldEvictions    = "evictions"
)

// RunReply is the body of a RunMatching reply.
type RunReply struct {
	RunID     string
	Seq       uint64
	Matched   int
	Proposals int
	Evictions int
	Matches   []matching.Pair
}

func EncodeRunReply(r RunReply) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldRunID:     r.RunID,
		FieldSeq:       r.Seq,
		FieldMatched:   r.Matched,
		FieldProposals: r.Proposals,
		FieldEvictions: r.Evictions,
		FieldMatches:   encodePairs(r.Matches),
	})
}

func DecodeRunReply(st *structpb.Struct) (RunReply, error) {
	pairs, err := DecodeMatches(st)
	if err != nil {
		return RunReply{}, err
	}
	return RunReply{
		RunID:     String(st, FieldRunID),
		Seq:       uint64(Number(st, FieldSeq)),
		Matched:   int(Number(st, FieldMatched)),
		Proposals: int(Number(st, FieldProposals)),
		Evictions: int(Number(st, FieldEvictions)),
		Matches:   pairs,
	}, nil
}

func EncodeMatches(pairs []matching.Pair) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{FieldMatches: encodePairs(pairs)})
}

func DecodeMatches(st *structpb.Struct) ([]matching.Pair, error) {
	list := st.GetFields()[FieldMatches].GetListValue()
	out := make([]matching.Pair, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		m := v.GetStructValue()
		if m == nil {
			return nil, errors.Newf("match %d is not an object", i)
		}
		out = append(out, matching.Pair{
			Fellowship: matching.FellowshipID(String(m, FieldFellowshipID)),
			Student:    matching.StudentID(String(m, FieldStudentID)),
		})
	}
	return out, nil
}

func encodePairs(pairs []matching.Pair) []any {
	out := make([]any, len(pairs))
	for i, p := range pairs {
		out[i] = map[string]any{
			FieldFellowshipID: string(p.Fellowship),
			FieldStudentID:    string(p.Student),
		}
	}
	return out
}

// NewRequest builds a request body. String, student ID and fellowship ID
// slices become lists; other values follow structpb.NewValue.
func NewRequest(fields map[string]any) (*structpb.Struct, error) {
	body := make(map[string]any, len(fields))
	for k, v := range fields {
		switch v := v.(type) {
		case []string:
			body[k] = anyList(v)
		case []matching.StudentID:
			body[k] = anyList(v)
		case []matching.FellowshipID:
			body[k] = anyList(v)
		default:
			body[k] = v
		}
	}
	return structpb.NewStruct(body)
}

// String returns a string field, or "" when it is absent or not a string.
func String(st *structpb.Struct, key string) string {
	return st.GetFields()[key].GetStringValue()
}

// Number returns a numeric field, or 0.
func Number(st *structpb.Struct, key string) float64 {
	return st.GetFields()[key].GetNumberValue()
}

// Strings returns a list field of strings. Non-string items come back as "".
func Strings[T ~string](st *structpb.Struct, key string) []T {
	vals := st.GetFields()[key].GetListValue().GetValues()
	out := make([]T, len(vals))
	for i, v := range vals {
		out[i] = T(v.GetStringValue())
	}
	return out
}

func anyList[T ~string](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
