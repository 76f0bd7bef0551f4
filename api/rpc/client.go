package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"fellowmatch/domain/matching"
)

// Client calls a remote Matching service with domain values.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) RunMatching(ctx context.Context, opts ...grpc.CallOption) (RunReply, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(MethodRunMatching), &emptypb.Empty{}, out, opts...); err != nil {
		return RunReply{}, err
	}
	return DecodeRunReply(out)
}

// Matches returns the stored pairs, limited to one fellowship when
// fellowship is not empty.
func (c *Client) Matches(ctx context.Context, fellowship matching.FellowshipID, opts ...grpc.CallOption) ([]matching.Pair, error) {
	fields := map[string]any{}
	if fellowship != "" {
		fields[FieldFellowshipID] = string(fellowship)
	}
	in, err := NewRequest(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(MethodGetMatches), in, out, opts...); err != nil {
		return nil, err
	}
	return DecodeMatches(out)
}

func (c *Client) SubmitStudentPreferences(ctx context.Context, student matching.StudentID, ranked []matching.FellowshipID, opts ...grpc.CallOption) error {
	return c.send(ctx, MethodSubmitStudentPreferences, map[string]any{
		FieldStudentID: string(student),
		FieldRanked:    ranked,
	}, opts)
}

func (c *Client) SubmitFacultyPreferences(ctx context.Context, fellowship matching.FellowshipID, ranked []matching.StudentID, opts ...grpc.CallOption) error {
	return c.send(ctx, MethodSubmitFacultyPreferences, map[string]any{
		FieldFellowshipID: string(fellowship),
		FieldRanked:       ranked,
	}, opts)
}

func (c *Client) RegisterFellowship(ctx context.Context, f matching.Fellowship, opts ...grpc.CallOption) error {
	return c.send(ctx, MethodRegisterFellowship, map[string]any{
		FieldFellowshipID: string(f.ID),
		FieldCapacity:     f.Capacity,
	}, opts)
}

func (c *Client) SubmitApplication(ctx context.Context, student matching.StudentID, fellowship matching.FellowshipID, opts ...grpc.CallOption) error {
	return c.send(ctx, MethodSubmitApplication, map[string]any{
		FieldStudentID:    string(student),
		FieldFellowshipID: string(fellowship),
	}, opts)
}

func (c *Client) DeleteFellowship(ctx context.Context, fellowship matching.FellowshipID, opts ...grpc.CallOption) error {
	return c.send(ctx, MethodDeleteFellowship, map[string]any{
		FieldFellowshipID: string(fellowship),
	}, opts)
}

func (c *Client) WithdrawApplication(ctx context.Context, student matching.StudentID, fellowship matching.FellowshipID, opts ...grpc.CallOption) error {
	return c.send(ctx, MethodWithdrawApplication, map[string]any{
		FieldStudentID:    string(student),
		FieldFellowshipID: string(fellowship),
	}, opts)
}

func (c *Client) send(ctx context.Context, method string, fields map[string]any, opts []grpc.CallOption) error {
	in, err := NewRequest(fields)
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, fullMethod(method), in, new(emptypb.Empty), opts...)
}
