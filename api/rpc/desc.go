// Package rpc describes the fellowmatch.v1.Matching gRPC service.
//
// Messages are protobuf well-known types: requests and replies with a body
// are google.protobuf.Struct, bodiless ones google.protobuf.Empty. The
// helpers in messages.go convert between those and domain values.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "fellowmatch.v1.Matching"

const (
	MethodRunMatching              = "RunMatching"
	MethodGetMatches               = "GetMatches"
	MethodSubmitStudentPreferences = "SubmitStudentPreferences"
	MethodSubmitFacultyPreferences = "SubmitFacultyPreferences"
	MethodRegisterFellowship       = "RegisterFellowship"
	MethodSubmitApplication        = "SubmitApplication"
	MethodDeleteFellowship         = "DeleteFellowship"
	MethodWithdrawApplication      = "WithdrawApplication"
)

func fullMethod(m string) string { return "/" + ServiceName + "/" + m }

// MatchingServer is the server API for the Matching service.
type MatchingServer interface {
	RunMatching(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetMatches(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitStudentPreferences(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SubmitFacultyPreferences(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	RegisterFellowship(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SubmitApplication(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DeleteFellowship(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	WithdrawApplication(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

func RegisterMatchingServer(s grpc.ServiceRegistrar, srv MatchingServer) {
	s.RegisterService(&MatchingServiceDesc, srv)
}

var MatchingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRunMatching, newEmpty, MatchingServer.RunMatching),
		unary(MethodGetMatches, newStruct, MatchingServer.GetMatches),
		unary(MethodSubmitStudentPreferences, newStruct, MatchingServer.SubmitStudentPreferences),
		unary(MethodSubmitFacultyPreferences, newStruct, MatchingServer.SubmitFacultyPreferences),
		unary(MethodRegisterFellowship, newStruct, MatchingServer.RegisterFellowship),
		unary(MethodSubmitApplication, newStruct, MatchingServer.SubmitApplication),
		unary(MethodDeleteFellowship, newStruct, MatchingServer.DeleteFellowship),
		unary(MethodWithdrawApplication, newStruct, MatchingServer.WithdrawApplication),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fellowmatch/v1/matching.proto",
}

func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }
func newStruct() *structpb.Struct { return &structpb.Struct{} }

// unary builds the method handler the generated code would contain for a
// single request/reply RPC.
func unary[Req, Resp proto.Message](
	method string,
	newReq func() Req,
	call func(MatchingServer, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchingServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
