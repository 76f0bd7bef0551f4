package grpcserver

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"fellowmatch/api/rpc"
	"fellowmatch/domain/matching"
	"fellowmatch/service"
)

// Server adapts MatchService to gRPC.
type Server struct {
	svc *service.MatchService
	log *zap.Logger
}

var _ rpc.MatchingServer = (*Server)(nil)

func NewServer(svc *service.MatchService, log *zap.Logger) *Server {
	return &Server{svc: svc, log: log.Named("grpc")}
}

// Register creates a grpc.Server with the Matching service on it.
func Register(svc *service.MatchService, log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	rpc.RegisterMatchingServer(srv, NewServer(svc, log))
	return srv
}

// -------------------- Commands --------------------

func (s *Server) RunMatching(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	run, err := s.svc.RunMatching(ctx)
	if err != nil {
		return nil, s.toStatus(rpc.MethodRunMatching, err)
	}

	s.log.Info("RunMatching",
		zap.String("run_id", run.ID.String()),
		zap.Uint64("seq", run.Seq),
		zap.Int("matched", run.Result.Matched()),
	)

	reply, err := rpc.EncodeRunReply(rpc.RunReply{
		RunID:     run.ID.String(),
		Seq:       run.Seq,
		Matched:   run.Result.Matched(),
		Proposals: run.Result.Stats.Proposals,
		Evictions: run.Result.Stats.Evictions,
		Matches:   run.Result.Pairs(),
	})
	if err != nil {
		return nil, s.toStatus(rpc.MethodRunMatching, err)
	}
	return reply, nil
}

func (s *Server) SubmitStudentPreferences(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	student := matching.StudentID(rpc.String(req, rpc.FieldStudentID))
	ranked := rpc.Strings[matching.FellowshipID](req, rpc.FieldRanked)

	if err := s.svc.SubmitStudentPreferences(ctx, student, ranked); err != nil {
		return nil, s.toStatus(rpc.MethodSubmitStudentPreferences, err)
	}
	s.log.Debug("SubmitStudentPreferences", zap.String("student", string(student)), zap.Int("ranked", len(ranked)))
	return &emptypb.Empty{}, nil
}

func (s *Server) SubmitFacultyPreferences(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fellowship := matching.FellowshipID(rpc.String(req, rpc.FieldFellowshipID))
	ranked := rpc.Strings[matching.StudentID](req, rpc.FieldRanked)

	if err := s.svc.SubmitFacultyPreferences(ctx, fellowship, ranked); err != nil {
		return nil, s.toStatus(rpc.MethodSubmitFacultyPreferences, err)
	}
	s.log.Debug("SubmitFacultyPreferences", zap.String("fellowship", string(fellowship)), zap.Int("ranked", len(ranked)))
	return &emptypb.Empty{}, nil
}

func (s *Server) RegisterFellowship(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	capacity, err := wholeNumber(rpc.Number(req, rpc.FieldCapacity))
	if err != nil {
		return nil, s.toStatus(rpc.MethodRegisterFellowship, errors.Wrap(err, "capacity"))
	}
	f := matching.Fellowship{
		ID:       matching.FellowshipID(rpc.String(req, rpc.FieldFellowshipID)),
		Capacity: capacity,
	}
	if err := s.svc.RegisterFellowship(ctx, f); err != nil {
		return nil, s.toStatus(rpc.MethodRegisterFellowship, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) SubmitApplication(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	student := matching.StudentID(rpc.String(req, rpc.FieldStudentID))
	fellowship := matching.FellowshipID(rpc.String(req, rpc.FieldFellowshipID))

	if err := s.svc.SubmitApplication(ctx, student, fellowship); err != nil {
		return nil, s.toStatus(rpc.MethodSubmitApplication, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) DeleteFellowship(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fellowship := matching.FellowshipID(rpc.String(req, rpc.FieldFellowshipID))

	if err := s.svc.DeleteFellowship(ctx, fellowship); err != nil {
		return nil, s.toStatus(rpc.MethodDeleteFellowship, err)
	}
	s.log.Info("DeleteFellowship", zap.String("fellowship", string(fellowship)))
	return &emptypb.Empty{}, nil
}

func (s *Server) WithdrawApplication(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	student := matching.StudentID(rpc.String(req, rpc.FieldStudentID))
	fellowship := matching.FellowshipID(rpc.String(req, rpc.FieldFellowshipID))

	if err := s.svc.WithdrawApplication(ctx, student, fellowship); err != nil {
		return nil, s.toStatus(rpc.MethodWithdrawApplication, err)
	}
	return &emptypb.Empty{}, nil
}

// wholeNumber converts a Struct number to an int, refusing fractions and
// values outside the int32 range.
func wholeNumber(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, errors.Wrapf(service.ErrInvalidArgument, "%v is not a whole number", v)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, errors.Wrapf(service.ErrInvalidArgument, "%v is out of range", v)
	}
	return int(v), nil
}

// -------------------- Queries --------------------

func (s *Server) GetMatches(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	all, err := s.svc.Matches(ctx)
	if err != nil {
		return nil, s.toStatus(rpc.MethodGetMatches, err)
	}

	rosters := all
	if fid := matching.FellowshipID(rpc.String(req, rpc.FieldFellowshipID)); fid != "" {
		rosters = map[matching.FellowshipID][]matching.StudentID{fid: all[fid]}
	}

	reply, err := rpc.EncodeMatches(matching.Result{Rosters: rosters}.Pairs())
	if err != nil {
		return nil, s.toStatus(rpc.MethodGetMatches, err)
	}
	return reply, nil
}

// -------------------- Errors --------------------

func (s *Server) toStatus(method string, err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrEmptyRanking):
		code = codes.InvalidArgument
	case errors.Is(err, service.ErrRunInProgress):
		code = codes.Aborted
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}

	if code == codes.Internal {
		s.log.Error(method+" failed", zap.Error(err))
	} else {
		s.log.Warn(method+" rejected", zap.Stringer("code", code), zap.Error(err))
	}
	return status.Error(code, err.Error())
}
