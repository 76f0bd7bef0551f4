package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fellowmatch/domain/matching"
	"fellowmatch/infra/journal"
	"fellowmatch/infra/outbox"
	"fellowmatch/infra/sequence"
	"fellowmatch/infra/store"
	"fellowmatch/snapshot"
)

/*
MatchService is the ONLY write entry point into the engine.

Every accepted command is applied to the store and then journaled under a
sequence number. A matching run additionally writes its input snapshot and
queues a completion event in the outbox.

writeMu serializes sequence allocation, store writes and journal appends,
so journal sequence numbers are strictly increasing in file order.
*/
type MatchService struct {
	runMu   sync.Mutex
	writeMu sync.Mutex

	store     store.Store
	journal   *journal.Journal
	outbox    *outbox.Outbox
	snapshots *snapshot.Writer
	seq       *sequence.Sequencer
	observer  RunObserver
	log       *zap.Logger
}

// RunObserver is told about the outcome of every run request.
type RunObserver interface {
	RunCompleted(r Run)
	RunFailed(err error)
}

// SetObserver must be called before the service is shared.
func (s *MatchService) SetObserver(o RunObserver) {
	s.observer = o
}

// NewMatchService wires all dependencies. journal, outbox and snapshots
// may be nil to switch that concern off.
func NewMatchService(
	st store.Store,
	j *journal.Journal,
	ob *outbox.Outbox,
	snaps *snapshot.Writer,
	seq *sequence.Sequencer,
	log *zap.Logger,
) *MatchService {
	if seq == nil {
		seq = sequence.New(0)
	}
	return &MatchService{
		store:     st,
		journal:   j,
		outbox:    ob,
		snapshots: snaps,
		seq:       seq,
		log:       log.Named("service"),
	}
}

// Run describes one completed matching run.
type Run struct {
	ID        uuid.UUID
	Seq       uint64
	StartedAt time.Time
	Duration  time.Duration
	Students  int
	Result    matching.Result
	Snapshot  string
}

//
// ──────────────────────────────────────────────────────────
// Matching
// ──────────────────────────────────────────────────────────
//

// RunMatching recomputes every match from the current store contents and
// replaces the stored result set. Only one run executes at a time; a
// concurrent request gets ErrRunInProgress.
func (s *MatchService) RunMatching(ctx context.Context) (Run, error) {
	run, err := s.runMatching(ctx)
	if s.observer != nil {
		if err != nil {
			s.observer.RunFailed(err)
		} else {
			s.observer.RunCompleted(run)
		}
	}
	return run, err
}

func (s *MatchService) runMatching(ctx context.Context) (Run, error) {
	if !s.runMu.TryLock() {
		return Run{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	// commands wait for the run, so the snapshot is exactly what was matched
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	run := Run{ID: uuid.New(), StartedAt: time.Now()}

	// 1️⃣ Fetch the input once
	in, err := store.Load(ctx, s.store)
	if err != nil {
		return Run{}, errors.Wrap(err, "load matching input")
	}
	run.Students = len(in.Students)

	// 2️⃣ Pure domain logic
	run.Result = matching.Match(in)
	run.Seq = s.seq.Next()

	// 3️⃣ Keep the input for later verification
	if s.snapshots != nil {
		path, err := s.snapshots.Write(run.Seq, run.ID.String(), in)
		if err != nil {
			return Run{}, errors.Wrap(err, "write input snapshot")
		}
		run.Snapshot = path
	}

	// 4️⃣ Persist-replace
	if err := s.store.ReplaceMatches(ctx, run.Result.Rosters); err != nil {
		return Run{}, errors.Wrap(err, "persist matches")
	}

	// 5️⃣ Journal + outbox
	if err := s.record(journal.RecordRun, run.Seq, runPayload(run)); err != nil {
		return Run{}, err
	}
	if s.outbox != nil {
		payload, err := json.Marshal(newCompletedEvent(run))
		if err != nil {
			return Run{}, errors.Wrap(err, "encode completion event")
		}
		if err := s.outbox.PutNew(run.Seq, payload); err != nil {
			return Run{}, errors.Wrap(err, "queue completion event")
		}
	}

	run.Duration = time.Since(run.StartedAt)
	st := run.Result.Stats
	s.log.Info("matching run completed",
		zap.String("run_id", run.ID.String()),
		zap.Uint64("seq", run.Seq),
		zap.Int("students", run.Students),
		zap.Int("fellowships", len(in.Fellowships)),
		zap.Int("matched", run.Result.Matched()),
		zap.Int("proposals", st.Proposals),
		zap.Int("rejections", st.Rejections),
		zap.Int("evictions", st.Evictions),
		zap.Int("skipped", st.Skipped),
		zap.Duration("took", run.Duration),
	)
	return run, nil
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// SubmitStudentPreferences replaces a student's fellowship ranking. Blank
// and repeated IDs are dropped; at least one fellowship must remain.
func (s *MatchService) SubmitStudentPreferences(ctx context.Context, student matching.StudentID, ranked []matching.FellowshipID) error {
	if student == "" {
		return errors.Wrap(ErrInvalidArgument, "student id is required")
	}
	ranked = normalize(ranked)
	if len(ranked) == 0 {
		return ErrEmptyRanking
	}

	return s.apply(journal.RecordStudentPrefs, func() error {
		if err := s.store.SaveStudentPreferences(ctx, student, ranked); err != nil {
			return errors.Wrapf(err, "save preferences of student %s", student)
		}
		s.log.Debug("student preferences saved", zap.String("student", string(student)), zap.Int("ranked", len(ranked)))
		return nil
	}, map[string]any{
		"student": string(student),
		"ranked":  journal.Strings(ranked),
	})
}

// SubmitFacultyPreferences replaces a fellowship's applicant ranking. It
// must name at least one student.
func (s *MatchService) SubmitFacultyPreferences(ctx context.Context, fellowship matching.FellowshipID, ranked []matching.StudentID) error {
	if fellowship == "" {
		return errors.Wrap(ErrInvalidArgument, "fellowship id is required")
	}
	ranked = normalize(ranked)
	if len(ranked) == 0 {
		return ErrEmptyRanking
	}

	return s.apply(journal.RecordFacultyPrefs, func() error {
		if err := s.store.SaveFacultyPreferences(ctx, fellowship, ranked); err != nil {
			return errors.Wrapf(err, "save preferences of fellowship %s", fellowship)
		}
		s.log.Debug("faculty preferences saved", zap.String("fellowship", string(fellowship)), zap.Int("ranked", len(ranked)))
		return nil
	}, map[string]any{
		"fellowship": string(fellowship),
		"ranked":     journal.Strings(ranked),
	})
}

// RegisterFellowship adds or updates a fellowship. Capacity 0 means
// unspecified and reads back as matching.DefaultCapacity.
func (s *MatchService) RegisterFellowship(ctx context.Context, f matching.Fellowship) error {
	if f.ID == "" {
		return errors.Wrap(ErrInvalidArgument, "fellowship id is required")
	}
	if f.Capacity < 0 {
		return errors.Wrapf(ErrInvalidArgument, "capacity %d is negative", f.Capacity)
	}

	return s.apply(journal.RecordFellowship, func() error {
		return errors.Wrapf(s.store.PutFellowship(ctx, f), "register fellowship %s", f.ID)
	}, map[string]any{
		"fellowship": string(f.ID),
		"capacity":   f.Capacity,
	})
}

// DeleteFellowship removes a fellowship from the catalog. Rankings and
// applications that name it stay behind and are ignored by later runs.
func (s *MatchService) DeleteFellowship(ctx context.Context, fellowship matching.FellowshipID) error {
	if fellowship == "" {
		return errors.Wrap(ErrInvalidArgument, "fellowship id is required")
	}

	return s.apply(journal.RecordFellowshipDeleted, func() error {
		return errors.Wrapf(s.store.DeleteFellowship(ctx, fellowship), "delete fellowship %s", fellowship)
	}, map[string]any{
		"fellowship": string(fellowship),
	})
}

func (s *MatchService) SubmitApplication(ctx context.Context, student matching.StudentID, fellowship matching.FellowshipID) error {
	if student == "" || fellowship == "" {
		return errors.Wrap(ErrInvalidArgument, "student and fellowship ids are required")
	}

	return s.apply(journal.RecordApplication, func() error {
		a := store.Application{Student: student, Fellowship: fellowship}
		return errors.Wrapf(s.store.PutApplication(ctx, a), "apply %s to %s", student, fellowship)
	}, map[string]any{
		"student":    string(student),
		"fellowship": string(fellowship),
	})
}

// WithdrawApplication removes one application. A student left without
// applications drops out of the next run. Withdrawing an application that
// does not exist is not an error.
func (s *MatchService) WithdrawApplication(ctx context.Context, student matching.StudentID, fellowship matching.FellowshipID) error {
	if student == "" || fellowship == "" {
		return errors.Wrap(ErrInvalidArgument, "student and fellowship ids are required")
	}

	return s.apply(journal.RecordApplicationWithdrawn, func() error {
		a := store.Application{Student: student, Fellowship: fellowship}
		return errors.Wrapf(s.store.WithdrawApplication(ctx, a), "withdraw %s from %s", student, fellowship)
	}, map[string]any{
		"student":    string(student),
		"fellowship": string(fellowship),
	})
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Matches returns the stored result of the last run.
func (s *MatchService) Matches(ctx context.Context) (map[matching.FellowshipID][]matching.StudentID, error) {
	return s.store.Matches(ctx)
}

// MatchesFor returns the students matched to one fellowship.
func (s *MatchService) MatchesFor(ctx context.Context, fellowship matching.FellowshipID) ([]matching.StudentID, error) {
	all, err := s.store.Matches(ctx)
	if err != nil {
		return nil, err
	}
	return all[fellowship], nil
}

//
// ──────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────
//

// apply runs write and journals fields under one fresh sequence number,
// holding writeMu for both.
func (s *MatchService) apply(t journal.RecordType, write func() error, fields map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := write(); err != nil {
		return err
	}
	return s.record(t, s.seq.Next(), fields)
}

func (s *MatchService) record(t journal.RecordType, seq uint64, fields map[string]any) error {
	if s.journal == nil {
		return nil
	}
	data, err := journal.EncodePayload(fields)
	if err != nil {
		return err
	}
	if err := s.journal.Append(journal.NewRecord(t, seq, data)); err != nil {
		return errors.Wrapf(err, "journal %s record %d", t, seq)
	}
	return nil
}

func runPayload(r Run) map[string]any {
	pairs := r.Result.Pairs()
	matches := make([]any, len(pairs))
	for i, p := range pairs {
		matches[i] = map[string]any{
			"fellowship": string(p.Fellowship),
			"student":    string(p.Student),
		}
	}
	return map[string]any{
		"run_id":     r.ID.String(),
		"students":   r.Students,
		"matched":    r.Result.Matched(),
		"proposals":  r.Result.Stats.Proposals,
		"rejections": r.Result.Stats.Rejections,
		"evictions":  r.Result.Stats.Evictions,
		"skipped":    r.Result.Stats.Skipped,
		"matches":    matches,
	}
}

// normalize drops blank and repeated IDs, keeping first positions.
func normalize[T ~string](ids []T) []T {
	out := make([]T, 0, len(ids))
	seen := make(map[T]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
