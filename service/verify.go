package service

import (
	"context"

	"github.com/cockroachdb/errors"

	"fellowmatch/domain/matching"
	"fellowmatch/snapshot"
)

var ErrNoSnapshot = errors.New("no input snapshot recorded yet")

// Verification compares a re-run over a stored input with the stored result.
type Verification struct {
	Seq        uint64
	RunID      string
	Expected   []matching.Pair
	Missing    []matching.Pair // expected but not stored
	Unexpected []matching.Pair // stored but not expected
}

func (v Verification) OK() bool {
	return len(v.Missing) == 0 && len(v.Unexpected) == 0
}

// Verify re-runs the matcher over the latest input snapshot in dir and
// diffs the outcome against the matches currently in the store. Matching
// is deterministic, so any difference means the store changed after the
// run or the run was not persisted.
func (s *MatchService) Verify(ctx context.Context, dir string) (Verification, error) {
	snap, err := snapshot.Latest(dir)
	if err != nil {
		return Verification{}, errors.Wrap(err, "load latest snapshot")
	}
	if snap == nil {
		return Verification{}, ErrNoSnapshot
	}

	stored, err := s.store.Matches(ctx)
	if err != nil {
		return Verification{}, errors.Wrap(err, "load stored matches")
	}

	expected := matching.Match(snap.Input).Pairs()
	actual := matching.Result{Rosters: stored}.Pairs()

	v := Verification{Seq: snap.Seq, RunID: snap.RunID, Expected: expected}
	v.Missing = diffPairs(expected, actual)
	v.Unexpected = diffPairs(actual, expected)
	return v, nil
}

func diffPairs(a, b []matching.Pair) []matching.Pair {
	in := make(map[matching.Pair]struct{}, len(b))
	for _, p := range b {
		in[p] = struct{}{}
	}
	var out []matching.Pair
	for _, p := range a {
		if _, ok := in[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
