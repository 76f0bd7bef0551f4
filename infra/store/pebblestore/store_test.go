package pebblestore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fellowmatch/domain/matching"
	"fellowmatch/infra/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "100", Capacity: 3}))
	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "200"}))
	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "300", Capacity: -1}))

	fs, err := s.Fellowships(ctx)
	require.NoError(t, err)
	require.Equal(t, []matching.Fellowship{
		{ID: "100", Capacity: 3},
		{ID: "200", Capacity: matching.DefaultCapacity},
		{ID: "300", Capacity: -1},
	}, fs)

	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "stu2", Fellowship: "100"}))
	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "stu1", Fellowship: "200"}))
	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "stu1", Fellowship: "100"}))
	// re-applying is a no-op
	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "stu1", Fellowship: "100"}))

	students, err := s.Students(ctx)
	require.NoError(t, err)
	require.Equal(t, []matching.StudentID{"stu1", "stu2"}, students)

	apps, err := s.Applications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 3)
}

func TestPreferencesKeepRankOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ranked := make([]matching.FellowshipID, 0, 12)
	for _, f := range []string{"f9", "f10", "f1", "f5", "f11", "f2", "f3", "f4", "f6", "f7", "f8", "f12"} {
		ranked = append(ranked, matching.FellowshipID(f))
	}
	require.NoError(t, s.SaveStudentPreferences(ctx, "stu", ranked))

	got, err := s.StudentPreferences(ctx, "stu")
	require.NoError(t, err)
	require.Equal(t, ranked, got)

	// a student whose ID extends another's must not leak into its list
	require.NoError(t, s.SaveStudentPreferences(ctx, "stu2", []matching.FellowshipID{"x"}))
	got, err = s.StudentPreferences(ctx, "stu")
	require.NoError(t, err)
	require.Equal(t, ranked, got)

	require.NoError(t, s.SaveStudentPreferences(ctx, "stu", []matching.FellowshipID{"f2"}))
	got, err = s.StudentPreferences(ctx, "stu")
	require.NoError(t, err)
	require.Equal(t, []matching.FellowshipID{"f2"}, got)

	require.NoError(t, s.SaveFacultyPreferences(ctx, "f2", []matching.StudentID{"b", "a"}))
	fp, err := s.FacultyPreferences(ctx, "f2")
	require.NoError(t, err)
	require.Equal(t, []matching.StudentID{"b", "a"}, fp)

	none, err := s.FacultyPreferences(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestReplaceMatches(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.ReplaceMatches(ctx, map[matching.FellowshipID][]matching.StudentID{
		"100": {"stu102"},
		"200": {"b", "a"},
	}))
	got, err := s.Matches(ctx)
	require.NoError(t, err)
	require.Equal(t, map[matching.FellowshipID][]matching.StudentID{
		"100": {"stu102"},
		"200": {"b", "a"},
	}, got)

	require.NoError(t, s.ReplaceMatches(ctx, map[matching.FellowshipID][]matching.StudentID{
		"300": {"c"},
	}))
	got, err = s.Matches(ctx)
	require.NoError(t, err)
	require.Equal(t, map[matching.FellowshipID][]matching.StudentID{"300": {"c"}}, got)

	require.NoError(t, s.ReplaceMatches(ctx, nil))
	got, err = s.Matches(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.PutFellowship(ctx, matching.Fellowship{ID: "1"}), context.Canceled)
	require.ErrorIs(t, s.ReplaceMatches(ctx, nil), context.Canceled)
}

func TestPrefixEnd(t *testing.T) {
	require.Equal(t, []byte("match0"), prefixEnd([]byte("match/")))
	require.Equal(t, []byte("b"), prefixEnd([]byte("a\xff")))
	require.Nil(t, prefixEnd([]byte("\xff\xff")))
}

func TestDeleteFellowshipAndWithdrawApplication(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "100"}))
	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "200", Capacity: 2}))
	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "a", Fellowship: "100"}))
	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "a", Fellowship: "200"}))
	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "b", Fellowship: "200"}))

	require.NoError(t, s.DeleteFellowship(ctx, "100"))
	require.NoError(t, s.DeleteFellowship(ctx, "missing"))
	fs, err := s.Fellowships(ctx)
	require.NoError(t, err)
	require.Equal(t, []matching.Fellowship{{ID: "200", Capacity: 2}}, fs)

	require.NoError(t, s.WithdrawApplication(ctx, store.Application{Student: "b", Fellowship: "200"}))
	require.NoError(t, s.WithdrawApplication(ctx, store.Application{Student: "b", Fellowship: "200"}))
	students, err := s.Students(ctx)
	require.NoError(t, err)
	require.Equal(t, []matching.StudentID{"a"}, students)

	// one of a's two applications goes; a still counts
	require.NoError(t, s.WithdrawApplication(ctx, store.Application{Student: "a", Fellowship: "100"}))
	students, err = s.Students(ctx)
	require.NoError(t, err)
	require.Equal(t, []matching.StudentID{"a"}, students)
}

func TestRankedKeysSortPastSixDigits(t *testing.T) {
	positions := []int{1, 9, 10, 999_999, 1_000_000, 12_345_678}
	for i := 1; i < len(positions); i++ {
		lo := rankedKey(prefixMatch, "f", positions[i-1])
		hi := rankedKey(prefixMatch, "f", positions[i])
		require.Negative(t, bytes.Compare(lo, hi), "%d vs %d", positions[i-1], positions[i])
	}

	_, pos, err := splitPair(rankedKey(prefixMatch, "f", 1_000_000), prefixMatch)
	require.NoError(t, err)
	n, err := parsePos(pos)
	require.NoError(t, err)
	require.Equal(t, 1_000_000, n)
}
