package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fellowmatch/domain/matching"
	"fellowmatch/infra/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "portal_test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedRankFixture mirrors the portal's ranking fixture: two fellowships,
// each with a clear mutual first choice and a runner-up.
func seedRankFixture(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	// capacity left NULL, as the portal does for older rows
	_, err := s.db.ExecContext(ctx, `INSERT INTO fellowships (fellowship_id, name) VALUES (100, 'Bio Lab Summer')`)
	require.NoError(t, err)
	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "200", Capacity: 1}))

	for _, a := range []store.Application{
		{Student: "stu101", Fellowship: "100"},
		{Student: "stu102", Fellowship: "100"},
		{Student: "stu201", Fellowship: "200"},
		{Student: "stu202", Fellowship: "200"},
		{Student: "stu202", Fellowship: "100"},
	} {
		require.NoError(t, s.PutApplication(ctx, a))
	}

	require.NoError(t, s.SaveStudentPreferences(ctx, "stu101", []matching.FellowshipID{"100"}))
	require.NoError(t, s.SaveStudentPreferences(ctx, "stu102", []matching.FellowshipID{"100"}))
	require.NoError(t, s.SaveStudentPreferences(ctx, "stu201", []matching.FellowshipID{"200"}))
	require.NoError(t, s.SaveStudentPreferences(ctx, "stu202", []matching.FellowshipID{"200", "100"}))

	require.NoError(t, s.SaveFacultyPreferences(ctx, "100", []matching.StudentID{"stu102", "stu101"}))
	require.NoError(t, s.SaveFacultyPreferences(ctx, "200", []matching.StudentID{"stu202", "stu201"}))
}

func TestMatchingAgainstPortalSchema(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedRankFixture(t, s)

	in, err := store.Load(ctx, s)
	require.NoError(t, err)
	require.Equal(t, []matching.StudentID{"stu101", "stu102", "stu201", "stu202"}, in.Students)
	require.Equal(t, []matching.Fellowship{
		{ID: "100", Capacity: 1},
		{ID: "200", Capacity: 1},
	}, in.Fellowships)

	res := matching.Match(in)
	require.Equal(t, []matching.StudentID{"stu102"}, res.Rosters["100"])
	require.Equal(t, []matching.StudentID{"stu202"}, res.Rosters["200"])

	require.NoError(t, s.ReplaceMatches(ctx, res.Rosters))
	stored, err := s.Matches(ctx)
	require.NoError(t, err)
	require.Equal(t, res.Rosters, stored)
}

func TestSavePreferencesReplacesRanking(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveFacultyPreferences(ctx, "7", []matching.StudentID{"a", "b", "c"}))
	require.NoError(t, s.SaveFacultyPreferences(ctx, "7", []matching.StudentID{"c", "a"}))

	got, err := s.FacultyPreferences(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, []matching.StudentID{"c", "a"}, got)

	var rank int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT preference_rank FROM faculty_preferences WHERE fellowship_id = 7 AND student_net_id = 'c'`,
	).Scan(&rank))
	require.Equal(t, 1, rank)
}

func TestReplaceMatchesClearsPrevious(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.ReplaceMatches(ctx, map[matching.FellowshipID][]matching.StudentID{
		"1": {"x", "y"},
		"2": {"z"},
	}))
	require.NoError(t, s.ReplaceMatches(ctx, map[matching.FellowshipID][]matching.StudentID{
		"3": {"w"},
	}))

	got, err := s.Matches(ctx)
	require.NoError(t, err)
	require.Equal(t, map[matching.FellowshipID][]matching.StudentID{"3": {"w"}}, got)
}

func TestPutApplicationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.PutApplication(ctx, store.Application{Student: "stu", Fellowship: "5"}))
	}
	apps, err := s.Applications(ctx)
	require.NoError(t, err)
	require.Equal(t, []store.Application{{Student: "stu", Fellowship: "5"}}, apps)
}

func TestExplicitZeroCapacityIsKept(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.db.ExecContext(ctx, `INSERT INTO fellowships (fellowship_id, capacity) VALUES (9, 0)`)
	require.NoError(t, err)
	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "10"}))

	fs, err := s.Fellowships(ctx)
	require.NoError(t, err)
	require.Equal(t, []matching.Fellowship{{ID: "9", Capacity: 0}, {ID: "10", Capacity: 1}}, fs)
}

func TestWithdrawAndDeleteAgainstPortalSchema(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedRankFixture(t, s)

	require.NoError(t, s.WithdrawApplication(ctx, store.Application{Student: "stu102", Fellowship: "100"}))
	require.NoError(t, s.DeleteFellowship(ctx, "200"))
	require.NoError(t, s.DeleteFellowship(ctx, "404"))

	in, err := store.Load(ctx, s)
	require.NoError(t, err)
	require.Equal(t, []matching.StudentID{"stu101", "stu201", "stu202"}, in.Students)
	require.Equal(t, []matching.Fellowship{{ID: "100", Capacity: 1}}, in.Fellowships)

	// stu101 is second on 100's list and stu102 no longer applies
	res := matching.Match(in)
	require.Equal(t, map[matching.FellowshipID][]matching.StudentID{"100": {"stu101"}}, res.Rosters)
}

func TestRepeatedPortalRankUsesLastPosition(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.PutFellowship(ctx, matching.Fellowship{ID: "1", Capacity: 1}))
	require.NoError(t, s.PutApplication(ctx, store.Application{Student: "s1", Fellowship: "1"}))
	require.NoError(t, s.SaveStudentPreferences(ctx, "s1", []matching.FellowshipID{"1"}))
	// the portal writes rows as submitted, repeats included
	require.NoError(t, s.SaveFacultyPreferences(ctx, "1", []matching.StudentID{"s1", "x", "y", "s1"}))

	in, err := store.Load(ctx, s)
	require.NoError(t, err)
	require.Empty(t, matching.Match(in).Rosters)
}
