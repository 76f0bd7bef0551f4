package matching

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMatchScenarios(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		opts []Option
		want map[FellowshipID][]StudentID
	}{
		{
			name: "mutual first choice",
			in: Input{
				Students:     []StudentID{"stu102"},
				Fellowships:  []Fellowship{{ID: "100", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{"stu102": {"100"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"100": {"stu102"}},
			},
			want: map[FellowshipID][]StudentID{"100": {"stu102"}},
		},
		{
			name: "better ranked student keeps the seat",
			in: Input{
				Students:    []StudentID{"stuA", "stuB"},
				Fellowships: []Fellowship{{ID: "200", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{
					"stuA": {"200"},
					"stuB": {"200"},
				},
				FacultyPrefs: map[FellowshipID][]StudentID{"200": {"stuA", "stuB"}},
			},
			want: map[FellowshipID][]StudentID{"200": {"stuA"}},
		},
		{
			name: "better ranked student evicts an earlier holder",
			in: Input{
				Students:    []StudentID{"stuA", "stuB"},
				Fellowships: []Fellowship{{ID: "200", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{
					"stuA": {"200"},
					"stuB": {"200"},
				},
				FacultyPrefs: map[FellowshipID][]StudentID{"200": {"stuA", "stuB"}},
			},
			opts: []Option{WithProposalOrder(func(a, b StudentID) bool { return a > b })},
			want: map[FellowshipID][]StudentID{"200": {"stuA"}},
		},
		{
			name: "ranked outside both top twos",
			in: Input{
				Students: []StudentID{"s1", "s2", "s3", "late"},
				Fellowships: []Fellowship{
					{ID: "f1", Capacity: 5},
					{ID: "f2", Capacity: 5},
				},
				StudentPrefs: map[StudentID][]FellowshipID{"late": {"f1", "f2"}},
				FacultyPrefs: map[FellowshipID][]StudentID{
					"f1": {"s1", "s2", "late"},
					"f2": {"s2", "s3", "s1", "late"},
				},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "third preference is never considered",
			in: Input{
				Students: []StudentID{"s1"},
				Fellowships: []Fellowship{
					{ID: "f1", Capacity: 1},
					{ID: "f2", Capacity: 1},
					{ID: "f3", Capacity: 1},
				},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1", "f2", "f3"}},
				FacultyPrefs: map[FellowshipID][]StudentID{
					"f1": {"x", "y", "s1"},
					"f2": {},
					"f3": {"s1"},
				},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "rejected first choice falls through to second",
			in: Input{
				Students: []StudentID{"s1"},
				Fellowships: []Fellowship{
					{ID: "f1", Capacity: 1},
					{ID: "f2", Capacity: 1},
				},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1", "f2"}},
				FacultyPrefs: map[FellowshipID][]StudentID{
					"f1": {"x", "y", "s1"},
					"f2": {"y", "s1"},
				},
			},
			want: map[FellowshipID][]StudentID{"f2": {"s1"}},
		},
		{
			name: "evicted holder moves to second choice",
			in: Input{
				Students: []StudentID{"a", "b"},
				Fellowships: []Fellowship{
					{ID: "f1", Capacity: 1},
					{ID: "f2", Capacity: 1},
				},
				StudentPrefs: map[StudentID][]FellowshipID{
					"a": {"f1", "f2"},
					"b": {"f1"},
				},
				FacultyPrefs: map[FellowshipID][]StudentID{
					"f1": {"b", "a"},
					"f2": {"a"},
				},
			},
			want: map[FellowshipID][]StudentID{"f1": {"b"}, "f2": {"a"}},
		},
		{
			name: "capacity two holds both mutual picks",
			in: Input{
				Students:    []StudentID{"a", "b", "c"},
				Fellowships: []Fellowship{{ID: "f1", Capacity: 2}},
				StudentPrefs: map[StudentID][]FellowshipID{
					"a": {"f1"},
					"b": {"f1"},
					"c": {"f1"},
				},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"c", "a", "b"}},
			},
			want: map[FellowshipID][]StudentID{"f1": {"a", "c"}},
		},
		{
			name: "zero capacity admits nobody",
			in: Input{
				Students:     []StudentID{"s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 0}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"s1"}},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "negative capacity admits nobody",
			in: Input{
				Students:     []StudentID{"s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: -3}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"s1"}},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "fellowship missing from catalog",
			in: Input{
				Students:     []StudentID{"s1"},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"ghost"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"ghost": {"s1"}},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "student without preferences",
			in: Input{
				Students:     []StudentID{"s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 1}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"s1"}},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "fellowship without preferences",
			in: Input{
				Students:     []StudentID{"s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "duplicate students propose once",
			in: Input{
				Students:     []StudentID{"s1", "s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 2}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"s1"}},
			},
			want: map[FellowshipID][]StudentID{"f1": {"s1"}},
		},
		{
			name: "last occurrence in faculty list sets rank",
			in: Input{
				Students:     []StudentID{"s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"s1", "x", "y", "s1"}},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "repeat still takes a list position",
			in: Input{
				Students:     []StudentID{"s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"x", "x", "s1"}},
			},
			want: map[FellowshipID][]StudentID{},
		},
		{
			name: "repeat keeps a student inside the top two",
			in: Input{
				Students:     []StudentID{"s1"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"s1", "s1"}},
			},
			want: map[FellowshipID][]StudentID{"f1": {"s1"}},
		},
		{
			name: "non applicant on faculty list is ignored",
			in: Input{
				Students:     []StudentID{"s2"},
				Fellowships:  []Fellowship{{ID: "f1", Capacity: 1}},
				StudentPrefs: map[StudentID][]FellowshipID{"s1": {"f1"}, "s2": {"f1"}},
				FacultyPrefs: map[FellowshipID][]StudentID{"f1": {"s1", "s2"}},
			},
			want: map[FellowshipID][]StudentID{"f1": {"s2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.in, tt.opts...)
			if diff := cmp.Diff(tt.want, got.Rosters); diff != "" {
				t.Fatalf("rosters mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchStats(t *testing.T) {
	in := Input{
		Students: []StudentID{"a", "b"},
		Fellowships: []Fellowship{
			{ID: "f1", Capacity: 1},
			{ID: "f2", Capacity: 1},
			{ID: "f3", Capacity: 1},
		},
		StudentPrefs: map[StudentID][]FellowshipID{
			"a": {"f1", "f2", "f3"},
			"b": {"f1"},
		},
		FacultyPrefs: map[FellowshipID][]StudentID{
			"f1": {"b", "a"},
			"f3": {"a"},
		},
	}

	got := Match(in)

	// a -> f1 admitted; b -> f1 evicts a; a -> f2 rejected; a -> f3 skipped.
	want := Stats{Proposals: 3, Rejections: 1, Evictions: 1, Skipped: 1}
	if diff := cmp.Diff(want, got.Stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
	if got.Matched() != 1 {
		t.Fatalf("expected 1 match, got %d", got.Matched())
	}
	if fid, ok := got.FellowshipOf("b"); !ok || fid != "f1" {
		t.Fatalf("expected b in f1, got %q (%v)", fid, ok)
	}
	if _, ok := got.FellowshipOf("a"); ok {
		t.Fatal("a should be unmatched")
	}
}

func TestResultPairsSorted(t *testing.T) {
	r := Result{Rosters: map[FellowshipID][]StudentID{
		"f2": {"z", "a"},
		"f1": {"m"},
	}}

	want := []Pair{
		{Fellowship: "f1", Student: "m"},
		{Fellowship: "f2", Student: "a"},
		{Fellowship: "f2", Student: "z"},
	}
	if diff := cmp.Diff(want, r.Pairs()); diff != "" {
		t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyInput(t *testing.T) {
	got := Match(Input{})
	if len(got.Rosters) != 0 || got.Matched() != 0 {
		t.Fatalf("expected empty result, got %v", got.Rosters)
	}
}
