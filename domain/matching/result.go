package matching

import "sort"

// Result is the outcome of a run. Rosters only holds fellowships with at
// least one matched student, in admission order.
type Result struct {
	Rosters map[FellowshipID][]StudentID
	Stats   Stats
}

// Matched returns the number of matched students.
func (r Result) Matched() int {
	n := 0
	for _, students := range r.Rosters {
		n += len(students)
	}
	return n
}

// Pairs returns every assignment sorted by fellowship, then student.
func (r Result) Pairs() []Pair {
	out := make([]Pair, 0, r.Matched())
	for fid, students := range r.Rosters {
		for _, s := range students {
			out = append(out, Pair{Fellowship: fid, Student: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fellowship != out[j].Fellowship {
			return out[i].Fellowship < out[j].Fellowship
		}
		return out[i].Student < out[j].Student
	})
	return out
}

// FellowshipOf reports where a student ended up.
func (r Result) FellowshipOf(s StudentID) (FellowshipID, bool) {
	for fid, students := range r.Rosters {
		for _, held := range students {
			if held == s {
				return fid, true
			}
		}
	}
	return "", false
}
