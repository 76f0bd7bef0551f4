package matching

import "math"

// unranked is the rank of a student missing from a faculty list.
const unranked = math.MaxInt

// Option tunes a run.
type Option func(*matcher)

// WithProposalOrder sets which pooled student proposes next: the minimum
// under less. The default is ascending student ID.
func WithProposalOrder(less func(a, b StudentID) bool) Option {
	return func(m *matcher) {
		m.pool.less = less
	}
}

// roster is one fellowship's side of the run.
type roster struct {
	capacity int
	rank     map[StudentID]int
	holders  []StudentID
}

func (r *roster) rankOf(s StudentID) int {
	if r == nil {
		return unranked
	}
	if i, ok := r.rank[s]; ok {
		return i
	}
	return unranked
}

func (r *roster) full() bool {
	return len(r.holders) >= r.capacity
}

// worst returns the index of the worst-ranked holder, the first one on ties,
// or -1 when the roster is empty.
func (r *roster) worst() int {
	idx, worstRank := -1, -1
	for i, s := range r.holders {
		if rk := r.rankOf(s); rk > worstRank {
			idx, worstRank = i, rk
		}
	}
	return idx
}

func (r *roster) remove(i int) StudentID {
	s := r.holders[i]
	r.holders = append(r.holders[:i], r.holders[i+1:]...)
	return s
}

type matcher struct {
	prefs    map[StudentID][]FellowshipID
	cursor   map[StudentID]int
	rosters  map[FellowshipID]*roster
	assigned map[StudentID]FellowshipID
	pool     *pool
	stats    Stats
}

// Match runs the restricted deferred acceptance over in.
//
// A student only ever proposes to their first two choices, and a proposal
// only lands if the fellowship ranks the student first or second. A full
// roster admits a newcomer only by evicting a strictly worse-ranked holder.
// The result is deterministic for a given input and proposal order.
func Match(in Input, opts ...Option) Result {
	m := newMatcher(in)
	for _, opt := range opts {
		opt(m)
	}
	m.seed(in.Students)
	m.run()
	return m.result()
}

func newMatcher(in Input) *matcher {
	m := &matcher{
		prefs:    make(map[StudentID][]FellowshipID, len(in.Students)),
		cursor:   make(map[StudentID]int, len(in.Students)),
		rosters:  make(map[FellowshipID]*roster, len(in.Fellowships)),
		assigned: make(map[StudentID]FellowshipID),
		pool:     newPool(func(a, b StudentID) bool { return a < b }),
	}

	for _, s := range in.Students {
		m.prefs[s] = in.StudentPrefs[s]
	}

	for _, f := range in.Fellowships {
		ranked := in.FacultyPrefs[f.ID]
		idx := make(map[StudentID]int, len(ranked))
		// a student listed twice keeps the rank of the last entry
		for i, s := range ranked {
			idx[s] = i
		}
		m.rosters[f.ID] = &roster{capacity: f.Capacity, rank: idx}
	}
	return m
}

func (m *matcher) seed(students []StudentID) {
	seen := make(map[StudentID]struct{}, len(students))
	for _, s := range students {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		m.cursor[s] = 0
		m.pool.add(s)
	}
}

func (m *matcher) run() {
	for m.pool.Len() > 0 {
		s := m.pool.next()

		prefs := m.prefs[s]
		pos := m.cursor[s]
		if pos >= len(prefs) {
			continue
		}
		fid := prefs[pos]
		m.cursor[s] = pos + 1

		if pos >= MutualRankLimit {
			m.stats.Skipped++
			continue
		}
		m.stats.Proposals++
		m.propose(s, fid)
	}
}

func (m *matcher) propose(s StudentID, fid FellowshipID) {
	r := m.rosters[fid]
	rank := r.rankOf(s)
	if rank >= MutualRankLimit {
		m.reject(s)
		return
	}

	if !r.full() {
		r.holders = append(r.holders, s)
		m.assigned[s] = fid
		return
	}

	w := r.worst()
	if w < 0 || rank >= r.rankOf(r.holders[w]) {
		m.reject(s)
		return
	}

	evicted := r.remove(w)
	delete(m.assigned, evicted)
	r.holders = append(r.holders, s)
	m.assigned[s] = fid
	m.stats.Evictions++
	m.pool.add(evicted)
}

func (m *matcher) reject(s StudentID) {
	m.stats.Rejections++
	m.pool.add(s)
}

func (m *matcher) result() Result {
	out := Result{
		Rosters: make(map[FellowshipID][]StudentID),
		Stats:   m.stats,
	}
	for fid, r := range m.rosters {
		if len(r.holders) == 0 {
			continue
		}
		out.Rosters[fid] = append([]StudentID(nil), r.holders...)
	}
	return out
}
