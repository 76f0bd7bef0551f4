// Package matching pairs students with fellowships.
//
// The algorithm is a restricted deferred acceptance: students propose to
// fellowships in preference order, faculty keep the best-ranked proposers
// up to capacity, and a proposal only counts when both sides rank each
// other within their first two choices. Everything here is pure and
// single-threaded; callers hand in a snapshot and get a Result back.
package matching
