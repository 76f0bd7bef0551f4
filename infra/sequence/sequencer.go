// Package sequence hands out the journal's sequence numbers.
package sequence

import "sync/atomic"

// Sequencer issues strictly increasing numbers shared by journal records,
// matching runs and outbox events.
type Sequencer struct {
	last atomic.Uint64
}

// New starts after last: 0 on a fresh journal, the last replayed
// sequence number after recovery.
func New(last uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(last)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued number.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Observe moves the sequencer forward to v if it is behind. Numbers are
// never handed out twice, so it never moves backwards.
func (s *Sequencer) Observe(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
