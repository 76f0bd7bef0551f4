package service

import (
	"time"

	"fellowmatch/domain/matching"
)

const EventMatchingCompleted = "matching.completed"

// CompletedEvent is published once per run through the outbox.
type CompletedEvent struct {
	V       int             `json:"v"`
	Type    string          `json:"type"`
	RunID   string          `json:"run_id"`
	Seq     uint64          `json:"seq"`
	Matched int             `json:"matched"`
	Matches []matching.Pair `json:"matches"`
	At      time.Time       `json:"at"`
}

func newCompletedEvent(r Run) CompletedEvent {
	return CompletedEvent{
		V:       1,
		Type:    EventMatchingCompleted,
		RunID:   r.ID.String(),
		Seq:     r.Seq,
		Matched: r.Result.Matched(),
		Matches: r.Result.Pairs(),
		At:      r.StartedAt.UTC(),
	}
}
