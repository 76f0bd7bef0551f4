package snapshot

import (
	"time"

	"fellowmatch/domain/matching"
)

type Snapshot struct {
	Seq     uint64
	RunID   string
	Created time.Time
	Input   matching.Input
}
