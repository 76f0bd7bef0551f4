package service

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"fellowmatch/infra/journal"
	"fellowmatch/infra/sequence"
)

// Entry is a decoded journal record.
type Entry struct {
	Seq    uint64
	Type   journal.RecordType
	Time   time.Time
	Fields map[string]any
}

// ReplayJournal walks the journal in dir, hands each decoded entry to fn
// (which may be nil) and moves seq past the last sequence number found.
// It must run before the service accepts commands.
func ReplayJournal(dir string, seq *sequence.Sequencer, log *zap.Logger, fn func(Entry) error) (uint64, error) {
	count := 0
	last, err := journal.Replay(dir, func(r *journal.Record) error {
		count++
		if fn == nil {
			return nil
		}
		fields, err := journal.DecodePayload(r.Data)
		if err != nil {
			return errors.Wrapf(err, "record %d", r.Seq)
		}
		return fn(Entry{
			Seq:    r.Seq,
			Type:   r.Type,
			Time:   time.Unix(0, r.Time),
			Fields: fields,
		})
	})
	if err != nil {
		return last, errors.Wrap(err, "replay journal")
	}

	if seq != nil {
		seq.Observe(last)
	}
	log.Info("journal replayed", zap.String("dir", dir), zap.Int("records", count), zap.Uint64("last_seq", last))
	return last, nil
}

// History returns every journaled entry in order.
func History(dir string) ([]Entry, error) {
	var out []Entry
	_, err := ReplayJournal(dir, nil, zap.NewNop(), func(e Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}
