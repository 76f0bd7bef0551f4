// Package outbox persists events that still have to reach the broker.
// The service writes NEW records in the same step that completes a run;
// the broadcaster walks them through SENT to ACKED (or FAILED and back).
package outbox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var ErrNotFound = errors.New("outbox: record not found")

// -------------------- Record --------------------

type Record struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const recordHeader = 1 + 4 + 8

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r Record) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (Record, error) {
	if len(b) < recordHeader {
		return Record{}, errors.Newf("outbox record %d: invalid length %d", seq, len(b))
	}
	return Record{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     bytes.Clone(b[recordHeader:]),
	}, nil
}

// -------------------- Outbox --------------------

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open outbox at %s", dir)
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// PutNew stores an event under its sequence number.
func (o *Outbox) PutNew(seq uint64, payload []byte) error {
	rec := Record{Seq: seq, State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return Record{}, errors.Wrapf(ErrNotFound, "seq %d", seq)
	}
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

func (o *Outbox) MarkSent(seq uint64) error {
	return o.update(seq, func(r *Record) {
		r.State = StateSent
		r.LastAttempt = time.Now().UnixNano()
	})
}

func (o *Outbox) MarkAcked(seq uint64) error {
	return o.update(seq, func(r *Record) {
		r.State = StateAcked
	})
}

// MarkFailed records a failed delivery and counts the retry.
func (o *Outbox) MarkFailed(seq uint64) error {
	return o.update(seq, func(r *Record) {
		r.State = StateFailed
		r.Retries++
		r.LastAttempt = time.Now().UnixNano()
	})
}

func (o *Outbox) update(seq uint64, fn func(*Record)) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	fn(&rec)
	return o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// -------------------- Scan --------------------

// ScanPending visits records that still need delivery, oldest first:
// NEW, SENT without an ack, and FAILED with fewer than maxRetries retries
// (maxRetries <= 0 retries forever).
func (o *Outbox) ScanPending(maxRetries uint32, fn func(Record) error) error {
	return o.scan(func(rec Record) error {
		switch rec.State {
		case StateAcked:
			return nil
		case StateFailed:
			if maxRetries > 0 && rec.Retries >= maxRetries {
				return nil
			}
		}
		return fn(rec)
	})
}

// DeleteAcked removes delivered records and reports how many went.
func (o *Outbox) DeleteAcked() (int, error) {
	var seqs []uint64
	if err := o.scan(func(rec Record) error {
		if rec.State == StateAcked {
			seqs = append(seqs, rec.Seq)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	if len(seqs) == 0 {
		return 0, nil
	}

	b := o.db.NewBatch()
	defer b.Close()
	for _, seq := range seqs {
		if err := b.Delete(keyFor(seq), nil); err != nil {
			return 0, err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return len(seqs), nil
}

// Counts tallies records by state.
func (o *Outbox) Counts() (map[State]int, error) {
	out := make(map[State]int)
	err := o.scan(func(rec Record) error {
		out[rec.State]++
		return nil
	})
	return out, err
}

func (o *Outbox) scan(fn func(Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyUpper),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Helpers --------------------

const (
	keyPrefix = "event/"
	keyUpper  = "event/~"
)

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(keyPrefix))), "%d", &seq)
	return seq, err
}
