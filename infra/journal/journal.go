// Package journal is an append-only, segmented log of every command the
// engine accepted and every matching run it completed.
//
// Frame layout, big endian:
//
//	[type:1][seq:8][time:8][len:4][payload][crc32:4]
//
// The CRC covers header and payload.
package journal

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrCorrupt is returned by Replay for a frame that fails its checksum or
// breaks sequence order.
var ErrCorrupt = errors.New("journal: corrupt record")

type Config struct {
	Dir         string
	SegmentSize int64
	// SyncEveryAppend fsyncs after each record.
	SyncEveryAppend bool
}

type Journal struct {
	mu       sync.Mutex
	dir      string
	segSize  int64
	syncEach bool
	current  *segment
	segIndex int
}

// Open continues the newest segment in cfg.Dir, creating the directory and
// the first segment when needed.
func Open(cfg Config) (*Journal, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create journal dir")
	}

	files, err := segments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	idx := 0
	if n := len(files); n > 0 {
		if idx, err = segmentIndex(files[n-1]); err != nil {
			return nil, errors.Wrapf(err, "parse segment name %s", files[n-1])
		}
	}

	seg, err := openSegment(cfg.Dir, idx)
	if err != nil {
		return nil, errors.Wrap(err, "open segment")
	}

	return &Journal{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		syncEach: cfg.SyncEveryAppend,
		current:  seg,
		segIndex: idx,
	}, nil
}

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) Append(r *Record) error {
	buf := encodeFrame(r)

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.current.append(buf); err != nil {
		return errors.Wrap(err, "append record")
	}
	if j.syncEach {
		if err := j.current.sync(); err != nil {
			return errors.Wrap(err, "sync segment")
		}
	}
	if j.segSize > 0 && j.current.offset >= j.segSize {
		return j.rotate()
	}
	return nil
}

func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current.sync()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.current.sync(); err != nil {
		_ = j.current.close()
		return err
	}
	return j.current.close()
}

func (j *Journal) rotate() error {
	if err := j.current.sync(); err != nil {
		return err
	}
	_ = j.current.close()
	j.segIndex++

	seg, err := openSegment(j.dir, j.segIndex)
	if err != nil {
		return errors.Wrap(err, "rotate segment")
	}
	j.current = seg
	return nil
}

// TruncateBefore removes closed segments whose records all have a sequence
// number at or below seq. The segment being written is never removed.
func (j *Journal) TruncateBefore(seq uint64) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	files, err := segments(j.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range files {
		idx, err := segmentIndex(path)
		if err != nil || idx == j.segIndex {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			if err := os.Remove(path); err != nil {
				return removed, errors.Wrapf(err, "remove %s", path)
			}
			removed++
		}
	}
	return removed, nil
}
