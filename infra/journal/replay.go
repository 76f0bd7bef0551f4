package journal

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

type ReplayHandler func(*Record) error

// Replay feeds every record in dir to fn in order and returns the last
// sequence number seen. A torn frame at the very end of the newest segment
// (a crash mid-append) ends the replay without error.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := segments(dir)
	if err != nil {
		return 0, err
	}

	for i, path := range files {
		last := i == len(files)-1
		lastSeq, err = replaySegment(path, last, lastSeq, fn)
		if err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, newest bool, lastSeq uint64, fn ReplayHandler) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return lastSeq, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, err := readFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lastSeq, nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) && newest {
				return lastSeq, nil
			}
			return lastSeq, errors.Wrapf(err, "read %s", path)
		}

		if rec.Seq <= lastSeq {
			return lastSeq, errors.Wrapf(ErrCorrupt, "non-monotonic seq %d after %d in %s", rec.Seq, lastSeq, path)
		}
		lastSeq = rec.Seq

		if err := fn(rec); err != nil {
			return lastSeq, err
		}
	}
}
