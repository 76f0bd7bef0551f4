package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"fellowmatch/domain/matching"
)

type Writer struct {
	Dir string
}

func fileName(seq uint64) string {
	return fmt.Sprintf("run-%020d.gob", seq)
}

func parseFileName(name string) (uint64, bool) {
	var seq uint64
	n, err := fmt.Sscanf(name, "run-%020d.gob", &seq)
	return seq, err == nil && n == 1
}

// Write stores in under seq. The file is written to a temp name and
// renamed so readers never see a partial snapshot.
func (w *Writer) Write(seq uint64, runID string, in matching.Input) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, fileName(seq))
	tmp, err := os.CreateTemp(w.Dir, "run-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	s := Snapshot{
		Seq:     seq,
		RunID:   runID,
		Created: time.Now(),
		Input:   in,
	}
	if err := gob.NewEncoder(tmp).Encode(&s); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "encode snapshot")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return path, os.Rename(tmp.Name(), path)
}
