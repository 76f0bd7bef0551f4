package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
)

func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	s := new(Snapshot)
	if err := gob.NewDecoder(f).Decode(s); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", path)
	}
	return s, nil
}

// Latest loads the snapshot with the highest sequence number in dir.
// It returns nil, nil when there is none yet.
func Latest(dir string) (*Snapshot, error) {
	files, err := filepath.Glob(filepath.Join(dir, "run-*.gob"))
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path string
		seq  uint64
	}
	var found []candidate
	for _, path := range files {
		if seq, ok := parseFileName(filepath.Base(path)); ok {
			found = append(found, candidate{path, seq})
		}
	}
	if len(found) == 0 {
		return nil, nil
	}

	sort.Slice(found, func(i, j int) bool { return found[i].seq > found[j].seq })
	return Load(found[0].path)
}
