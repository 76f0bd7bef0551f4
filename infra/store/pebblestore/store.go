// Package pebblestore keeps the matching data in a local pebble database.
package pebblestore

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"fellowmatch/domain/matching"
	"fellowmatch/infra/store"
)

type Store struct {
	db *pebble.DB
}

var _ store.Store = (*Store)(nil)

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble store at %s", dir)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// -------------------- Catalog --------------------

func (s *Store) PutFellowship(ctx context.Context, f matching.Fellowship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Set(fellowshipKey(string(f.ID)), encodeCapacity(f.Capacity), pebble.Sync)
}

func (s *Store) DeleteFellowship(ctx context.Context, id matching.FellowshipID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Delete(fellowshipKey(string(id)), pebble.Sync)
}

func (s *Store) PutApplication(ctx context.Context, a store.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Set(applicationKey(string(a.Student), string(a.Fellowship)), nil, pebble.Sync)
}

func (s *Store) WithdrawApplication(ctx context.Context, a store.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Delete(applicationKey(string(a.Student), string(a.Fellowship)), pebble.Sync)
}

func (s *Store) Applications(ctx context.Context) ([]store.Application, error) {
	var out []store.Application
	err := s.scan(ctx, []byte(prefixApplication), func(key, _ []byte) error {
		student, fid, err := splitPair(key, prefixApplication)
		if err != nil {
			return err
		}
		out = append(out, store.Application{
			Student:    matching.StudentID(student),
			Fellowship: matching.FellowshipID(fid),
		})
		return nil
	})
	return out, err
}

// -------------------- Source --------------------

// Students returns every student with at least one application, ascending.
func (s *Store) Students(ctx context.Context) ([]matching.StudentID, error) {
	var out []matching.StudentID
	err := s.scan(ctx, []byte(prefixApplication), func(key, _ []byte) error {
		student, _, err := splitPair(key, prefixApplication)
		if err != nil {
			return err
		}
		if n := len(out); n == 0 || out[n-1] != matching.StudentID(student) {
			out = append(out, matching.StudentID(student))
		}
		return nil
	})
	return out, err
}

func (s *Store) Fellowships(ctx context.Context) ([]matching.Fellowship, error) {
	var out []matching.Fellowship
	err := s.scan(ctx, []byte(prefixFellowship), func(key, val []byte) error {
		capacity, err := decodeCapacity(val)
		if err != nil {
			return errors.Wrapf(err, "fellowship %q", key)
		}
		out = append(out, matching.Fellowship{
			ID:       matching.FellowshipID(key[len(prefixFellowship):]),
			Capacity: capacity,
		})
		return nil
	})
	return out, err
}

func (s *Store) StudentPreferences(ctx context.Context, id matching.StudentID) ([]matching.FellowshipID, error) {
	var out []matching.FellowshipID
	err := s.scan(ctx, ownerPrefix(prefixStudentPref, string(id)), func(_, val []byte) error {
		out = append(out, matching.FellowshipID(val))
		return nil
	})
	return out, err
}

func (s *Store) FacultyPreferences(ctx context.Context, id matching.FellowshipID) ([]matching.StudentID, error) {
	var out []matching.StudentID
	err := s.scan(ctx, ownerPrefix(prefixFacultyPref, string(id)), func(_, val []byte) error {
		out = append(out, matching.StudentID(val))
		return nil
	})
	return out, err
}

// -------------------- Preferences --------------------

func (s *Store) SaveStudentPreferences(ctx context.Context, id matching.StudentID, ranked []matching.FellowshipID) error {
	vals := make([]string, len(ranked))
	for i, f := range ranked {
		vals[i] = string(f)
	}
	return s.replaceRanked(ctx, prefixStudentPref, string(id), vals)
}

func (s *Store) SaveFacultyPreferences(ctx context.Context, id matching.FellowshipID, ranked []matching.StudentID) error {
	vals := make([]string, len(ranked))
	for i, st := range ranked {
		vals[i] = string(st)
	}
	return s.replaceRanked(ctx, prefixFacultyPref, string(id), vals)
}

// replaceRanked drops an owner's list and writes the new one in one batch.
func (s *Store) replaceRanked(ctx context.Context, prefix, owner string, vals []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := ownerPrefix(prefix, owner)

	b := s.db.NewBatch()
	defer b.Close()

	if err := b.DeleteRange(start, prefixEnd(start), nil); err != nil {
		return err
	}
	for i, v := range vals {
		if err := b.Set(rankedKey(prefix, owner, i+1), []byte(v), nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// -------------------- Matches --------------------

func (s *Store) ReplaceMatches(ctx context.Context, rosters map[matching.FellowshipID][]matching.StudentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := []byte(prefixMatch)

	b := s.db.NewBatch()
	defer b.Close()

	if err := b.DeleteRange(start, prefixEnd(start), nil); err != nil {
		return err
	}
	for fid, students := range rosters {
		for i, st := range students {
			if err := b.Set(rankedKey(prefixMatch, string(fid), i), []byte(st), nil); err != nil {
				return err
			}
		}
	}
	return errors.Wrap(b.Commit(pebble.Sync), "commit matches")
}

func (s *Store) Matches(ctx context.Context) (map[matching.FellowshipID][]matching.StudentID, error) {
	out := make(map[matching.FellowshipID][]matching.StudentID)
	err := s.scan(ctx, []byte(prefixMatch), func(key, val []byte) error {
		fid, pos, err := splitPair(key, prefixMatch)
		if err != nil {
			return err
		}
		if _, err := parsePos(pos); err != nil {
			return err
		}
		out[matching.FellowshipID(fid)] = append(out[matching.FellowshipID(fid)], matching.StudentID(val))
		return nil
	})
	return out, err
}

// -------------------- Helpers --------------------

// scan visits every key under prefix in key order. key and val are only
// valid during the callback.
func (s *Store) scan(ctx context.Context, prefix []byte, fn func(key, val []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func encodeCapacity(c int) []byte {
	if c == 0 {
		return nil
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(int64(c)))
	return buf
}

func decodeCapacity(b []byte) (int, error) {
	switch len(b) {
	case 0:
		return matching.DefaultCapacity, nil
	case 8:
		return int(int64(binary.BigEndian.Uint64(b))), nil
	default:
		return 0, errors.Newf("invalid capacity length %d", len(b))
	}
}
