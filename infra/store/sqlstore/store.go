// Package sqlstore reads and writes matching data in the portal's SQLite
// database.
package sqlstore

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"fellowmatch/domain/matching"
	"fellowmatch/infra/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and makes sure the tables
// the matcher needs exist. Fellowship IDs are integers in the portal schema;
// they are read back as their decimal text.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// one writer at a time; SQLite serializes them anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "initialize schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// -------------------- Catalog --------------------

func (s *Store) PutFellowship(ctx context.Context, f matching.Fellowship) error {
	var capacity sql.NullInt64
	if f.Capacity != 0 {
		capacity = sql.NullInt64{Int64: int64(f.Capacity), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fellowships (fellowship_id, capacity) VALUES (?, ?)
		ON CONFLICT(fellowship_id) DO UPDATE SET capacity = excluded.capacity
	`, string(f.ID), capacity)
	return errors.Wrapf(err, "put fellowship %s", f.ID)
}

func (s *Store) DeleteFellowship(ctx context.Context, id matching.FellowshipID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fellowships WHERE fellowship_id = ?`, string(id))
	return errors.Wrapf(err, "delete fellowship %s", id)
}

func (s *Store) PutApplication(ctx context.Context, a store.Application) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (student_net_id, fellowship_id)
		SELECT ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM applications WHERE student_net_id = ? AND fellowship_id = ?
		)
	`, string(a.Student), string(a.Fellowship), string(a.Student), string(a.Fellowship))
	return errors.Wrapf(err, "put application %s/%s", a.Student, a.Fellowship)
}

func (s *Store) WithdrawApplication(ctx context.Context, a store.Application) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM applications WHERE student_net_id = ? AND fellowship_id = ?
	`, string(a.Student), string(a.Fellowship))
	return errors.Wrapf(err, "withdraw application %s/%s", a.Student, a.Fellowship)
}

func (s *Store) Applications(ctx context.Context) ([]store.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_net_id, CAST(fellowship_id AS TEXT) FROM applications
		ORDER BY student_net_id, fellowship_id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query applications")
	}
	defer rows.Close()

	var out []store.Application
	for rows.Next() {
		var a store.Application
		if err := rows.Scan(&a.Student, &a.Fellowship); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// -------------------- Source --------------------

func (s *Store) Students(ctx context.Context) ([]matching.StudentID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT student_net_id FROM applications ORDER BY student_net_id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query students")
	}
	defer rows.Close()

	var out []matching.StudentID
	for rows.Next() {
		var id matching.StudentID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) Fellowships(ctx context.Context) ([]matching.Fellowship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(fellowship_id AS TEXT), COALESCE(capacity, 1) FROM fellowships ORDER BY fellowship_id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query fellowships")
	}
	defer rows.Close()

	var out []matching.Fellowship
	for rows.Next() {
		var f matching.Fellowship
		if err := rows.Scan(&f.ID, &f.Capacity); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) StudentPreferences(ctx context.Context, id matching.StudentID) ([]matching.FellowshipID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(fellowship_id AS TEXT) FROM student_preferences
		WHERE student_net_id = ?
		ORDER BY preference_rank ASC
	`, string(id))
	if err != nil {
		return nil, errors.Wrapf(err, "query preferences of student %s", id)
	}
	defer rows.Close()

	var out []matching.FellowshipID
	for rows.Next() {
		var fid matching.FellowshipID
		if err := rows.Scan(&fid); err != nil {
			return nil, err
		}
		out = append(out, fid)
	}
	return out, rows.Err()
}

func (s *Store) FacultyPreferences(ctx context.Context, id matching.FellowshipID) ([]matching.StudentID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_net_id FROM faculty_preferences
		WHERE fellowship_id = ?
		ORDER BY preference_rank ASC
	`, string(id))
	if err != nil {
		return nil, errors.Wrapf(err, "query preferences of fellowship %s", id)
	}
	defer rows.Close()

	var out []matching.StudentID
	for rows.Next() {
		var sid matching.StudentID
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		out = append(out, sid)
	}
	return out, rows.Err()
}

// -------------------- Preferences --------------------

func (s *Store) SaveStudentPreferences(ctx context.Context, id matching.StudentID, ranked []matching.FellowshipID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM student_preferences WHERE student_net_id = ?`, string(id)); err != nil {
			return err
		}
		for i, fid := range ranked {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO student_preferences (student_net_id, fellowship_id, preference_rank)
				VALUES (?, ?, ?)
			`, string(id), string(fid), i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SaveFacultyPreferences(ctx context.Context, id matching.FellowshipID, ranked []matching.StudentID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM faculty_preferences WHERE fellowship_id = ?`, string(id)); err != nil {
			return err
		}
		for i, sid := range ranked {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO faculty_preferences (fellowship_id, student_net_id, preference_rank)
				VALUES (?, ?, ?)
			`, string(id), string(sid), i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

// -------------------- Matches --------------------

func (s *Store) ReplaceMatches(ctx context.Context, rosters map[matching.FellowshipID][]matching.StudentID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches`); err != nil {
			return err
		}
		for fid, students := range rosters {
			for _, sid := range students {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO matches (fellowship_id, student_net_id) VALUES (?, ?)
				`, string(fid), string(sid)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) Matches(ctx context.Context) (map[matching.FellowshipID][]matching.StudentID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(fellowship_id AS TEXT), student_net_id FROM matches
		ORDER BY fellowship_id, rowid
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query matches")
	}
	defer rows.Close()

	out := make(map[matching.FellowshipID][]matching.StudentID)
	for rows.Next() {
		var (
			fid matching.FellowshipID
			sid matching.StudentID
		)
		if err := rows.Scan(&fid, &sid); err != nil {
			return nil, err
		}
		out[fid] = append(out[fid], sid)
	}
	return out, rows.Err()
}

// -------------------- Helpers --------------------

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}
