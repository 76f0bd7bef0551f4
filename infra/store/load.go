package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"fellowmatch/domain/matching"
)

// Load reads everything a run needs from src, once.
func Load(ctx context.Context, src Source) (matching.Input, error) {
	students, err := src.Students(ctx)
	if err != nil {
		return matching.Input{}, errors.Wrap(err, "load students")
	}
	fellowships, err := src.Fellowships(ctx)
	if err != nil {
		return matching.Input{}, errors.Wrap(err, "load fellowships")
	}

	in := matching.Input{
		Students:     students,
		Fellowships:  fellowships,
		StudentPrefs: make(map[matching.StudentID][]matching.FellowshipID, len(students)),
		FacultyPrefs: make(map[matching.FellowshipID][]matching.StudentID, len(fellowships)),
	}

	for _, s := range students {
		prefs, err := src.StudentPreferences(ctx, s)
		if err != nil {
			return matching.Input{}, errors.Wrapf(err, "load preferences of student %s", s)
		}
		if len(prefs) > 0 {
			in.StudentPrefs[s] = prefs
		}
	}
	for _, f := range fellowships {
		prefs, err := src.FacultyPreferences(ctx, f.ID)
		if err != nil {
			return matching.Input{}, errors.Wrapf(err, "load preferences of fellowship %s", f.ID)
		}
		if len(prefs) > 0 {
			in.FacultyPrefs[f.ID] = prefs
		}
	}
	return in, nil
}

// Copy moves the catalog and both sides' preferences from src into dst.
// Matches are not copied; they belong to whoever runs the matcher.
func Copy(ctx context.Context, dst, src Store) (CopyStats, error) {
	var st CopyStats

	fellowships, err := src.Fellowships(ctx)
	if err != nil {
		return st, errors.Wrap(err, "read fellowships")
	}
	for _, f := range fellowships {
		if err := dst.PutFellowship(ctx, f); err != nil {
			return st, errors.Wrapf(err, "write fellowship %s", f.ID)
		}
		prefs, err := src.FacultyPreferences(ctx, f.ID)
		if err != nil {
			return st, errors.Wrapf(err, "read preferences of fellowship %s", f.ID)
		}
		if len(prefs) > 0 {
			if err := dst.SaveFacultyPreferences(ctx, f.ID, prefs); err != nil {
				return st, errors.Wrapf(err, "write preferences of fellowship %s", f.ID)
			}
		}
		st.Fellowships++
	}

	apps, err := src.Applications(ctx)
	if err != nil {
		return st, errors.Wrap(err, "read applications")
	}
	for _, a := range apps {
		if err := dst.PutApplication(ctx, a); err != nil {
			return st, errors.Wrapf(err, "write application %s/%s", a.Student, a.Fellowship)
		}
		st.Applications++
	}

	students, err := src.Students(ctx)
	if err != nil {
		return st, errors.Wrap(err, "read students")
	}
	for _, s := range students {
		prefs, err := src.StudentPreferences(ctx, s)
		if err != nil {
			return st, errors.Wrapf(err, "read preferences of student %s", s)
		}
		if len(prefs) > 0 {
			if err := dst.SaveStudentPreferences(ctx, s, prefs); err != nil {
				return st, errors.Wrapf(err, "write preferences of student %s", s)
			}
		}
		st.Students++
	}
	return st, nil
}

// CopyStats counts what Copy wrote.
type CopyStats struct {
	Fellowships  int
	Applications int
	Students     int
}
