// Package store defines the data-access contract the matching engine
// consumes, plus helpers shared by every implementation.
package store

import (
	"context"

	"fellowmatch/domain/matching"
)

// Application is a student's application to a fellowship.
type Application struct {
	Student    matching.StudentID
	Fellowship matching.FellowshipID
}

// Source is the read side a matching run needs. Preference lists come back
// ordered best first; missing data is an empty list, not an error.
type Source interface {
	Students(ctx context.Context) ([]matching.StudentID, error)
	Fellowships(ctx context.Context) ([]matching.Fellowship, error)
	StudentPreferences(ctx context.Context, s matching.StudentID) ([]matching.FellowshipID, error)
	FacultyPreferences(ctx context.Context, f matching.FellowshipID) ([]matching.StudentID, error)
}

// Sink stores run results. ReplaceMatches must clear every previous match
// and write the new ones atomically.
type Sink interface {
	ReplaceMatches(ctx context.Context, rosters map[matching.FellowshipID][]matching.StudentID) error
	Matches(ctx context.Context) (map[matching.FellowshipID][]matching.StudentID, error)
}

// PreferenceWriter replaces a ranking wholesale; rank 1 is the first entry.
type PreferenceWriter interface {
	SaveStudentPreferences(ctx context.Context, s matching.StudentID, ranked []matching.FellowshipID) error
	SaveFacultyPreferences(ctx context.Context, f matching.FellowshipID, ranked []matching.StudentID) error
}

// Catalog holds the fellowships and the applications made to them.
// A zero capacity passed to PutFellowship means unspecified. Deleting
// something that is not there is not an error.
type Catalog interface {
	PutFellowship(ctx context.Context, f matching.Fellowship) error
	DeleteFellowship(ctx context.Context, id matching.FellowshipID) error
	PutApplication(ctx context.Context, a Application) error
	WithdrawApplication(ctx context.Context, a Application) error
	Applications(ctx context.Context) ([]Application, error)
}

type Store interface {
	Source
	Sink
	PreferenceWriter
	Catalog
	Close() error
}
