package service

import "github.com/cockroachdb/errors"

var (
	// ErrRunInProgress is returned when a run is requested while another
	// one has not finished. Runs replace the whole result set, so they
	// never overlap.
	ErrRunInProgress = errors.New("matching run already in progress")

	// ErrEmptyRanking is returned for a faculty ranking with no students.
	ErrEmptyRanking = errors.New("ranking must name at least one candidate")

	ErrInvalidArgument = errors.New("invalid argument")
)
