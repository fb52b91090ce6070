package msgvault

import "errors"

var (
	// ErrEmptyIndex is returned when search runs against zero indexed messages.
	ErrEmptyIndex = errors.New("index holds no vectors")

	// ErrNoRecords is returned when a build is attempted with nothing to index.
	ErrNoRecords = errors.New("no records to index")
)
