package enrollmentdb

import "errors"

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrTutorNotFound   = errors.New("tutor not found")
	ErrTeamNotFound    = errors.New("team not found")

	// ErrDuplicateKey reports that an insert lost a unique-constraint race
	// against a concurrent unit. The insert uses ON CONFLICT DO NOTHING, so
	// the surrounding transaction stays usable and the caller can re-fetch
	// the winning row.
	ErrDuplicateKey = errors.New("duplicate key")
)
