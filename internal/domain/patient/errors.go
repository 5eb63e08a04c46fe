package patient

import "errors"

var (
	ErrPatientNotFound        = errors.New("patient not found")
	ErrVisitNotFound          = errors.New("visit not found")
	ErrNoVisits               = errors.New("patient has no visits")
	ErrInvalidDrugs           = errors.New("invalid drug structure: drug, frequency, period and timing are required")
	ErrInvalidDateWindow      = errors.New("invalid date: expected YYYY-MM-DD")
	ErrConcurrentModification = errors.New("patient record was modified concurrently")
)
