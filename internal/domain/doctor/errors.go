package doctor

import "errors"

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrNegativeFee    = errors.New("fees cannot be negative")
)
