package doctor

import "context"

type Repository interface {
	// FindByDoctorID returns ErrDoctorNotFound when the doctor has no document.
	FindByDoctorID(ctx context.Context, doctorID string) (*Doctor, error)
	Upsert(ctx context.Context, d *Doctor) error
}
