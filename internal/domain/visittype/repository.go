package visittype

import "context"

type Repository interface {
	// FindByDoctor returns ErrConfigurationNotFound when the doctor never saved one.
	FindByDoctor(ctx context.Context, doctorID string) (*Configuration, error)
	// Upsert replaces the doctor's configuration, keeping createdAt of an existing one.
	Upsert(ctx context.Context, c *Configuration) error
}
