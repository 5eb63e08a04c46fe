package patient

import (
	"context"
)

type Repository interface {
	// Find returns every document matching f, oldest first.
	Find(ctx context.Context, f Filter) ([]*Patient, error)

	// FindOne returns the first document matching f. Returns ErrPatientNotFound if none.
	FindOne(ctx context.Context, f Filter) (*Patient, error)

	// Insert persists a new document and sets its ID.
	Insert(ctx context.Context, p *Patient) error

	// Save replaces a previously loaded document. Returns ErrConcurrentModification
	// if the stored version moved since p was read.
	Save(ctx context.Context, p *Patient) error

	// Count returns the number of documents matching f.
	Count(ctx context.Context, f Filter) (int64, error)
}
