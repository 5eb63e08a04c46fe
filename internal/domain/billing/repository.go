package billing

import "context"

type Repository interface {
	Insert(ctx context.Context, b *Billing) error
	// Save replaces the stored document with the same billing_id.
	Save(ctx context.Context, b *Billing) error
	FindOne(ctx context.Context, doctorID, billingID string) (*Billing, error)
	FindByVisit(ctx context.Context, visitID string) (*Billing, error)

	// FindMostRecent returns the newest billing by createdAt for the patient
	// under the doctor, skipping bills whose consultation type is one of
	// excludeTypes (see IsServiceAddOn). Returns ErrBillingNotFound when none qualifies.
	FindMostRecent(ctx context.Context, doctorID, patientID string, excludeTypes []string) (*Billing, error)

	List(ctx context.Context, q *ListQuery) (*PagedBillings, error)
}
