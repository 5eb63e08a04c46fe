package visittype

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const UrgencyUrgent = "urgent"

type Type struct {
	TypeID      string  `bson:"type_id" json:"type_id"`
	Name        string  `bson:"name" json:"name"`
	NameAr      string  `bson:"name_ar" json:"name_ar"`
	NormalPrice float64 `bson:"normal_price" json:"normal_price"`
	UrgentPrice float64 `bson:"urgent_price" json:"urgent_price"`
	IsActive    bool    `bson:"is_active" json:"is_active"`
	Order       int     `bson:"order" json:"order"`
}

// Price picks the urgent price for "urgent" and the normal price otherwise.
func (t Type) Price(urgency string) float64 {
	if urgency == UrgencyUrgent {
		return t.UrgentPrice
	}
	return t.NormalPrice
}

// Configuration is a doctor's advanced visit type table.
type Configuration struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"-"`
	DoctorID    string        `bson:"doctor_id" json:"doctor_id"`
	ClinicID    string        `bson:"clinic_id" json:"clinic_id"`
	VisitTypes  []Type        `bson:"visit_types" json:"visit_types"`
	DefaultType string        `bson:"default_type" json:"default_type"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Find returns the first entry whose type_id, name or name_ar equals
// visitType exactly. Inactive entries still match.
func (c *Configuration) Find(visitType string) (Type, bool) {
	if c == nil {
		return Type{}, false
	}
	for _, t := range c.VisitTypes {
		if t.TypeID == visitType || t.Name == visitType || t.NameAr == visitType {
			return t, true
		}
	}
	return Type{}, false
}

// DefaultTypes is the table a doctor without a stored configuration sees.
func DefaultTypes() []Type {
	return []Type{
		{TypeID: "visit", Name: "Visit", NameAr: "كشف", NormalPrice: 500, UrgentPrice: 700, IsActive: true, Order: 1},
		{TypeID: "revisit", Name: "Re-visit", NameAr: "إعادة", NormalPrice: 200, UrgentPrice: 300, IsActive: true, Order: 2},
		{TypeID: "other", Name: "Other", NameAr: "أخرى", IsActive: true, Order: 3},
	}
}

func DefaultConfiguration(doctorID string) *Configuration {
	return &Configuration{
		DoctorID:    doctorID,
		VisitTypes:  DefaultTypes(),
		DefaultType: "visit",
	}
}

type SaveConfigurationCommand struct {
	DoctorID    string
	ClinicID    string
	VisitTypes  []Type
	DefaultType string
}

// Check enforces unique type ids, non-negative prices and a default type
// that names one of the entries.
func (c *SaveConfigurationCommand) Check() error {
	seen := make(map[string]struct{}, len(c.VisitTypes))
	for _, t := range c.VisitTypes {
		if _, dup := seen[t.TypeID]; dup {
			return ErrDuplicateTypeID
		}
		seen[t.TypeID] = struct{}{}
		if t.NormalPrice < 0 || t.UrgentPrice < 0 {
			return ErrNegativePrice
		}
	}
	if c.DefaultType != "" {
		if _, ok := seen[c.DefaultType]; !ok {
			return ErrUnknownDefaultType
		}
	}
	return nil
}

type PriceQuery struct {
	DoctorID  string
	VisitType string
	Urgency   string
}

// ChangeVisitTypeCommand re-types a registered patient. Urgency defaults to
// the patient's current urgency.
type ChangeVisitTypeCommand struct {
	DoctorID  string
	PatientID string
	VisitType string
	Urgency   string
	Reason    string
}
