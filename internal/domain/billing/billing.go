package billing

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusPartial   PaymentStatus = "partial"
	StatusCancelled PaymentStatus = "cancelled"
	StatusRefundDue PaymentStatus = "refund_due"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusPartial, StatusCancelled, StatusRefundDue:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash      PaymentMethod = "cash"
	MethodCard      PaymentMethod = "card"
	MethodInsurance PaymentMethod = "insurance"
	MethodOther     PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodInsurance, MethodOther:
		return true
	}
	return false
}

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

// DefaultConsultationType is the label stored when a billing names no type.
const DefaultConsultationType = "كشف"

type ServiceItem struct {
	ServiceID   string  `bson:"service_id" json:"service_id"`
	ServiceName string  `bson:"service_name" json:"service_name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
}

// Discount keeps the rule (Type, Value) next to the amount it produced so the
// amount can be recomputed when the subtotal moves.
type Discount struct {
	Type   DiscountType `bson:"type" json:"type"`
	Value  float64      `bson:"value" json:"value"`
	Amount float64      `bson:"amount" json:"amount"`
	Reason string       `bson:"reason" json:"reason"`
}

type Billing struct {
	ID bson.ObjectID `bson:"_id,omitempty" json:"-"`

	BillingID    string `bson:"billing_id" json:"billing_id"`
	DoctorID     string `bson:"doctor_id" json:"doctor_id"`
	PatientID    string `bson:"patient_id" json:"patient_id"`
	PatientName  string `bson:"patient_name" json:"patient_name"`
	PatientPhone string `bson:"patient_phone" json:"patient_phone"`
	VisitID      string `bson:"visit_id" json:"visit_id"`
	ClinicID     string `bson:"clinic_id" json:"clinic_id"`

	ConsultationFee  float64       `bson:"consultationFee" json:"consultationFee"`
	ConsultationType string        `bson:"consultationType" json:"consultationType"`
	Services         []ServiceItem `bson:"services" json:"services"`
	ServicesTotal    float64       `bson:"servicesTotal" json:"servicesTotal"`
	Subtotal         float64       `bson:"subtotal" json:"subtotal"`
	Discount         *Discount     `bson:"discount" json:"discount"`
	TotalAmount      float64       `bson:"totalAmount" json:"totalAmount"`

	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
	AmountPaid    float64       `bson:"amountPaid" json:"amountPaid"`

	Notes       string    `bson:"notes" json:"notes"`
	BillingDate time.Time `bson:"billingDate" json:"billingDate"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DiscountInput is the discount rule as supplied by a caller.
type DiscountInput struct {
	Type   DiscountType
	Value  float64
	Reason string
}

type CreateBillingCommand struct {
	BillingID        string
	DoctorID         string
	PatientID        string
	PatientName      string
	PatientPhone     string
	VisitID          string
	ClinicID         string
	ConsultationFee  float64
	ConsultationType string
	Services         []ServiceItem
	Discount         *DiscountInput
	PaymentStatus    PaymentStatus
	PaymentMethod    PaymentMethod
	// AmountPaid defaults to the computed total when nil.
	AmountPaid  *float64
	Notes       string
	BillingDate *time.Time
}

type RecordConsultationCommand struct {
	DoctorID         string
	PatientID        string
	PatientName      string
	PatientPhone     string
	ClinicID         string
	VisitID          string
	ConsultationType string
	ConsultationFee  float64
	PaymentMethod    PaymentMethod
}

// UpdateBillingCommand only touches the fields that are set. A non-nil
// Discount with a zero value clears the discount.
type UpdateBillingCommand struct {
	ConsultationFee  *float64
	ConsultationType *string
	Services         *[]ServiceItem
	Discount         *DiscountInput
	PaymentStatus    *PaymentStatus
	PaymentMethod    *PaymentMethod
	AmountPaid       *float64
	Notes            *string
}

type ListQuery struct {
	DoctorID      string
	PatientID     string
	PaymentStatus PaymentStatus
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

type PagedBillings struct {
	Billings   []*Billing
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
