package patient

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Status represents the queue state of a patient registration.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

const (
	UrgencyNormal = "normal"
	UrgencyUrgent = "urgent"
)

// DefaultVisitType is stored when a registration or visit carries no type.
const DefaultVisitType = "visit"

type Drug struct {
	Drug      string `bson:"drug" json:"drug"`
	Frequency string `bson:"frequency" json:"frequency"`
	Period    string `bson:"period" json:"period"`
	Timing    string `bson:"timing" json:"timing"`
}

func (d Drug) IsComplete() bool {
	return d.Drug != "" && d.Frequency != "" && d.Period != "" && d.Timing != ""
}

// Receipt is a prescription issued during a visit.
type Receipt struct {
	Drugs     []Drug    `bson:"drugs" json:"drugs"`
	Notes     string    `bson:"notes" json:"notes"`
	Date      time.Time `bson:"date" json:"date"`
	DrugModel string    `bson:"drugModel" json:"drugModel"`
}

type Visit struct {
	VisitID   string    `bson:"visit_id" json:"visit_id"`
	Date      VisitDate `bson:"date" json:"date"`
	Time      string    `bson:"time" json:"time"`
	VisitType string    `bson:"visit_type" json:"visit_type"`
	Complaint string    `bson:"complaint" json:"complaint"`
	Diagnosis string    `bson:"diagnosis" json:"diagnosis"`
	Receipts  []Receipt `bson:"receipts" json:"receipts"`
	BillingID string    `bson:"billing_id" json:"billing_id"`
}

// VisitTypeChange is an audit entry appended whenever a patient's visit type
// is changed after registration. Entries are never rewritten.
type VisitTypeChange struct {
	FromType    string    `bson:"from_type" json:"from_type"`
	ToType      string    `bson:"to_type" json:"to_type"`
	FromUrgency string    `bson:"from_urgency" json:"from_urgency"`
	ToUrgency   string    `bson:"to_urgency" json:"to_urgency"`
	OldPrice    float64   `bson:"old_price" json:"old_price"`
	NewPrice    float64   `bson:"new_price" json:"new_price"`
	ChangedBy   string    `bson:"changed_by" json:"changed_by"`
	ChangedAt   time.Time `bson:"changed_at" json:"changed_at"`
	Reason      string    `bson:"reason" json:"reason"`
}

// Patient is one registration of a person under one doctor. Several documents
// may share a phone number; Merge presents them as one logical patient.
type Patient struct {
	ID bson.ObjectID `bson:"_id,omitempty" json:"_id"`

	PatientID  string `bson:"patient_id" json:"patient_id"`
	Name       string `bson:"patient_name" json:"patient_name"`
	Phone      string `bson:"patient_phone" json:"patient_phone"`
	DoctorID   string `bson:"doctor_id" json:"doctor_id"`
	DoctorName string `bson:"doctor_name" json:"doctor_name"`
	ClinicID   string `bson:"clinic_id" json:"clinic_id"`

	// Date is the registration day (YYYY-MM-DD) and doubles as the recency marker.
	Date     string `bson:"date" json:"date"`
	Time     string `bson:"time" json:"time"`
	Status   Status `bson:"status" json:"status"`
	Position int    `bson:"position" json:"position"`
	FCMToken string `bson:"fcmToken" json:"fcmToken"`
	Token    string `bson:"token" json:"token"`
	Age      string `bson:"age" json:"age"`
	Address  string `bson:"address" json:"address"`

	VisitType    string `bson:"visit_type" json:"visit_type"`
	VisitUrgency string `bson:"visit_urgency" json:"visit_urgency"`

	Visits                 []Visit           `bson:"visits" json:"visits"`
	VisitTypeChangeHistory []VisitTypeChange `bson:"visit_type_change_history" json:"visit_type_change_history"`

	// Version is bumped on every Save; documents written before versioning read as 0.
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ApplyDefaults fills the optional fields that older write paths left out.
// Every read path goes through this so call sites never check for presence.
func (p *Patient) ApplyDefaults() {
	if p.Status == "" {
		p.Status = StatusWaiting
	}
	if p.VisitType == "" {
		p.VisitType = DefaultVisitType
	}
	if p.VisitUrgency == "" {
		p.VisitUrgency = UrgencyNormal
	}
	if p.Visits == nil {
		p.Visits = []Visit{}
	}
	if p.VisitTypeChangeHistory == nil {
		p.VisitTypeChangeHistory = []VisitTypeChange{}
	}
	for i := range p.Visits {
		if p.Visits[i].Receipts == nil {
			p.Visits[i].Receipts = []Receipt{}
		}
	}
}

// RecencyMarker is the registration date when it parses, else createdAt.
func (p *Patient) RecencyMarker() time.Time {
	if p.Date != "" {
		if t, ok := ParseVisitDate(p.Date).Time(); ok {
			return t
		}
	}
	return p.CreatedAt
}

// ReceiptCount counts prescriptions across all visits.
func (p *Patient) ReceiptCount() int {
	n := 0
	for _, v := range p.Visits {
		n += len(v.Receipts)
	}
	return n
}

// VisitIndex returns the position of the visit with the given id, or -1.
func (p *Patient) VisitIndex(visitID string) int {
	for i := range p.Visits {
		if p.Visits[i].VisitID == visitID {
			return i
		}
	}
	return -1
}

// Filter selects patient documents. Zero-valued fields are ignored.
type Filter struct {
	DoctorID  string
	PatientID string
	Phone     string
	Status    Status
	// Search matches name or phone, case-insensitive substring.
	Search string
}

type RegisterPatientCommand struct {
	PatientID    string
	Name         string
	Phone        string
	DoctorID     string
	DoctorName   string
	ClinicID     string
	Age          string
	Address      string
	FCMToken     string
	Token        string
	Position     int
	VisitType    string
	VisitUrgency string
	Complaint    string
	// RecordConsultation creates a paid consultation billing on arrival.
	RecordConsultation bool
	PaymentMethod      string
}

type ListPatientsQuery struct {
	DoctorID  string
	Search    string
	Status    Status
	Window    DateWindow
	Page      int
	PageSize  int
	SortBy    string // "date" | "name" | "visitCount"
	SortOrder string // "asc" | "desc"
}

type PagedLogicalPatients struct {
	Patients   []*LogicalPatient
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// DoctorRef identifies a doctor a patient has been registered with.
type DoctorRef struct {
	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
}

// ProfileVisit is a visit tagged with the doctor it was recorded under.
type ProfileVisit struct {
	Visit
	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
}

// Profile aggregates every registration of a person across doctors.
type Profile struct {
	PatientID     string         `json:"patient_id"`
	Name          string         `json:"patient_name"`
	Phone         string         `json:"patient_phone"`
	Age           string         `json:"age"`
	Address       string         `json:"address"`
	FCMToken      string         `json:"fcmToken"`
	Doctors       []DoctorRef    `json:"doctors"`
	Visits        []ProfileVisit `json:"visits"`
	TotalVisits   int            `json:"total_visits"`
	TotalReceipts int            `json:"total_receipts"`
	CreatedAt     time.Time      `json:"created_at"`
	LastVisitDate VisitDate      `json:"last_visit_date"`
}

type HistorySummary struct {
	// TotalRecords counts raw documents; TotalPatients counts merged patients.
	TotalRecords            int64          `json:"totalRecords"`
	TotalPatients           int            `json:"totalPatients"`
	TotalVisits             int            `json:"totalVisits"`
	TotalReceipts           int            `json:"totalReceipts"`
	AverageVisitsPerPatient float64        `json:"averageVisitsPerPatient"`
	VisitsByType            map[string]int `json:"visitsByType"`
	RecentVisits            []ProfileVisit `json:"recentVisits"`
}
