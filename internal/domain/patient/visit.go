package patient

type CreateVisitCommand struct {
	DoctorID  string
	PatientID string
	VisitType string
	Complaint string
	Diagnosis string
	// Drugs, when present, become the visit's first receipt.
	Drugs     []Drug
	DrugModel string
	Notes     string
}

// UpdateVisitCommand edits the free-text fields that are set and appends a
// receipt when Drugs is non-empty.
type UpdateVisitCommand struct {
	DoctorID  string
	PatientID string
	VisitID   string
	Complaint *string
	Diagnosis *string
	Drugs     []Drug
	Notes     string
}

// AddReceiptCommand targets VisitID, or the last visit in the list when empty.
type AddReceiptCommand struct {
	DoctorID  string
	PatientID string
	VisitID   string
	Drugs     []Drug
	Notes     string
	DrugModel string
}

type VisitHistoryQuery struct {
	DoctorID  string
	PatientID string
	Window    DateWindow
	Page      int
	PageSize  int
}

type VisitHistory struct {
	PatientID  string  `json:"patient_id"`
	Name       string  `json:"patient_name"`
	Phone      string  `json:"patient_phone"`
	Age        string  `json:"age"`
	Address    string  `json:"address"`
	Visits     []Visit `json:"visits"`
	TotalCount int     `json:"total_visits"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// ValidateDrugs reports ErrInvalidDrugs when any drug misses a field.
func ValidateDrugs(drugs []Drug) error {
	for _, d := range drugs {
		if !d.IsComplete() {
			return ErrInvalidDrugs
		}
	}
	return nil
}
