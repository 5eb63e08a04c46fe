package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
)

type registerPatientRequest struct {
	PatientID          string `json:"patient_id"`
	Name               string `json:"patient_name"`
	Phone              string `json:"patient_phone"`
	DoctorName         string `json:"doctor_name"`
	ClinicID           string `json:"clinic_id"`
	Age                string `json:"age"`
	Address            string `json:"address"`
	FCMToken           string `json:"fcmToken"`
	Token              string `json:"token"`
	Position           int    `json:"position"`
	VisitType          string `json:"visit_type"`
	VisitUrgency       string `json:"visit_urgency"`
	Complaint          string `json:"complaint"`
	RecordConsultation bool   `json:"record_consultation"`
	PaymentMethod      string `json:"payment_method"`
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cl := caller(c)
	res, err := h.svc.Patients.RegisterPatient(c.Request.Context(), cl, &patient.RegisterPatientCommand{
		PatientID:          req.PatientID,
		Name:               req.Name,
		Phone:              req.Phone,
		DoctorID:           c.Param("doctor_id"),
		DoctorName:         req.DoctorName,
		ClinicID:           req.ClinicID,
		Age:                req.Age,
		Address:            req.Address,
		FCMToken:           req.FCMToken,
		Token:              req.Token,
		Position:           req.Position,
		VisitType:          req.VisitType,
		VisitUrgency:       req.VisitUrgency,
		Complaint:          req.Complaint,
		RecordConsultation: req.RecordConsultation,
		PaymentMethod:      req.PaymentMethod,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := gin.H{
		"patient": res.Patient,
		"visit":   res.Visit,
		"created": res.Created,
	}
	if res.Billing != nil {
		body["billing"] = res.Billing
	}
	if res.Created {
		respondCreated(c, body)
		return
	}
	respondOK(c, body)
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.svc.Patients.GetPatient(c.Request.Context(), caller(c), c.Param("doctor_id"), c.Param("patient_id"), "")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

// LookupPatient finds a registration by patient_id or phone query values.
func (h *Handler) LookupPatient(c *gin.Context) {
	p, err := h.svc.Patients.GetPatient(c.Request.Context(), caller(c), c.Param("doctor_id"), c.Query("patient_id"), c.Query("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *Handler) ListPatients(c *gin.Context) {
	w, ok := dateWindow(c)
	if !ok {
		return
	}

	page, err := h.svc.Patients.ListPatients(c.Request.Context(), caller(c), &patient.ListPatientsQuery{
		DoctorID:  c.Param("doctor_id"),
		Search:    c.Query("search"),
		Status:    patient.Status(c.Query("status")),
		Window:    w,
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
		SortBy:    c.DefaultQuery("sort_by", "date"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, PagedResponse[*patient.LogicalPatient]{
		Data:       page.Patients,
		TotalCount: int64(page.TotalCount),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

// GetPatientProfile aggregates a person across every doctor they were
// registered with.
func (h *Handler) GetPatientProfile(c *gin.Context) {
	profile, err := h.svc.Patients.GetPatientProfile(c.Request.Context(), caller(c), c.Query("patient_id"), c.Query("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

func (h *Handler) HistorySummary(c *gin.Context) {
	w, ok := dateWindow(c)
	if !ok {
		return
	}

	summary, err := h.svc.Patients.HistorySummary(c.Request.Context(), caller(c), c.Param("doctor_id"), w)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, summary)
}
