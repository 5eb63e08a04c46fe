package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
)

type createVisitRequest struct {
	VisitType string         `json:"visit_type"`
	Complaint string         `json:"complaint"`
	Diagnosis string         `json:"diagnosis"`
	Drugs     []patient.Drug `json:"drugs"`
	DrugModel string         `json:"drugModel"`
	Notes     string         `json:"notes"`
}

type updateVisitRequest struct {
	Complaint *string        `json:"complaint"`
	Diagnosis *string        `json:"diagnosis"`
	Drugs     []patient.Drug `json:"drugs"`
	Notes     string         `json:"notes"`
}

type addReceiptRequest struct {
	VisitID   string         `json:"visit_id"`
	Drugs     []patient.Drug `json:"drugs"`
	Notes     string         `json:"notes"`
	DrugModel string         `json:"drugModel"`
}

type changeVisitTypeRequest struct {
	VisitType string `json:"visit_type"`
	Urgency   string `json:"visit_urgency"`
	Reason    string `json:"reason"`
}

func (h *Handler) CreateVisit(c *gin.Context) {
	var req createVisitRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.svc.Visits.CreateVisit(c.Request.Context(), caller(c), &patient.CreateVisitCommand{
		DoctorID:  c.Param("doctor_id"),
		PatientID: c.Param("patient_id"),
		VisitType: req.VisitType,
		Complaint: req.Complaint,
		Diagnosis: req.Diagnosis,
		Drugs:     req.Drugs,
		DrugModel: req.DrugModel,
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, v)
}

func (h *Handler) VisitHistory(c *gin.Context) {
	w, ok := dateWindow(c)
	if !ok {
		return
	}

	history, err := h.svc.Visits.VisitHistory(c.Request.Context(), caller(c), &patient.VisitHistoryQuery{
		DoctorID:  c.Param("doctor_id"),
		PatientID: c.Param("patient_id"),
		Window:    w,
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, history)
}

func (h *Handler) GetVisit(c *gin.Context) {
	v, err := h.svc.Visits.GetVisit(c.Request.Context(), caller(c), c.Param("doctor_id"), c.Param("patient_id"), c.Param("visit_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, v)
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	var req updateVisitRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.svc.Visits.UpdateVisit(c.Request.Context(), caller(c), &patient.UpdateVisitCommand{
		DoctorID:  c.Param("doctor_id"),
		PatientID: c.Param("patient_id"),
		VisitID:   c.Param("visit_id"),
		Complaint: req.Complaint,
		Diagnosis: req.Diagnosis,
		Drugs:     req.Drugs,
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, v)
}

func (h *Handler) AddReceipt(c *gin.Context) {
	var req addReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.svc.Visits.AddReceipt(c.Request.Context(), caller(c), &patient.AddReceiptCommand{
		DoctorID:  c.Param("doctor_id"),
		PatientID: c.Param("patient_id"),
		VisitID:   req.VisitID,
		Drugs:     req.Drugs,
		Notes:     req.Notes,
		DrugModel: req.DrugModel,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, v)
}

func (h *Handler) ChangeVisitType(c *gin.Context) {
	var req changeVisitTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.svc.VisitType.ChangeVisitType(c.Request.Context(), caller(c), &visittype.ChangeVisitTypeCommand{
		DoctorID:  c.Param("doctor_id"),
		PatientID: c.Param("patient_id"),
		VisitType: req.VisitType,
		Urgency:   req.Urgency,
		Reason:    req.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, res)
}
