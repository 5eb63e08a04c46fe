package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
)

type discountRequest struct {
	Type   billing.DiscountType `json:"type"`
	Value  float64              `json:"value"`
	Reason string               `json:"reason"`
}

func (r *discountRequest) input() *billing.DiscountInput {
	if r == nil {
		return nil
	}
	return &billing.DiscountInput{Type: r.Type, Value: r.Value, Reason: r.Reason}
}

type createBillingRequest struct {
	BillingID        string                `json:"billingId"`
	PatientID        string                `json:"patientId"`
	PatientName      string                `json:"patientName"`
	PatientPhone     string                `json:"patientPhone"`
	VisitID          string                `json:"visitId"`
	ClinicID         string                `json:"clinicId"`
	ConsultationFee  float64               `json:"consultationFee"`
	ConsultationType string                `json:"consultationType"`
	Services         []billing.ServiceItem `json:"services"`
	Discount         *discountRequest      `json:"discount"`
	PaymentStatus    billing.PaymentStatus `json:"paymentStatus"`
	PaymentMethod    billing.PaymentMethod `json:"paymentMethod"`
	AmountPaid       *float64              `json:"amountPaid"`
	Notes            string                `json:"notes"`
	BillingDate      *time.Time            `json:"billingDate"`
}

type recordConsultationRequest struct {
	PatientID        string                `json:"patientId"`
	PatientName      string                `json:"patientName"`
	PatientPhone     string                `json:"patientPhone"`
	ClinicID         string                `json:"clinicId"`
	VisitID          string                `json:"visitId"`
	ConsultationType string                `json:"consultationType"`
	ConsultationFee  float64               `json:"consultationFee"`
	PaymentMethod    billing.PaymentMethod `json:"paymentMethod"`
}

type updateBillingRequest struct {
	ConsultationFee  *float64               `json:"consultationFee"`
	ConsultationType *string                `json:"consultationType"`
	Services         *[]billing.ServiceItem `json:"services"`
	Discount         *discountRequest       `json:"discount"`
	PaymentStatus    *billing.PaymentStatus `json:"paymentStatus"`
	PaymentMethod    *billing.PaymentMethod `json:"paymentMethod"`
	AmountPaid       *float64               `json:"amountPaid"`
	Notes            *string                `json:"notes"`
}

func (h *Handler) CreateBilling(c *gin.Context) {
	var req createBillingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.svc.Billing.CreateBilling(c.Request.Context(), caller(c), &billing.CreateBillingCommand{
		BillingID:        req.BillingID,
		DoctorID:         c.Param("doctor_id"),
		PatientID:        req.PatientID,
		PatientName:      req.PatientName,
		PatientPhone:     req.PatientPhone,
		VisitID:          req.VisitID,
		ClinicID:         req.ClinicID,
		ConsultationFee:  req.ConsultationFee,
		ConsultationType: req.ConsultationType,
		Services:         req.Services,
		Discount:         req.Discount.input(),
		PaymentStatus:    req.PaymentStatus,
		PaymentMethod:    req.PaymentMethod,
		AmountPaid:       req.AmountPaid,
		Notes:            req.Notes,
		BillingDate:      req.BillingDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, b)
}

// RecordConsultation books a paid consultation fee, the quick path used at
// the reception desk.
func (h *Handler) RecordConsultation(c *gin.Context) {
	var req recordConsultationRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.svc.Billing.RecordConsultation(c.Request.Context(), caller(c), &billing.RecordConsultationCommand{
		DoctorID:         c.Param("doctor_id"),
		PatientID:        req.PatientID,
		PatientName:      req.PatientName,
		PatientPhone:     req.PatientPhone,
		ClinicID:         req.ClinicID,
		VisitID:          req.VisitID,
		ConsultationType: req.ConsultationType,
		ConsultationFee:  req.ConsultationFee,
		PaymentMethod:    req.PaymentMethod,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, b)
}

func (h *Handler) UpdateBilling(c *gin.Context) {
	var req updateBillingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.svc.Billing.UpdateBilling(c.Request.Context(), caller(c), c.Param("doctor_id"), c.Param("billing_id"), &billing.UpdateBillingCommand{
		ConsultationFee:  req.ConsultationFee,
		ConsultationType: req.ConsultationType,
		Services:         req.Services,
		Discount:         req.Discount.input(),
		PaymentStatus:    req.PaymentStatus,
		PaymentMethod:    req.PaymentMethod,
		AmountPaid:       req.AmountPaid,
		Notes:            req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, b)
}

func (h *Handler) GetBilling(c *gin.Context) {
	b, err := h.svc.Billing.GetBilling(c.Request.Context(), caller(c), c.Param("doctor_id"), c.Param("billing_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, b)
}

func (h *Handler) GetBillingByVisit(c *gin.Context) {
	b, err := h.svc.Billing.GetBillingByVisit(c.Request.Context(), caller(c), c.Param("visit_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, b)
}

func (h *Handler) ListBillings(c *gin.Context) {
	from, ok := parseDayParam(c, "from", false)
	if !ok {
		return
	}
	to, ok := parseDayParam(c, "to", true)
	if !ok {
		return
	}

	page, err := h.svc.Billing.ListBillings(c.Request.Context(), caller(c), &billing.ListQuery{
		DoctorID:      c.Param("doctor_id"),
		PatientID:     c.Query("patient_id"),
		PaymentStatus: billing.PaymentStatus(c.Query("payment_status")),
		From:          from,
		To:            to,
		Page:          parseQueryInt(c, "page", 1),
		PageSize:      parseQueryInt(c, "page_size", 20),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, PagedResponse[*billing.Billing]{
		Data:       page.Billings,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}
