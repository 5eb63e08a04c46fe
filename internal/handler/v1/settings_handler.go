package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
)

type saveVisitTypesRequest struct {
	ClinicID    string           `json:"clinic_id"`
	VisitTypes  []visittype.Type `json:"visit_types"`
	DefaultType string           `json:"default_type"`
}

type updateSettingsRequest struct {
	Name            *string               `json:"name"`
	Email           *string               `json:"email"`
	ReceiptHeader   *string               `json:"receiptHeader"`
	ReceiptFooter   *string               `json:"receiptFooter"`
	ClinicName      *string               `json:"clinicName"`
	DoctorTitle     *string               `json:"doctorTitle"`
	ClinicAddress   *string               `json:"clinicAddress"`
	ClinicPhone     *string               `json:"clinicPhone"`
	LogoURL         *string               `json:"logoUrl"`
	ConsultationFee *float64              `json:"consultationFee"`
	RevisitFee      *float64              `json:"revisitFee"`
	EstisharaFee    *float64              `json:"estisharaFee"`
	UrgentFee       *float64              `json:"urgentFee"`
	ReferralSources *[]string             `json:"referralSources"`
	PrintSettings   *doctor.PrintSettings `json:"printSettings"`
}

func (h *Handler) GetVisitTypeConfiguration(c *gin.Context) {
	cfg, err := h.svc.VisitType.GetConfiguration(c.Request.Context(), caller(c), c.Param("doctor_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, cfg)
}

func (h *Handler) SaveVisitTypeConfiguration(c *gin.Context) {
	var req saveVisitTypesRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.svc.VisitType.SaveConfiguration(c.Request.Context(), caller(c), &visittype.SaveConfigurationCommand{
		DoctorID:    c.Param("doctor_id"),
		ClinicID:    req.ClinicID,
		VisitTypes:  req.VisitTypes,
		DefaultType: req.DefaultType,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, cfg)
}

// CalculatePrice previews what a visit type costs without touching any
// record.
func (h *Handler) CalculatePrice(c *gin.Context) {
	res, err := h.svc.VisitType.CalculatePrice(c.Request.Context(), caller(c), &visittype.PriceQuery{
		DoctorID:  c.Param("doctor_id"),
		VisitType: c.Query("visit_type"),
		Urgency:   c.DefaultQuery("urgency", "normal"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, res)
}

func (h *Handler) GetSettings(c *gin.Context) {
	d, err := h.svc.Doctors.GetSettings(c.Request.Context(), caller(c), c.Param("doctor_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.Doctors.UpdateSettings(c.Request.Context(), caller(c), c.Param("doctor_id"), &doctor.UpdateSettingsCommand{
		Name:            req.Name,
		Email:           req.Email,
		ReceiptHeader:   req.ReceiptHeader,
		ReceiptFooter:   req.ReceiptFooter,
		ClinicName:      req.ClinicName,
		DoctorTitle:     req.DoctorTitle,
		ClinicAddress:   req.ClinicAddress,
		ClinicPhone:     req.ClinicPhone,
		LogoURL:         req.LogoURL,
		ConsultationFee: req.ConsultationFee,
		RevisitFee:      req.RevisitFee,
		EstisharaFee:    req.EstisharaFee,
		UrgentFee:       req.UrgentFee,
		ReferralSources: req.ReferralSources,
		PrintSettings:   req.PrintSettings,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}
