package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/service"
)

type Handler struct {
	svc *service.Services
}

func NewHandler(svc *service.Services) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the v1 API on rg. Auth has to run before it.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	doctors := rg.Group("/doctors/:doctor_id")
	{
		doctors.GET("/patients", h.ListPatients)
		doctors.POST("/patients", h.RegisterPatient)
		doctors.GET("/patients/:patient_id", h.GetPatient)
		doctors.GET("/patient-lookup", h.LookupPatient)
		doctors.GET("/history-summary", h.HistorySummary)

		doctors.GET("/patients/:patient_id/visits", h.VisitHistory)
		doctors.POST("/patients/:patient_id/visits", h.CreateVisit)
		doctors.GET("/patients/:patient_id/visits/:visit_id", h.GetVisit)
		doctors.PATCH("/patients/:patient_id/visits/:visit_id", h.UpdateVisit)
		doctors.POST("/patients/:patient_id/receipts", h.AddReceipt)
		doctors.PUT("/patients/:patient_id/visit-type", h.ChangeVisitType)

		doctors.GET("/billings", h.ListBillings)
		doctors.POST("/billings", h.CreateBilling)
		doctors.POST("/billings/consultation", h.RecordConsultation)
		doctors.GET("/billings/:billing_id", h.GetBilling)
		doctors.PATCH("/billings/:billing_id", h.UpdateBilling)

		doctors.GET("/visit-types", h.GetVisitTypeConfiguration)
		doctors.PUT("/visit-types", h.SaveVisitTypeConfiguration)
		doctors.GET("/visit-types/price", h.CalculatePrice)

		doctors.GET("/settings", h.GetSettings)
		doctors.PATCH("/settings", h.UpdateSettings)
	}

	rg.GET("/profiles", h.GetPatientProfile)
	rg.GET("/billings/by-visit/:visit_id", h.GetBillingByVisit)
	rg.GET("/audit/:resource_type/:resource_id", middleware.RequireRole(domain.RoleAdmin), h.AuditHistory)
}

func (h *Handler) AuditHistory(c *gin.Context) {
	logs, err := h.svc.Audit.History(c.Request.Context(), caller(c), c.Param("resource_type"), c.Param("resource_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, logs)
}

// Health reports liveness; it does not touch the stores.
func Health(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	}
}
