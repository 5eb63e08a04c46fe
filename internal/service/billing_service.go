package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

type BillingService struct {
	repo     billing.Repository
	patients patient.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
	now      func() time.Time
}

func NewBillingService(
	repo billing.Repository,
	patients patient.Repository,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *BillingService {
	return &BillingService{
		repo:     repo,
		patients: patients,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func (s *BillingService) CreateBilling(ctx context.Context, caller domain.Caller, cmd *billing.CreateBillingCommand) (_ *billing.Billing, err error) {
	ctx, span := tracer.Start(ctx, "BillingService.CreateBilling")
	defer func() { finishSpan(span, err) }()

	if err := validateCreateBilling(cmd); err != nil {
		return nil, err
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	now := s.now()
	b := &billing.Billing{
		BillingID:        cmd.BillingID,
		DoctorID:         cmd.DoctorID,
		PatientID:        cmd.PatientID,
		PatientName:      strings.TrimSpace(cmd.PatientName),
		PatientPhone:     strings.TrimSpace(cmd.PatientPhone),
		VisitID:          cmd.VisitID,
		ClinicID:         cmd.ClinicID,
		ConsultationFee:  cmd.ConsultationFee,
		ConsultationType: cmd.ConsultationType,
		Services:         billing.NewServiceItems(cmd.Services),
		PaymentStatus:    cmd.PaymentStatus,
		PaymentMethod:    cmd.PaymentMethod,
		Notes:            cmd.Notes,
		BillingDate:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if b.BillingID == "" {
		b.BillingID = uuid.NewString()
	}
	if b.ConsultationType == "" {
		b.ConsultationType = billing.DefaultConsultationType
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = billing.StatusPaid
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = billing.MethodCash
	}
	if cmd.BillingDate != nil {
		b.BillingDate = *cmd.BillingDate
	}

	b.Recalculate()
	if b.Discount, err = billing.NewDiscount(cmd.Discount, b.Subtotal); err != nil {
		return nil, err
	}
	b.Recalculate()

	b.AmountPaid = b.TotalAmount
	if cmd.AmountPaid != nil {
		b.AmountPaid = *cmd.AmountPaid
	}

	if err := s.repo.Insert(ctx, b); err != nil {
		s.log.Error("failed to create billing", zap.Error(err))
		return nil, fmt.Errorf("creating billing: %w", err)
	}

	if b.VisitID != "" {
		s.linkVisit(ctx, b)
	}

	s.metrics.BillingsCreated.WithLabelValues("itemised").Inc()
	s.auditSvc.Record(ctx, caller, domain.ActionCreate, "billing", b.BillingID, b.DoctorID, nil)
	span.SetAttributes(attribute.String("billing.id", b.BillingID))

	return b, nil
}

// RecordConsultation stores a consultation-only bill, paid upfront.
func (s *BillingService) RecordConsultation(ctx context.Context, caller domain.Caller, cmd *billing.RecordConsultationCommand) (_ *billing.Billing, err error) {
	ctx, span := tracer.Start(ctx, "BillingService.RecordConsultation")
	defer func() { finishSpan(span, err) }()

	var errs []string
	if cmd.DoctorID == "" {
		errs = append(errs, "doctor_id is required")
	}
	if cmd.PatientID == "" {
		errs = append(errs, "patient_id is required")
	}
	if strings.TrimSpace(cmd.PatientName) == "" {
		errs = append(errs, "patient_name is required")
	}
	if cmd.PaymentMethod != "" && !cmd.PaymentMethod.IsValid() {
		errs = append(errs, "paymentMethod is invalid")
	}
	if err := validationErrors(errs); err != nil {
		return nil, err
	}
	if cmd.ConsultationFee <= 0 {
		return nil, billing.ErrInvalidConsultationFee
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	now := s.now()
	b := &billing.Billing{
		BillingID:        uuid.NewString(),
		DoctorID:         cmd.DoctorID,
		PatientID:        cmd.PatientID,
		PatientName:      strings.TrimSpace(cmd.PatientName),
		PatientPhone:     cmd.PatientPhone,
		VisitID:          cmd.VisitID,
		ClinicID:         cmd.ClinicID,
		ConsultationFee:  cmd.ConsultationFee,
		ConsultationType: cmd.ConsultationType,
		Services:         []billing.ServiceItem{},
		PaymentStatus:    billing.StatusPaid,
		PaymentMethod:    cmd.PaymentMethod,
		Notes:            "Consultation fee recorded on patient arrival",
		BillingDate:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if b.ConsultationType == "" {
		b.ConsultationType = billing.DefaultConsultationType
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = billing.MethodCash
	}
	b.Recalculate()
	b.AmountPaid = b.TotalAmount

	if err := s.repo.Insert(ctx, b); err != nil {
		s.log.Error("failed to record consultation", zap.Error(err))
		return nil, fmt.Errorf("recording consultation: %w", err)
	}

	s.metrics.BillingsCreated.WithLabelValues("consultation").Inc()
	s.auditSvc.Record(ctx, caller, domain.ActionCreate, "billing", b.BillingID, b.DoctorID, nil)

	return b, nil
}

func (s *BillingService) UpdateBilling(ctx context.Context, caller domain.Caller, doctorID, billingID string, cmd *billing.UpdateBillingCommand) (_ *billing.Billing, err error) {
	ctx, span := tracer.Start(ctx, "BillingService.UpdateBilling")
	defer func() { finishSpan(span, err) }()

	if err := validateUpdateBilling(doctorID, billingID, cmd); err != nil {
		return nil, err
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}

	b, err := s.repo.FindOne(ctx, doctorID, billingID)
	if err != nil {
		return nil, err
	}

	if cmd.ConsultationFee != nil {
		b.ConsultationFee = *cmd.ConsultationFee
	}
	if cmd.ConsultationType != nil {
		b.ConsultationType = *cmd.ConsultationType
	}
	if cmd.Services != nil {
		b.Services = billing.NewServiceItems(*cmd.Services)
	}
	if cmd.Discount != nil {
		b.Discount = nil
		b.Recalculate()
		if b.Discount, err = billing.NewDiscount(cmd.Discount, b.Subtotal); err != nil {
			return nil, err
		}
	}
	b.Recalculate()

	if cmd.PaymentStatus != nil {
		b.PaymentStatus = *cmd.PaymentStatus
	}
	if cmd.PaymentMethod != nil {
		b.PaymentMethod = *cmd.PaymentMethod
	}
	if cmd.AmountPaid != nil {
		b.AmountPaid = *cmd.AmountPaid
	}
	if cmd.Notes != nil {
		b.Notes = *cmd.Notes
	}
	b.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, b); err != nil {
		s.log.Error("failed to update billing", zap.String("billing_id", billingID), zap.Error(err))
		return nil, fmt.Errorf("updating billing: %w", err)
	}

	s.auditSvc.Record(ctx, caller, domain.ActionUpdate, "billing", b.BillingID, b.DoctorID, nil)
	return b, nil
}

func (s *BillingService) GetBilling(ctx context.Context, caller domain.Caller, doctorID, billingID string) (*billing.Billing, error) {
	if err := requireIDs("doctor_id", doctorID, "billing_id", billingID); err != nil {
		return nil, err
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}
	return s.repo.FindOne(ctx, doctorID, billingID)
}

func (s *BillingService) GetBillingByVisit(ctx context.Context, caller domain.Caller, visitID string) (*billing.Billing, error) {
	if err := requireIDs("visit_id", visitID); err != nil {
		return nil, err
	}
	b, err := s.repo.FindByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if !caller.CanActFor(b.DoctorID) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *BillingService) ListBillings(ctx context.Context, caller domain.Caller, q *billing.ListQuery) (*billing.PagedBillings, error) {
	if err := requireIDs("doctor_id", q.DoctorID); err != nil {
		return nil, err
	}
	if q.PaymentStatus != "" && !q.PaymentStatus.IsValid() {
		return nil, billing.ErrInvalidPaymentStatus
	}
	if !caller.CanActFor(q.DoctorID) {
		return nil, ErrForbidden
	}
	q.Page, q.PageSize = domain.NormalizePage(q.Page, q.PageSize)
	return s.repo.List(ctx, q)
}

// linkVisit points the visit at its bill. The bill is already stored, so a
// failure here is logged and not returned.
func (s *BillingService) linkVisit(ctx context.Context, b *billing.Billing) {
	p, err := s.patients.FindOne(ctx, patient.Filter{DoctorID: b.DoctorID, PatientID: b.PatientID})
	if err != nil {
		if !errors.Is(err, patient.ErrPatientNotFound) {
			s.log.Warn("failed to load patient for billing link", zap.String("billing_id", b.BillingID), zap.Error(err))
		}
		return
	}
	idx := p.VisitIndex(b.VisitID)
	if idx < 0 {
		return
	}
	p.Visits[idx].BillingID = b.BillingID
	p.UpdatedAt = s.now()
	if err := s.patients.Save(ctx, p); err != nil {
		s.log.Warn("failed to link billing to visit",
			zap.String("billing_id", b.BillingID),
			zap.String("visit_id", b.VisitID),
			zap.Error(err),
		)
	}
}

func validateCreateBilling(cmd *billing.CreateBillingCommand) error {
	var errs []string

	if cmd.DoctorID == "" {
		errs = append(errs, "doctor_id is required")
	}
	if cmd.PatientID == "" {
		errs = append(errs, "patient_id is required")
	}
	if strings.TrimSpace(cmd.PatientName) == "" {
		errs = append(errs, "patient_name is required")
	}
	if cmd.ConsultationFee < 0 {
		errs = append(errs, "consultationFee cannot be negative")
	}
	errs = append(errs, validateServiceItems(cmd.Services)...)
	if cmd.PaymentStatus != "" && !cmd.PaymentStatus.IsValid() {
		errs = append(errs, "paymentStatus is invalid")
	}
	if cmd.PaymentMethod != "" && !cmd.PaymentMethod.IsValid() {
		errs = append(errs, "paymentMethod is invalid")
	}
	if cmd.AmountPaid != nil && *cmd.AmountPaid < 0 {
		errs = append(errs, "amountPaid cannot be negative")
	}

	return validationErrors(errs)
}

func validateUpdateBilling(doctorID, billingID string, cmd *billing.UpdateBillingCommand) error {
	var errs []string

	if doctorID == "" {
		errs = append(errs, "doctor_id is required")
	}
	if billingID == "" {
		errs = append(errs, "billing_id is required")
	}
	if cmd.ConsultationFee != nil && *cmd.ConsultationFee < 0 {
		errs = append(errs, "consultationFee cannot be negative")
	}
	if cmd.Services != nil {
		errs = append(errs, validateServiceItems(*cmd.Services)...)
	}
	if cmd.PaymentStatus != nil && !cmd.PaymentStatus.IsValid() {
		errs = append(errs, "paymentStatus is invalid")
	}
	if cmd.PaymentMethod != nil && !cmd.PaymentMethod.IsValid() {
		errs = append(errs, "paymentMethod is invalid")
	}
	if cmd.AmountPaid != nil && *cmd.AmountPaid < 0 {
		errs = append(errs, "amountPaid cannot be negative")
	}

	return validationErrors(errs)
}

func validateServiceItems(items []billing.ServiceItem) []string {
	var errs []string
	for i, it := range items {
		if it.ServiceID == "" || strings.TrimSpace(it.ServiceName) == "" {
			errs = append(errs, fmt.Sprintf("services[%d]: service_id and service_name are required", i))
		}
		if it.Price < 0 || it.Quantity < 0 {
			errs = append(errs, fmt.Sprintf("services[%d]: price and quantity cannot be negative", i))
		}
	}
	return errs
}

// requireIDs takes name/value pairs and reports every empty value.
func requireIDs(pairs ...string) error {
	var errs []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			errs = append(errs, pairs[i]+" is required")
		}
	}
	return validationErrors(errs)
}
