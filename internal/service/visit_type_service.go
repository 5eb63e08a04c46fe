package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

type VisitTypeService struct {
	configs  visittype.Repository
	patients patient.Repository
	billings billing.Repository
	pricer   *Pricer
	// addOnLabels mark services-only bills that a visit type change never reprices.
	addOnLabels []string
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
	locks       *keyLock
	now         func() time.Time
}

func NewVisitTypeService(
	configs visittype.Repository,
	patients patient.Repository,
	billings billing.Repository,
	pricer *Pricer,
	addOnLabels []string,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *VisitTypeService {
	return &VisitTypeService{
		configs:     configs,
		patients:    patients,
		billings:    billings,
		pricer:      pricer,
		addOnLabels: addOnLabels,
		auditSvc:    auditSvc,
		metrics:     m,
		log:         log,
		locks:       newKeyLock(),
		now:         time.Now,
	}
}

type ChangeVisitTypeResult struct {
	Patient        *patient.Patient `json:"patient"`
	NewPrice       float64          `json:"new_price"`
	OldPrice       float64          `json:"old_price"`
	BillingUpdated bool             `json:"billing_updated"`
	CanonicalType  string           `json:"canonical_type"`
}

// ChangeVisitType re-prices a patient's visit type and brings their most
// recent consultation bill in line with it. The bill is written only when
// its fee or type actually changes.
func (s *VisitTypeService) ChangeVisitType(ctx context.Context, caller domain.Caller, cmd *visittype.ChangeVisitTypeCommand) (_ *ChangeVisitTypeResult, err error) {
	ctx, span := tracer.Start(ctx, "VisitTypeService.ChangeVisitType")
	defer func() { finishSpan(span, err) }()

	visitType := strings.TrimSpace(cmd.VisitType)
	if err := requireIDs("patient_id", cmd.PatientID, "doctor_id", cmd.DoctorID, "visit_type", visitType); err != nil {
		return nil, err
	}
	if cmd.Urgency != "" && cmd.Urgency != patient.UrgencyNormal && cmd.Urgency != patient.UrgencyUrgent {
		return nil, &ValidationError{Fields: []string{"visit_urgency must be normal or urgent"}}
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock("patient", cmd.DoctorID, cmd.PatientID)
	defer unlock()

	p, err := s.patients.FindOne(ctx, patient.Filter{DoctorID: cmd.DoctorID, PatientID: cmd.PatientID})
	if err != nil {
		return nil, err
	}

	urgency := cmd.Urgency
	if urgency == "" {
		urgency = p.VisitUrgency
	}

	res, err := s.pricer.Resolve(ctx, cmd.DoctorID, visitType, urgency)
	if err != nil {
		return nil, err
	}

	result := &ChangeVisitTypeResult{
		Patient:       p,
		NewPrice:      res.Price,
		CanonicalType: res.CanonicalName,
	}

	b, err := s.billings.FindMostRecent(ctx, cmd.DoctorID, cmd.PatientID, s.addOnLabels)
	switch {
	case err == nil:
		result.OldPrice = b.ConsultationFee
		if b.ApplyConsultationChange(res.Price, res.CanonicalName, s.now()) {
			if err := s.billings.Save(ctx, b); err != nil {
				s.log.Error("failed to reconcile billing",
					zap.String("billing_id", b.BillingID),
					zap.String("patient_id", cmd.PatientID),
					zap.Error(err),
				)
				return nil, fmt.Errorf("updating billing: %w", err)
			}
			result.BillingUpdated = true
			s.auditSvc.Record(ctx, caller, domain.ActionUpdate, "billing", b.BillingID, b.DoctorID, map[string]any{
				"consultationFee":  b.ConsultationFee,
				"consultationType": b.ConsultationType,
				"totalAmount":      b.TotalAmount,
				"paymentStatus":    b.PaymentStatus,
			})
		}
	case errors.Is(err, billing.ErrBillingNotFound):
		old, err := s.pricer.Resolve(ctx, cmd.DoctorID, p.VisitType, p.VisitUrgency)
		if err != nil {
			return nil, err
		}
		result.OldPrice = old.Price
	default:
		return nil, fmt.Errorf("loading billing: %w", err)
	}

	now := s.now()
	p.ApplyVisitTypeChange(patient.VisitTypeChange{
		FromType:    p.VisitType,
		ToType:      visitType,
		FromUrgency: p.VisitUrgency,
		ToUrgency:   urgency,
		OldPrice:    result.OldPrice,
		NewPrice:    result.NewPrice,
		ChangedBy:   caller.Actor(),
		ChangedAt:   now,
		Reason:      strings.TrimSpace(cmd.Reason),
	})
	p.UpdatedAt = now

	if err := s.patients.Save(ctx, p); err != nil {
		// A reconciled bill is not rolled back; the next change recomputes it.
		s.log.Error("failed to save visit type change",
			zap.String("patient_id", cmd.PatientID),
			zap.Bool("billing_updated", result.BillingUpdated),
			zap.Error(err),
		)
		return nil, fmt.Errorf("saving patient: %w", err)
	}

	s.metrics.VisitTypeChanges.WithLabelValues(strconv.FormatBool(result.BillingUpdated)).Inc()
	s.auditSvc.Record(ctx, caller, domain.ActionUpdate, "visit_type", p.PatientID, p.DoctorID, map[string]any{
		"to_type":   visitType,
		"new_price": result.NewPrice,
	})
	span.SetAttributes(
		attribute.Bool("billing.updated", result.BillingUpdated),
		attribute.Int("pricing.tier", int(res.Tier)),
	)

	return result, nil
}

// GetConfiguration returns the doctor's stored table, or the default table
// when none was saved.
func (s *VisitTypeService) GetConfiguration(ctx context.Context, caller domain.Caller, doctorID string) (*visittype.Configuration, error) {
	if err := requireIDs("doctor_id", doctorID); err != nil {
		return nil, err
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}

	cfg, err := s.configs.FindByDoctor(ctx, doctorID)
	if errors.Is(err, visittype.ErrConfigurationNotFound) {
		return visittype.DefaultConfiguration(doctorID), nil
	}
	return cfg, err
}

func (s *VisitTypeService) SaveConfiguration(ctx context.Context, caller domain.Caller, cmd *visittype.SaveConfigurationCommand) (*visittype.Configuration, error) {
	if err := requireIDs("doctor_id", cmd.DoctorID); err != nil {
		return nil, err
	}
	var errs []string
	for i, t := range cmd.VisitTypes {
		if strings.TrimSpace(t.TypeID) == "" || strings.TrimSpace(t.Name) == "" {
			errs = append(errs, fmt.Sprintf("visit_types[%d]: type_id and name are required", i))
		}
	}
	if err := validationErrors(errs); err != nil {
		return nil, err
	}
	if err := cmd.Check(); err != nil {
		return nil, err
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	cfg := &visittype.Configuration{
		DoctorID:    cmd.DoctorID,
		ClinicID:    cmd.ClinicID,
		VisitTypes:  cmd.VisitTypes,
		DefaultType: cmd.DefaultType,
		UpdatedAt:   s.now(),
	}
	if cfg.VisitTypes == nil {
		cfg.VisitTypes = []visittype.Type{}
	}
	if cfg.DefaultType == "" {
		cfg.DefaultType = "visit"
	}

	if err := s.configs.Upsert(ctx, cfg); err != nil {
		s.log.Error("failed to save visit type configuration", zap.String("doctor_id", cmd.DoctorID), zap.Error(err))
		return nil, fmt.Errorf("saving visit type configuration: %w", err)
	}

	s.auditSvc.Record(ctx, caller, domain.ActionUpdate, "visit_type_configuration", cmd.DoctorID, cmd.DoctorID, nil)
	return cfg, nil
}

// CalculatePrice exposes the resolver without changing anything.
func (s *VisitTypeService) CalculatePrice(ctx context.Context, caller domain.Caller, q *visittype.PriceQuery) (visittype.Resolution, error) {
	if err := requireIDs("doctor_id", q.DoctorID, "visit_type", q.VisitType); err != nil {
		return visittype.Resolution{}, err
	}
	if !caller.CanActFor(q.DoctorID) {
		return visittype.Resolution{}, ErrForbidden
	}
	return s.pricer.Resolve(ctx, q.DoctorID, q.VisitType, q.Urgency)
}
