package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

const recentVisitsInSummary = 10

type PatientService struct {
	repo       patient.Repository
	billingSvc *BillingService
	pricer     *Pricer
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
	locks      *keyLock
	now        func() time.Time
}

func NewPatientService(
	repo patient.Repository,
	billingSvc *BillingService,
	pricer *Pricer,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *PatientService {
	return &PatientService{
		repo:       repo,
		billingSvc: billingSvc,
		pricer:     pricer,
		auditSvc:   auditSvc,
		metrics:    m,
		log:        log,
		locks:      newKeyLock(),
		now:        time.Now,
	}
}

type RegisterPatientResult struct {
	Patient *patient.Patient `json:"patient"`
	Visit   patient.Visit    `json:"visit"`
	// Created is false when the visit was appended to an existing record.
	Created bool             `json:"created"`
	Billing *billing.Billing `json:"billing,omitempty"`
}

// RegisterPatient finds the doctor's record for the phone number and appends
// a visit to it, or creates a new record when there is none. Registrations
// for the same doctor and phone are serialised within the process.
func (s *PatientService) RegisterPatient(ctx context.Context, caller domain.Caller, cmd *patient.RegisterPatientCommand) (_ *RegisterPatientResult, err error) {
	ctx, span := tracer.Start(ctx, "PatientService.RegisterPatient")
	defer func() { finishSpan(span, err) }()

	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	phone := strings.TrimSpace(cmd.Phone)
	unlock := s.locks.lock("register", cmd.DoctorID, phone)
	defer unlock()

	p, err := s.repo.FindOne(ctx, patient.Filter{DoctorID: cmd.DoctorID, Phone: phone})
	created := false
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		created = true
		p = s.newPatient(cmd, phone)
	case err != nil:
		return nil, fmt.Errorf("looking up patient: %w", err)
	default:
		s.refreshQueueFields(p, cmd)
	}

	now := s.now()
	visit := patient.Visit{
		VisitID:   uuid.NewString(),
		Date:      patient.NewVisitDate(now),
		Time:      now.Format("15:04"),
		VisitType: p.VisitType,
		Complaint: cmd.Complaint,
		Receipts:  []patient.Receipt{},
	}

	result := &RegisterPatientResult{Patient: p, Created: created}

	var fee visittype.Resolution
	if cmd.RecordConsultation {
		if fee, err = s.pricer.Resolve(ctx, p.DoctorID, p.VisitType, p.VisitUrgency); err != nil {
			return nil, err
		}
	}

	p.Visits = append(p.Visits, visit)
	p.UpdatedAt = now

	if created {
		p.CreatedAt = now
		err = s.repo.Insert(ctx, p)
	} else {
		err = s.repo.Save(ctx, p)
	}
	if err != nil {
		s.log.Error("failed to register patient",
			zap.String("doctor_id", cmd.DoctorID),
			zap.Bool("created", created),
			zap.Error(err),
		)
		if errors.Is(err, patient.ErrConcurrentModification) {
			return nil, err
		}
		return nil, fmt.Errorf("registering patient: %w", err)
	}

	// The bill is written only once the visit it points at is stored.
	if fee.Price > 0 {
		result.Billing = s.recordArrivalFee(ctx, caller, p, cmd, fee)
		visit.BillingID = p.Visits[len(p.Visits)-1].BillingID
	}
	result.Visit = visit

	outcome, action := "appended", domain.ActionUpdate
	if created {
		outcome, action = "created", domain.ActionCreate
	}
	s.metrics.PatientRegistrations.WithLabelValues(outcome).Inc()
	s.metrics.VisitsRecorded.Inc()
	s.auditSvc.Record(ctx, caller, action, "patient", p.PatientID, p.DoctorID, map[string]string{"visit_id": visit.VisitID})

	span.SetAttributes(attribute.Bool("patient.created", created))
	s.log.Info("patient registered",
		zap.String("patient_id", p.PatientID),
		zap.String("doctor_id", p.DoctorID),
		zap.String("outcome", outcome),
	)

	return result, nil
}

func (s *PatientService) newPatient(cmd *patient.RegisterPatientCommand, phone string) *patient.Patient {
	p := &patient.Patient{
		PatientID:    cmd.PatientID,
		Name:         strings.TrimSpace(cmd.Name),
		Phone:        phone,
		DoctorID:     cmd.DoctorID,
		DoctorName:   cmd.DoctorName,
		ClinicID:     cmd.ClinicID,
		Age:          cmd.Age,
		Address:      cmd.Address,
		FCMToken:     cmd.FCMToken,
		Token:        cmd.Token,
		Position:     cmd.Position,
		Date:         patient.DayKey(s.now()),
		Time:         s.now().Format("15:04"),
		Status:       patient.StatusWaiting,
		VisitType:    cmd.VisitType,
		VisitUrgency: cmd.VisitUrgency,
	}
	if p.PatientID == "" {
		p.PatientID = uuid.NewString()
	}
	p.ApplyDefaults()
	return p
}

// refreshQueueFields puts a returning patient back in the waiting queue and
// takes any demographics the caller supplied.
func (s *PatientService) refreshQueueFields(p *patient.Patient, cmd *patient.RegisterPatientCommand) {
	now := s.now()
	p.Status = patient.StatusWaiting
	p.Position = cmd.Position
	p.Date = patient.DayKey(now)
	p.Time = now.Format("15:04")

	if name := strings.TrimSpace(cmd.Name); name != "" {
		p.Name = name
	}
	if cmd.Age != "" {
		p.Age = cmd.Age
	}
	if cmd.Address != "" {
		p.Address = cmd.Address
	}
	if cmd.FCMToken != "" {
		p.FCMToken = cmd.FCMToken
	}
	if cmd.Token != "" {
		p.Token = cmd.Token
	}
	if cmd.DoctorName != "" {
		p.DoctorName = cmd.DoctorName
	}
	if cmd.VisitType != "" {
		p.VisitType = cmd.VisitType
	}
	if cmd.VisitUrgency != "" {
		p.VisitUrgency = cmd.VisitUrgency
	}
	p.ApplyDefaults()
}

// recordArrivalFee records the paid consultation bill for the visit just
// stored and links it to that visit. The registration already succeeded, so
// failures are logged and the bill is left for the billing endpoints.
func (s *PatientService) recordArrivalFee(ctx context.Context, caller domain.Caller, p *patient.Patient, cmd *patient.RegisterPatientCommand, fee visittype.Resolution) *billing.Billing {
	idx := len(p.Visits) - 1
	b, err := s.billingSvc.RecordConsultation(ctx, caller, &billing.RecordConsultationCommand{
		DoctorID:         p.DoctorID,
		PatientID:        p.PatientID,
		PatientName:      p.Name,
		PatientPhone:     p.Phone,
		ClinicID:         p.ClinicID,
		VisitID:          p.Visits[idx].VisitID,
		ConsultationType: fee.CanonicalName,
		ConsultationFee:  fee.Price,
		PaymentMethod:    billing.PaymentMethod(cmd.PaymentMethod),
	})
	if err != nil {
		s.log.Warn("patient registered without consultation bill",
			zap.String("patient_id", p.PatientID),
			zap.Error(err),
		)
		return nil
	}

	p.Visits[idx].BillingID = b.BillingID
	if err := s.repo.Save(ctx, p); err != nil {
		s.log.Warn("failed to link consultation bill to visit",
			zap.String("billing_id", b.BillingID),
			zap.String("visit_id", b.VisitID),
			zap.Error(err),
		)
		p.Visits[idx].BillingID = ""
	}
	return b
}

// GetPatient returns the doctor's record by patient id, or by phone when no
// id is given.
func (s *PatientService) GetPatient(ctx context.Context, caller domain.Caller, doctorID, patientID, phone string) (*patient.Patient, error) {
	if err := requireIDs("doctor_id", doctorID); err != nil {
		return nil, err
	}
	if patientID == "" && strings.TrimSpace(phone) == "" {
		return nil, &ValidationError{Fields: []string{"patient_id or patient_phone is required"}}
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}

	f := patient.Filter{DoctorID: doctorID, PatientID: patientID}
	if patientID == "" {
		f.Phone = strings.TrimSpace(phone)
	}
	p, err := s.repo.FindOne(ctx, f)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, caller, domain.ActionRead, "patient", p.PatientID, doctorID, nil)
	return p, nil
}

// ListPatients returns the doctor's patients merged by phone number, with
// each timeline limited to the requested window. Sorting and pagination
// apply to merged patients.
func (s *PatientService) ListPatients(ctx context.Context, caller domain.Caller, q *patient.ListPatientsQuery) (_ *patient.PagedLogicalPatients, err error) {
	ctx, span := tracer.Start(ctx, "PatientService.ListPatients")
	defer func() { finishSpan(span, err) }()

	if err := requireIDs("doctor_id", q.DoctorID); err != nil {
		return nil, err
	}
	if !caller.CanActFor(q.DoctorID) {
		return nil, ErrForbidden
	}
	q.Page, q.PageSize = domain.NormalizePage(q.Page, q.PageSize)

	docs, err := s.repo.Find(ctx, patient.Filter{DoctorID: q.DoctorID, Status: q.Status, Search: q.Search})
	if err != nil {
		s.log.Error("failed to list patients", zap.String("doctor_id", q.DoctorID), zap.Error(err))
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	s.metrics.MergeSourceDocuments.Observe(float64(len(docs)))

	merged := patient.Merge(docs, q.Window, s.now())
	if q.Window.IsExplicit() {
		merged = slices.DeleteFunc(merged, func(lp *patient.LogicalPatient) bool {
			return lp.TotalVisits == 0
		})
	}

	sortOrder := q.SortOrder
	if sortOrder == "" {
		sortOrder = "desc"
	}
	patient.SortLogical(merged, q.SortBy, sortOrder)

	start, end := domain.PageBounds(len(merged), q.Page, q.PageSize)
	span.SetAttributes(
		attribute.Int("patients.documents", len(docs)),
		attribute.Int("patients.logical", len(merged)),
	)

	return &patient.PagedLogicalPatients{
		Patients:   merged[start:end],
		TotalCount: len(merged),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: domain.TotalPages(int64(len(merged)), q.PageSize),
	}, nil
}

// GetPatientProfile aggregates one person's records across every doctor.
// Records are found by patient id and by phone; a patient id lookup also
// pulls in the other records sharing that patient's phone.
func (s *PatientService) GetPatientProfile(ctx context.Context, caller domain.Caller, patientID, phone string) (_ *patient.Profile, err error) {
	ctx, span := tracer.Start(ctx, "PatientService.GetPatientProfile")
	defer func() { finishSpan(span, err) }()

	phone = strings.TrimSpace(phone)
	if patientID == "" && phone == "" {
		return nil, &ValidationError{Fields: []string{"patient_id or patient_phone is required"}}
	}

	var docs []*patient.Patient
	if patientID != "" {
		byID, err := s.repo.Find(ctx, patient.Filter{PatientID: patientID})
		if err != nil {
			return nil, fmt.Errorf("loading patient by id: %w", err)
		}
		docs = append(docs, byID...)
		if phone == "" {
			for _, d := range byID {
				if d.Phone != "" {
					phone = d.Phone
					break
				}
			}
		}
	}
	if phone != "" {
		byPhone, err := s.repo.Find(ctx, patient.Filter{Phone: phone})
		if err != nil {
			return nil, fmt.Errorf("loading patient by phone: %w", err)
		}
		docs = appendUnique(docs, byPhone)
	}
	if len(docs) == 0 {
		return nil, patient.ErrPatientNotFound
	}

	if caller.DoctorID != "" && caller.Role != domain.RoleAdmin {
		if !slices.ContainsFunc(docs, func(d *patient.Patient) bool { return d.DoctorID == caller.DoctorID }) {
			return nil, ErrForbidden
		}
	}

	prof := patient.BuildProfile(docs)
	s.auditSvc.Record(ctx, caller, domain.ActionRead, "patient_profile", prof.PatientID, caller.DoctorID, nil)
	return prof, nil
}

// HistorySummary reports visit statistics over the doctor's merged patients.
func (s *PatientService) HistorySummary(ctx context.Context, caller domain.Caller, doctorID string, w patient.DateWindow) (_ *patient.HistorySummary, err error) {
	ctx, span := tracer.Start(ctx, "PatientService.HistorySummary")
	defer func() { finishSpan(span, err) }()

	if err := requireIDs("doctor_id", doctorID); err != nil {
		return nil, err
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}

	f := patient.Filter{DoctorID: doctorID}
	docs, err := s.repo.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	sum := patient.Summarize(patient.Merge(docs, w, s.now()), recentVisitsInSummary)
	sum.TotalRecords = total
	return sum, nil
}

func appendUnique(dst, src []*patient.Patient) []*patient.Patient {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[d.ID.Hex()] = true
	}
	for _, d := range src {
		if !seen[d.ID.Hex()] {
			seen[d.ID.Hex()] = true
			dst = append(dst, d)
		}
	}
	return dst
}

func validateRegisterCommand(cmd *patient.RegisterPatientCommand) error {
	var errs []string

	if cmd.DoctorID == "" {
		errs = append(errs, "doctor_id is required")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "patient_name is required")
	}
	if strings.TrimSpace(cmd.Phone) == "" {
		errs = append(errs, "patient_phone is required")
	}
	if cmd.VisitUrgency != "" && cmd.VisitUrgency != patient.UrgencyNormal && cmd.VisitUrgency != patient.UrgencyUrgent {
		errs = append(errs, "visit_urgency must be normal or urgent")
	}
	if cmd.PaymentMethod != "" && !billing.PaymentMethod(cmd.PaymentMethod).IsValid() {
		errs = append(errs, "payment_method is invalid")
	}

	return validationErrors(errs)
}
