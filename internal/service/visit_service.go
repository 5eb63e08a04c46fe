package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

// VisitService edits the visits embedded in a patient document. Every write
// is a load, modify and versioned save under the patient's key lock.
type VisitService struct {
	repo     patient.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
	locks    *keyLock
	now      func() time.Time
}

func NewVisitService(repo patient.Repository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *VisitService {
	return &VisitService{
		repo:     repo,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
		locks:    newKeyLock(),
		now:      time.Now,
	}
}

func (s *VisitService) CreateVisit(ctx context.Context, caller domain.Caller, cmd *patient.CreateVisitCommand) (_ *patient.Visit, err error) {
	ctx, span := tracer.Start(ctx, "VisitService.CreateVisit")
	defer func() { finishSpan(span, err) }()

	if err := requireIDs("doctor_id", cmd.DoctorID, "patient_id", cmd.PatientID); err != nil {
		return nil, err
	}
	if err := patient.ValidateDrugs(cmd.Drugs); err != nil {
		return nil, err
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock("patient", cmd.DoctorID, cmd.PatientID)
	defer unlock()

	p, err := s.repo.FindOne(ctx, patient.Filter{DoctorID: cmd.DoctorID, PatientID: cmd.PatientID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	visit := patient.Visit{
		VisitID:   uuid.NewString(),
		Date:      patient.NewVisitDate(now),
		Time:      now.Format("15:04"),
		VisitType: cmd.VisitType,
		Complaint: cmd.Complaint,
		Diagnosis: cmd.Diagnosis,
		Receipts:  []patient.Receipt{},
	}
	if visit.VisitType == "" {
		visit.VisitType = p.VisitType
	}
	if len(cmd.Drugs) > 0 {
		visit.Receipts = append(visit.Receipts, patient.Receipt{
			Drugs:     cmd.Drugs,
			Notes:     cmd.Notes,
			Date:      now,
			DrugModel: cmd.DrugModel,
		})
	}

	p.Visits = append(p.Visits, visit)
	p.UpdatedAt = now
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.VisitsRecorded.Inc()
	if len(visit.Receipts) > 0 {
		s.metrics.ReceiptsIssued.Inc()
	}
	s.auditSvc.Record(ctx, caller, domain.ActionCreate, "visit", visit.VisitID, p.DoctorID, nil)

	return &visit, nil
}

// VisitHistory pages through one patient's visits, newest first.
func (s *VisitService) VisitHistory(ctx context.Context, caller domain.Caller, q *patient.VisitHistoryQuery) (*patient.VisitHistory, error) {
	if err := requireIDs("doctor_id", q.DoctorID, "patient_id", q.PatientID); err != nil {
		return nil, err
	}
	if !caller.CanActFor(q.DoctorID) {
		return nil, ErrForbidden
	}
	q.Page, q.PageSize = domain.NormalizePage(q.Page, q.PageSize)

	p, err := s.repo.FindOne(ctx, patient.Filter{DoctorID: q.DoctorID, PatientID: q.PatientID})
	if err != nil {
		return nil, err
	}

	visits := patient.FilterVisitsByDate(p.Visits, q.Window, s.now())
	patient.SortVisitsNewestFirst(visits)
	start, end := domain.PageBounds(len(visits), q.Page, q.PageSize)

	return &patient.VisitHistory{
		PatientID:  p.PatientID,
		Name:       p.Name,
		Phone:      p.Phone,
		Age:        p.Age,
		Address:    p.Address,
		Visits:     visits[start:end],
		TotalCount: len(visits),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: domain.TotalPages(int64(len(visits)), q.PageSize),
	}, nil
}

func (s *VisitService) GetVisit(ctx context.Context, caller domain.Caller, doctorID, patientID, visitID string) (*patient.Visit, error) {
	if err := requireIDs("doctor_id", doctorID, "patient_id", patientID, "visit_id", visitID); err != nil {
		return nil, err
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}

	p, err := s.repo.FindOne(ctx, patient.Filter{DoctorID: doctorID, PatientID: patientID})
	if err != nil {
		return nil, err
	}
	idx := p.VisitIndex(visitID)
	if idx < 0 {
		return nil, patient.ErrVisitNotFound
	}
	v := p.Visits[idx]
	return &v, nil
}

// UpdateVisit edits complaint and diagnosis and appends a receipt when drugs
// are given.
func (s *VisitService) UpdateVisit(ctx context.Context, caller domain.Caller, cmd *patient.UpdateVisitCommand) (_ *patient.Visit, err error) {
	ctx, span := tracer.Start(ctx, "VisitService.UpdateVisit")
	defer func() { finishSpan(span, err) }()

	if err := requireIDs("doctor_id", cmd.DoctorID, "patient_id", cmd.PatientID, "visit_id", cmd.VisitID); err != nil {
		return nil, err
	}
	if err := patient.ValidateDrugs(cmd.Drugs); err != nil {
		return nil, err
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock("patient", cmd.DoctorID, cmd.PatientID)
	defer unlock()

	p, err := s.repo.FindOne(ctx, patient.Filter{DoctorID: cmd.DoctorID, PatientID: cmd.PatientID})
	if err != nil {
		return nil, err
	}
	idx := p.VisitIndex(cmd.VisitID)
	if idx < 0 {
		return nil, patient.ErrVisitNotFound
	}

	now := s.now()
	v := &p.Visits[idx]
	if cmd.Complaint != nil {
		v.Complaint = *cmd.Complaint
	}
	if cmd.Diagnosis != nil {
		v.Diagnosis = *cmd.Diagnosis
	}
	if len(cmd.Drugs) > 0 {
		v.Receipts = append(v.Receipts, patient.Receipt{Drugs: cmd.Drugs, Notes: cmd.Notes, Date: now})
	}
	p.UpdatedAt = now

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	if len(cmd.Drugs) > 0 {
		s.metrics.ReceiptsIssued.Inc()
	}
	s.auditSvc.Record(ctx, caller, domain.ActionUpdate, "visit", cmd.VisitID, p.DoctorID, nil)

	out := p.Visits[idx]
	return &out, nil
}

// AddReceipt appends a prescription to the visit named by the command, or to
// the last visit in the stored list when no visit id is given. That target is
// positional and may differ from the newest visit by date.
func (s *VisitService) AddReceipt(ctx context.Context, caller domain.Caller, cmd *patient.AddReceiptCommand) (_ *patient.Visit, err error) {
	ctx, span := tracer.Start(ctx, "VisitService.AddReceipt")
	defer func() { finishSpan(span, err) }()

	if err := requireIDs("doctor_id", cmd.DoctorID, "patient_id", cmd.PatientID); err != nil {
		return nil, err
	}
	if len(cmd.Drugs) == 0 {
		return nil, patient.ErrInvalidDrugs
	}
	if err := patient.ValidateDrugs(cmd.Drugs); err != nil {
		return nil, err
	}
	if !caller.CanActFor(cmd.DoctorID) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock("patient", cmd.DoctorID, cmd.PatientID)
	defer unlock()

	p, err := s.repo.FindOne(ctx, patient.Filter{DoctorID: cmd.DoctorID, PatientID: cmd.PatientID})
	if err != nil {
		return nil, err
	}

	idx := patient.LastVisitIndex(p.Visits)
	if cmd.VisitID != "" {
		idx = p.VisitIndex(cmd.VisitID)
		if idx < 0 {
			return nil, patient.ErrVisitNotFound
		}
	}
	if idx < 0 {
		return nil, patient.ErrNoVisits
	}

	now := s.now()
	p.Visits[idx].Receipts = append(p.Visits[idx].Receipts, patient.Receipt{
		Drugs:     cmd.Drugs,
		Notes:     strings.TrimSpace(cmd.Notes),
		Date:      now,
		DrugModel: cmd.DrugModel,
	})
	p.UpdatedAt = now

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.ReceiptsIssued.Inc()
	s.auditSvc.Record(ctx, caller, domain.ActionUpdate, "receipt", p.Visits[idx].VisitID, p.DoctorID,
		map[string]int{"drugs": len(cmd.Drugs)})

	out := p.Visits[idx]
	return &out, nil
}

func (s *VisitService) save(ctx context.Context, p *patient.Patient) error {
	if err := s.repo.Save(ctx, p); err != nil {
		s.log.Error("failed to save patient visits",
			zap.String("patient_id", p.PatientID),
			zap.String("doctor_id", p.DoctorID),
			zap.Error(err),
		)
		return fmt.Errorf("saving visits: %w", err)
	}
	return nil
}
