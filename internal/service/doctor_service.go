package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
)

type DoctorService struct {
	repo     doctor.Repository
	auditSvc *AuditService
	log      *zap.Logger
	now      func() time.Time
}

func NewDoctorService(repo doctor.Repository, auditSvc *AuditService, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, auditSvc: auditSvc, log: log, now: time.Now}
}

// GetSettings returns the doctor's document, or one carrying default settings
// when the doctor has never saved any.
func (s *DoctorService) GetSettings(ctx context.Context, caller domain.Caller, doctorID string) (*doctor.Doctor, error) {
	if err := requireIDs("doctor_id", doctorID); err != nil {
		return nil, err
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}

	d, err := s.repo.FindByDoctorID(ctx, doctorID)
	if errors.Is(err, doctor.ErrDoctorNotFound) {
		return &doctor.Doctor{DoctorID: doctorID, Settings: doctor.DefaultSettings()}, nil
	}
	return d, err
}

func (s *DoctorService) UpdateSettings(ctx context.Context, caller domain.Caller, doctorID string, cmd *doctor.UpdateSettingsCommand) (*doctor.Doctor, error) {
	if err := requireIDs("doctor_id", doctorID); err != nil {
		return nil, err
	}
	for _, fee := range cmd.Fees() {
		if fee != nil && *fee < 0 {
			return nil, doctor.ErrNegativeFee
		}
	}
	if !caller.CanActFor(doctorID) {
		return nil, ErrForbidden
	}

	d, err := s.GetSettings(ctx, caller, doctorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cmd.Apply(d)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	if err := s.repo.Upsert(ctx, d); err != nil {
		s.log.Error("failed to update doctor settings", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, fmt.Errorf("updating doctor settings: %w", err)
	}

	s.auditSvc.Record(ctx, caller, domain.ActionUpdate, "doctor_settings", doctorID, doctorID, nil)
	return d, nil
}
