package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
)

// Pricer loads a doctor's pricing inputs and runs the visit type resolver.
type Pricer struct {
	doctors doctor.Repository
	configs visittype.Repository
}

func NewPricer(doctors doctor.Repository, configs visittype.Repository) *Pricer {
	return &Pricer{doctors: doctors, configs: configs}
}

func (p *Pricer) Resolve(ctx context.Context, doctorID, visitType, urgency string) (visittype.Resolution, error) {
	var settings *doctor.Settings
	d, err := p.doctors.FindByDoctorID(ctx, doctorID)
	switch {
	case err == nil:
		settings = &d.Settings
	case !errors.Is(err, doctor.ErrDoctorNotFound):
		return visittype.Resolution{}, fmt.Errorf("loading doctor settings: %w", err)
	}

	cfg, err := p.configs.FindByDoctor(ctx, doctorID)
	if err != nil && !errors.Is(err, visittype.ErrConfigurationNotFound) {
		return visittype.Resolution{}, fmt.Errorf("loading visit type configuration: %w", err)
	}

	return visittype.Resolve(settings, cfg, visitType, urgency), nil
}
