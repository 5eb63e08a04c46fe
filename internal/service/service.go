package service

import (
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

type Repositories struct {
	Patients   patient.Repository
	Billings   billing.Repository
	VisitTypes visittype.Repository
	Doctors    doctor.Repository
	Audit      AuditRepository
}

// Services bundles every use case behind the HTTP layer.
type Services struct {
	Audit     *AuditService
	Patients  *PatientService
	Visits    *VisitService
	Billing   *BillingService
	VisitType *VisitTypeService
	Doctors   *DoctorService
}

// New wires the services over repos. Services that write patient documents
// share one key lock so they serialise against each other.
func New(repos Repositories, addOnLabels []string, m *metrics.Collector, log *zap.Logger) *Services {
	auditSvc := NewAuditService(repos.Audit, m, log.Named("audit"))
	pricer := NewPricer(repos.Doctors, repos.VisitTypes)
	billingSvc := NewBillingService(repos.Billings, repos.Patients, auditSvc, m, log.Named("billing"))

	locks := newKeyLock()
	patients := NewPatientService(repos.Patients, billingSvc, pricer, auditSvc, m, log.Named("patients"))
	patients.locks = locks
	visits := NewVisitService(repos.Patients, auditSvc, m, log.Named("visits"))
	visits.locks = locks
	visitTypes := NewVisitTypeService(repos.VisitTypes, repos.Patients, repos.Billings, pricer, addOnLabels, auditSvc, m, log.Named("visit_types"))
	visitTypes.locks = locks

	return &Services{
		Audit:     auditSvc,
		Patients:  patients,
		Visits:    visits,
		Billing:   billingSvc,
		VisitType: visitTypes,
		Doctors:   NewDoctorService(repos.Doctors, auditSvc, log.Named("doctors")),
	}
}
