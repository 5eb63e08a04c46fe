package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap/zaptest"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

var fixedNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

// memPatients stores copies so tests observe only what was saved.
type memPatients struct {
	mu    sync.Mutex
	docs  []*patient.Patient
	saves int
	// saveErr, when set, is returned by every Save.
	saveErr error
}

func clonePatient(p *patient.Patient) *patient.Patient {
	c := *p
	c.Visits = slices.Clone(p.Visits)
	for i := range c.Visits {
		c.Visits[i].Receipts = slices.Clone(c.Visits[i].Receipts)
	}
	c.VisitTypeChangeHistory = slices.Clone(p.VisitTypeChangeHistory)
	return &c
}

func matchPatient(p *patient.Patient, f patient.Filter) bool {
	if f.DoctorID != "" && p.DoctorID != f.DoctorID {
		return false
	}
	if f.PatientID != "" && p.PatientID != f.PatientID {
		return false
	}
	if f.Phone != "" && p.Phone != f.Phone {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		return strings.Contains(strings.ToLower(p.Name), s) || strings.Contains(p.Phone, s)
	}
	return true
}

func (m *memPatients) Find(_ context.Context, f patient.Filter) ([]*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*patient.Patient
	for _, p := range m.docs {
		if matchPatient(p, f) {
			out = append(out, clonePatient(p))
		}
	}
	return out, nil
}

func (m *memPatients) FindOne(ctx context.Context, f patient.Filter) (*patient.Patient, error) {
	docs, _ := m.Find(ctx, f)
	if len(docs) == 0 {
		return nil, patient.ErrPatientNotFound
	}
	return docs[0], nil
}

func (m *memPatients) Insert(_ context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	m.docs = append(m.docs, clonePatient(p))
	return nil
}

func (m *memPatients) Save(_ context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for i, stored := range m.docs {
		if stored.ID != p.ID {
			continue
		}
		if stored.Version != p.Version {
			return patient.ErrConcurrentModification
		}
		p.Version++
		m.docs[i] = clonePatient(p)
		m.saves++
		return nil
	}
	return patient.ErrPatientNotFound
}

func (m *memPatients) Count(ctx context.Context, f patient.Filter) (int64, error) {
	docs, _ := m.Find(ctx, f)
	return int64(len(docs)), nil
}

func (m *memPatients) seed(docs ...*patient.Patient) {
	for _, d := range docs {
		_ = m.Insert(context.Background(), d)
	}
}

func (m *memPatients) get(patientID string) *patient.Patient {
	p, _ := m.FindOne(context.Background(), patient.Filter{PatientID: patientID})
	return p
}

type memBillings struct {
	mu    sync.Mutex
	bills []*billing.Billing
	saves int
}

func cloneBilling(b *billing.Billing) *billing.Billing {
	c := *b
	c.Services = slices.Clone(b.Services)
	if b.Discount != nil {
		d := *b.Discount
		c.Discount = &d
	}
	return &c
}

func (m *memBillings) Insert(_ context.Context, b *billing.Billing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills = append(m.bills, cloneBilling(b))
	return nil
}

func (m *memBillings) Save(_ context.Context, b *billing.Billing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, stored := range m.bills {
		if stored.BillingID == b.BillingID {
			m.bills[i] = cloneBilling(b)
			m.saves++
			return nil
		}
	}
	return billing.ErrBillingNotFound
}

func (m *memBillings) FindOne(_ context.Context, doctorID, billingID string) (*billing.Billing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bills {
		if b.DoctorID == doctorID && b.BillingID == billingID {
			return cloneBilling(b), nil
		}
	}
	return nil, billing.ErrBillingNotFound
}

func (m *memBillings) FindByVisit(_ context.Context, visitID string) (*billing.Billing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bills {
		if b.VisitID == visitID {
			return cloneBilling(b), nil
		}
	}
	return nil, billing.ErrBillingNotFound
}

func (m *memBillings) FindMostRecent(_ context.Context, doctorID, patientID string, exclude []string) (*billing.Billing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *billing.Billing
	for _, b := range m.bills {
		if b.DoctorID != doctorID || b.PatientID != patientID || billing.IsServiceAddOn(b.ConsultationType, exclude) {
			continue
		}
		if best == nil || b.CreatedAt.After(best.CreatedAt) {
			best = b
		}
	}
	if best == nil {
		return nil, billing.ErrBillingNotFound
	}
	return cloneBilling(best), nil
}

func (m *memBillings) List(_ context.Context, q *billing.ListQuery) (*billing.PagedBillings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*billing.Billing
	for _, b := range m.bills {
		if b.DoctorID == q.DoctorID && (q.PatientID == "" || b.PatientID == q.PatientID) &&
			(q.PaymentStatus == "" || b.PaymentStatus == q.PaymentStatus) {
			all = append(all, cloneBilling(b))
		}
	}
	start, end := domain.PageBounds(len(all), q.Page, q.PageSize)
	return &billing.PagedBillings{
		Billings:   all[start:end],
		TotalCount: int64(len(all)),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: domain.TotalPages(int64(len(all)), q.PageSize),
	}, nil
}

type memConfigs struct {
	cfg map[string]*visittype.Configuration
}

func (m *memConfigs) FindByDoctor(_ context.Context, doctorID string) (*visittype.Configuration, error) {
	if c, ok := m.cfg[doctorID]; ok {
		return c, nil
	}
	return nil, visittype.ErrConfigurationNotFound
}

func (m *memConfigs) Upsert(_ context.Context, c *visittype.Configuration) error {
	if m.cfg == nil {
		m.cfg = map[string]*visittype.Configuration{}
	}
	m.cfg[c.DoctorID] = c
	return nil
}

type memDoctors struct {
	docs map[string]*doctor.Doctor
}

func (m *memDoctors) FindByDoctorID(_ context.Context, doctorID string) (*doctor.Doctor, error) {
	if d, ok := m.docs[doctorID]; ok {
		c := *d
		return &c, nil
	}
	return nil, doctor.ErrDoctorNotFound
}

func (m *memDoctors) Upsert(_ context.Context, d *doctor.Doctor) error {
	if m.docs == nil {
		m.docs = map[string]*doctor.Doctor{}
	}
	c := *d
	m.docs[d.DoctorID] = &c
	return nil
}

// MockBillingRepository lets tests assert which writes were attempted.
type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) Insert(ctx context.Context, b *billing.Billing) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBillingRepository) Save(ctx context.Context, b *billing.Billing) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBillingRepository) FindOne(ctx context.Context, doctorID, billingID string) (*billing.Billing, error) {
	args := m.Called(ctx, doctorID, billingID)
	b, _ := args.Get(0).(*billing.Billing)
	return b, args.Error(1)
}

func (m *MockBillingRepository) FindByVisit(ctx context.Context, visitID string) (*billing.Billing, error) {
	args := m.Called(ctx, visitID)
	b, _ := args.Get(0).(*billing.Billing)
	return b, args.Error(1)
}

func (m *MockBillingRepository) FindMostRecent(ctx context.Context, doctorID, patientID string, exclude []string) (*billing.Billing, error) {
	args := m.Called(ctx, doctorID, patientID, exclude)
	b, _ := args.Get(0).(*billing.Billing)
	return b, args.Error(1)
}

func (m *MockBillingRepository) List(ctx context.Context, q *billing.ListQuery) (*billing.PagedBillings, error) {
	args := m.Called(ctx, q)
	p, _ := args.Get(0).(*billing.PagedBillings)
	return p, args.Error(1)
}

var testAddOnLabels = []string{"خدمات إضافية", "Additional Services"}

type testEnv struct {
	svc      *Services
	patients *memPatients
	billings billing.Repository
	configs  *memConfigs
	doctors  *memDoctors
	metrics  *metrics.Collector
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithBillings(t, &memBillings{})
}

func newTestEnvWithBillings(t *testing.T, billings billing.Repository) *testEnv {
	t.Helper()
	env := &testEnv{
		patients: &memPatients{},
		billings: billings,
		configs:  &memConfigs{},
		doctors:  &memDoctors{},
		metrics:  metrics.NewCollector("clinicdesk_test", prometheus.NewRegistry()),
	}
	env.svc = New(Repositories{
		Patients:   env.patients,
		Billings:   billings,
		VisitTypes: env.configs,
		Doctors:    env.doctors,
	}, testAddOnLabels, env.metrics, zaptest.NewLogger(t))
	t.Cleanup(env.svc.Audit.Shutdown)

	clock := func() time.Time { return fixedNow }
	env.svc.Patients.now = clock
	env.svc.Visits.now = clock
	env.svc.Billing.now = clock
	env.svc.VisitType.now = clock
	env.svc.Doctors.now = clock
	return env
}

func (e *testEnv) memBillings() *memBillings {
	return e.billings.(*memBillings)
}

var (
	doctorCaller = domain.Caller{UserID: "u-1", Role: domain.RoleDoctor, DoctorID: "doc-1"}
	otherDoctor  = domain.Caller{UserID: "u-2", Role: domain.RoleDoctor, DoctorID: "doc-2"}
	adminCaller  = domain.Caller{UserID: "root", Role: domain.RoleAdmin}
)

func storedPatient(patientID, phone, name, date string, visits ...patient.Visit) *patient.Patient {
	p := &patient.Patient{
		PatientID: patientID,
		Name:      name,
		Phone:     phone,
		DoctorID:  "doc-1",
		Date:      date,
	}
	p.Visits = visits
	p.ApplyDefaults()
	return p
}

func visitAt(id, date string) patient.Visit {
	return patient.Visit{VisitID: id, Date: patient.ParseVisitDate(date), Receipts: []patient.Receipt{}}
}
