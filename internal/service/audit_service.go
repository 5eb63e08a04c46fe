package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// AuditReader is implemented by audit stores that can be queried back.
type AuditReader interface {
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]domain.AuditLog, error)
}

var ErrAuditUnavailable = errors.New("audit history is not stored in this deployment")

const auditHistoryLimit = 200

type AuditService struct {
	repo    AuditRepository
	metrics *metrics.Collector
	log     *zap.Logger
	entries chan *domain.AuditLog
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

const auditBufferSize = 10_000

// NewAuditService starts the persistence worker. With a nil repo entries are
// written to the log instead of a database.
func NewAuditService(repo AuditRepository, m *metrics.Collector, log *zap.Logger) *AuditService {
	svc := &AuditService{
		repo:    repo,
		metrics: m,
		log:     log,
		entries: make(chan *domain.AuditLog, auditBufferSize),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// LogAsync enqueues an audit entry for async persistence.
// If the buffer is full, the entry is dropped and a warning is emitted.
func (s *AuditService) LogAsync(ctx context.Context, entry AuditEntry) {
	al := &domain.AuditLog{
		UserID:       entry.UserID,
		UserRole:     domain.Role(entry.UserRole),
		DoctorID:     entry.DoctorID,
		Action:       domain.AuditAction(entry.Action),
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		StatusCode:   entry.StatusCode,
	}
	if entry.Changes != "" {
		changes := entry.Changes
		al.Changes = &changes
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.metrics.AuditBufferDropped.Inc()
		s.log.Warn("audit service stopped, dropping entry",
			zap.String("action", entry.Action),
			zap.String("resource", entry.ResourceType),
		)
		return
	}

	select {
	case s.entries <- al:
	default:
		s.metrics.AuditBufferDropped.Inc()
		s.log.Warn("audit log buffer full, dropping entry",
			zap.String("action", entry.Action),
			zap.String("resource", entry.ResourceType),
		)
	}
}

// Record builds an entry for caller acting on a resource. changes is encoded
// as JSON; nil stores NULL.
func (s *AuditService) Record(ctx context.Context, caller domain.Caller, action domain.AuditAction, resourceType, resourceID, doctorID string, changes any) {
	entry := AuditEntry{
		UserID:       caller.Actor(),
		UserRole:     string(caller.Role),
		DoctorID:     doctorID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    caller.IP,
		RequestID:    caller.RequestID,
	}
	if changes != nil {
		if b, err := json.Marshal(changes); err == nil {
			entry.Changes = string(b)
		}
	}
	s.LogAsync(ctx, entry)
}

// History returns the stored entries for one resource, newest first. Only
// admins may read the trail.
func (s *AuditService) History(ctx context.Context, caller domain.Caller, resourceType, resourceID string) ([]domain.AuditLog, error) {
	if err := requireIDs("resource_type", resourceType, "resource_id", resourceID); err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	reader, ok := s.repo.(AuditReader)
	if !ok {
		return nil, ErrAuditUnavailable
	}
	return reader.ListByResource(ctx, resourceType, resourceID, auditHistoryLimit)
}

// Shutdown stops accepting entries and waits for the worker to drain the
// buffer. Entries logged afterwards are counted as dropped. Safe to call more
// than once.
func (s *AuditService) Shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("audit service shutdown timed out; some entries may be lost")
	}
}

func (s *AuditService) worker() {
	defer close(s.done)
	for entry := range s.entries {
		if s.repo == nil {
			s.log.Info("audit",
				zap.String("action", string(entry.Action)),
				zap.String("resource_type", entry.ResourceType),
				zap.String("resource_id", entry.ResourceID),
				zap.String("doctor_id", entry.DoctorID),
				zap.String("user_id", entry.UserID),
				zap.String("request_id", entry.RequestID),
			)
			s.metrics.AuditEntriesTotal.Inc()
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Error("failed to persist audit log", zap.Error(err))
		} else {
			s.metrics.AuditEntriesTotal.Inc()
		}
		cancel()
	}
}
