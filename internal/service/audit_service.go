package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/pkg/jobs"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditService writes audit entries through a background queue so requests do
// not wait on them. Entries are written inline when the queue is not running
// or is full.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditService constructs the service; call Start to enable queueing.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", func(ctx context.Context, entry models.AuditLog) error {
		return s.repo.CreateAuditLog(ctx, &entry)
	}, jobs.QueueConfig{Workers: 1, BufferSize: 256, MaxRetries: 2, Logger: logger})
	return s
}

// Start launches the background writer.
func (s *AuditService) Start() {
	s.queue.Start()
}

// Stop drains pending entries.
func (s *AuditService) Stop(ctx context.Context) error {
	return s.queue.Stop(ctx)
}

// Record stores an audit entry. Failures are logged, never returned.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.queue.Enqueue(entry); err == nil {
		return
	}
	if err := s.repo.CreateAuditLog(ctx, &entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
