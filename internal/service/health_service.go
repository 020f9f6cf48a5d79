package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chenglin1712/deming-rollcall/pkg/database"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports database and cache reachability.
type HealthService struct {
	db    *sqlx.DB
	cache pinger
}

// NewHealthService constructs a HealthService. cache may be nil.
func NewHealthService(db *sqlx.DB, cache pinger) *HealthService {
	return &HealthService{db: db, cache: cache}
}

// DatabaseVersion returns the engine version, failing when the database is
// unreachable.
func (s *HealthService) DatabaseVersion(ctx context.Context) (string, error) {
	return database.Version(ctx, s.db)
}

// Ready checks every backing store.
func (s *HealthService) Ready(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}
