package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chenglin1712/deming-rollcall/internal/models"
)

// UserRepository provides database access for staff accounts and the audit trail.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by login name. sql.ErrNoRows is returned as is.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := r.db.Rebind(`SELECT username, password_hash, display_name, created_at FROM users WHERE username = ? LIMIT 1`)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// EnsureAccount inserts the user unless the username already exists and
// reports whether a row was created.
func (r *UserRepository) EnsureAccount(ctx context.Context, user *models.User) (bool, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`INSERT INTO users (username, password_hash, display_name, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (username) DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.DisplayName, user.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("ensure account %s: %w", user.Username, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure account %s: %w", user.Username, err)
	}
	return affected > 0, nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.Detail == "" {
		log.Detail = "{}"
	}
	const query = `INSERT INTO audit_logs (id, username, action, resource, detail, ip_address, user_agent, created_at) VALUES (:id, :username, :action, :resource, :detail, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
