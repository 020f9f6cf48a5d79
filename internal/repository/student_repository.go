package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chenglin1712/deming-rollcall/internal/models"
)

// Group comparison is trimmed and case-insensitive in every query.
const groupMatch = "LOWER(TRIM(group_name)) = LOWER(TRIM(?))"

// StudentRepository handles persistence for the roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByGroup returns the students of one group ordered by room then id.
func (r *StudentRepository) ListByGroup(ctx context.Context, group string) ([]models.Student, error) {
	query := r.db.Rebind(`SELECT id, name, room_number, phone_number, group_name FROM students WHERE ` + groupMatch + ` ORDER BY room_number ASC, id ASC`)
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, group); err != nil {
		return nil, fmt.Errorf("list students by group: %w", err)
	}
	return students, nil
}

// ListAll returns the whole roster ordered by group, room then id.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, name, room_number, phone_number, group_name FROM students ORDER BY group_name ASC, room_number ASC, id ASC`
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListGroups returns the distinct trimmed group names in ascending order.
func (r *StudentRepository) ListGroups(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT TRIM(group_name) AS group_name FROM students WHERE group_name IS NOT NULL AND TRIM(group_name) <> '' ORDER BY group_name ASC`
	groups := make([]string, 0)
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// Create inserts a student and reports false when the id is already taken.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (bool, error) {
	query := r.db.Rebind(`INSERT INTO students (id, name, room_number, phone_number, group_name) VALUES (?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query, student.ID, student.Name, student.RoomNumber, student.PhoneNumber, student.GroupName)
	if err != nil {
		return false, fmt.Errorf("create student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create student: %w", err)
	}
	return affected > 0, nil
}

// Upsert writes every student in one transaction, replacing rows with the same
// id. Nothing is persisted when any row fails.
func (r *StudentRepository) Upsert(ctx context.Context, students []models.Student) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin student upsert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO students (id, name, room_number, phone_number, group_name) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, room_number = excluded.room_number, phone_number = excluded.phone_number, group_name = excluded.group_name`))
	if err != nil {
		return 0, fmt.Errorf("prepare student upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for i := range students {
		s := &students[i]
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.RoomNumber, s.PhoneNumber, s.GroupName); err != nil {
			return 0, fmt.Errorf("upsert student %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit student upsert: %w", err)
	}
	commit = true
	return len(students), nil
}
