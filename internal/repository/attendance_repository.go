package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chenglin1712/deming-rollcall/internal/models"
)

// AttendanceKey names one student inside a duplicate report.
type AttendanceKey struct {
	StudentID   string `db:"student_id"`
	StudentName string `db:"student_name"`
}

// DuplicateAttendanceError is returned when any student of a submission is
// already recorded for the date. The whole submission is rolled back.
type DuplicateAttendanceError struct {
	Date     string
	Students []AttendanceKey
}

func (e *DuplicateAttendanceError) Error() string {
	ids := make([]string, len(e.Students))
	for i, s := range e.Students {
		ids[i] = s.StudentID
	}
	return fmt.Sprintf("attendance already recorded on %s for %s", e.Date, strings.Join(ids, ", "))
}

// AttendanceRepository persists the attendance ledger.
type AttendanceRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db, now: time.Now}
}

// ListDates returns the distinct recorded dates, newest first.
func (r *AttendanceRepository) ListDates(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT date FROM attendance ORDER BY date DESC`
	dates := make([]string, 0)
	if err := r.db.SelectContext(ctx, &dates, query); err != nil {
		return nil, fmt.Errorf("list attendance dates: %w", err)
	}
	return dates, nil
}

// List returns attendance records with the student's current room, ordered by
// date descending then room and name ascending.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Date != "" {
		conditions = append(conditions, "a.date = ?")
		args = append(args, filter.Date)
	}
	if strings.TrimSpace(filter.Group) != "" {
		conditions = append(conditions, "LOWER(TRIM(a.group_name)) = LOWER(TRIM(?))")
		args = append(args, filter.Group)
	}

	query := `SELECT a.id, a.date, a.student_id, a.student_name, a.status, COALESCE(s.room_number, a.room_number) AS room_number, a.group_name
FROM attendance a LEFT JOIN students s ON s.id = a.student_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.date DESC, COALESCE(s.room_number, a.room_number) ASC, a.student_name ASC"

	records := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

type rosterEntry struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	RoomNumber string `db:"room_number"`
}

// Submit records a room check atomically. Any student already recorded for the
// date, including one inserted concurrently, aborts the whole submission with
// *DuplicateAttendanceError. Entries whose student is not on the roster are
// stored with an N/A room and reported back as warnings.
func (r *AttendanceRepository) Submit(ctx context.Context, submission models.AttendanceSubmission) (*models.SubmissionResult, error) {
	if len(submission.Entries) == 0 {
		return &models.SubmissionResult{Warnings: []string{}}, nil
	}
	ids := make([]string, len(submission.Entries))
	for i, entry := range submission.Entries {
		ids[i] = entry.StudentID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attendance submit: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	query, args, err := sqlx.In(`SELECT student_id, student_name FROM attendance WHERE date = ? AND student_id IN (?) ORDER BY student_id`, submission.Date, ids)
	if err != nil {
		return nil, fmt.Errorf("build duplicate query: %w", err)
	}
	var existing []AttendanceKey
	if err := tx.SelectContext(ctx, &existing, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("check duplicate attendance: %w", err)
	}
	if len(existing) > 0 {
		return nil, &DuplicateAttendanceError{Date: submission.Date, Students: existing}
	}

	query, args, err = sqlx.In(`SELECT id, name, room_number FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build roster query: %w", err)
	}
	var roster []rosterEntry
	if err := tx.SelectContext(ctx, &roster, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("resolve rooms: %w", err)
	}
	byID := make(map[string]rosterEntry, len(roster))
	for _, entry := range roster {
		byID[entry.ID] = entry
	}

	insert := tx.Rebind(`INSERT INTO attendance (date, student_id, student_name, status, room_number, group_name, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (date, student_id) DO NOTHING`)
	now := r.now().UTC()
	warnings := make([]string, 0)
	for _, entry := range submission.Entries {
		room := models.UnresolvedRoom
		name := entry.StudentName
		if student, ok := byID[entry.StudentID]; ok {
			room = student.RoomNumber
			if name == "" {
				name = student.Name
			}
		} else {
			warnings = append(warnings, entry.StudentID)
		}
		if name == "" {
			name = entry.StudentID
		}

		res, err := tx.ExecContext(ctx, insert, submission.Date, entry.StudentID, name, entry.Status, room, submission.Group, now)
		if err != nil {
			return nil, fmt.Errorf("insert attendance for %s: %w", entry.StudentID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("insert attendance for %s: %w", entry.StudentID, err)
		}
		if affected == 0 {
			return nil, &DuplicateAttendanceError{
				Date:     submission.Date,
				Students: []AttendanceKey{{StudentID: entry.StudentID, StudentName: name}},
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attendance submit: %w", err)
	}
	commit = true
	return &models.SubmissionResult{Count: len(submission.Entries), Warnings: warnings}, nil
}

// ClearAll deletes every attendance record and returns how many were removed.
func (r *AttendanceRepository) ClearAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance`)
	if err != nil {
		return 0, fmt.Errorf("clear attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear attendance: %w", err)
	}
	return n, nil
}
