package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionStudentCreate    = "STUDENT_CREATE"
	AuditActionStudentImport    = "STUDENT_IMPORT"
	AuditActionAttendanceSubmit = "ATTENDANCE_SUBMIT"
	AuditActionAttendanceClear  = "ATTENDANCE_CLEAR"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Action    string    `db:"action" json:"action"`
	Resource  string    `db:"resource" json:"resource"`
	Detail    string    `db:"detail" json:"detail"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
