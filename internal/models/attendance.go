package models

// AttendanceStatus is the room-check outcome for one student on one night.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "在寢"
	AttendanceStatusAbsent  AttendanceStatus = "未歸"
	AttendanceStatusLate    AttendanceStatus = "晚歸"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// UnresolvedRoom is recorded when the student cannot be found at submit time.
const UnresolvedRoom = "N/A"

// AttendanceRecord is one row of the attendance ledger. RoomNumber is the
// student's current room when read through history queries.
type AttendanceRecord struct {
	ID          int64            `db:"id" json:"id"`
	Date        string           `db:"date" json:"date"`
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"name"`
	Status      AttendanceStatus `db:"status" json:"status"`
	RoomNumber  string           `db:"room_number" json:"roomNumber"`
	GroupName   string           `db:"group_name" json:"group_name"`
}

// AttendanceFilter narrows history and export queries. Empty fields match all.
type AttendanceFilter struct {
	Date  string
	Group string
}

// AttendanceEntry is one student's status inside a submission.
type AttendanceEntry struct {
	StudentID   string
	StudentName string
	Status      AttendanceStatus
}

// AttendanceSubmission is a validated room check for one date and group.
type AttendanceSubmission struct {
	Date    string
	Group   string
	Entries []AttendanceEntry
}

// SubmissionResult summarises a committed submission.
type SubmissionResult struct {
	Count    int
	Warnings []string
}
