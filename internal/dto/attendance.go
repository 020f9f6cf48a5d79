package dto

import "strings"

// AttendanceEntryRequest is one student's status inside a submission. The
// camel-case aliases are what older front ends send.
type AttendanceEntryRequest struct {
	StudentID       string `json:"student_id" validate:"required"`
	LegacyStudentID string `json:"studentId,omitempty" validate:"-"`
	StudentName     string `json:"studentName"`
	LegacyName      string `json:"name,omitempty" validate:"-"`
	Status          string `json:"status" validate:"required,attendance_status"`
}

// SubmitAttendanceRequest is the room-check submission payload.
type SubmitAttendanceRequest struct {
	Date           string                   `json:"date" validate:"required,rollcall_date"`
	Group          string                   `json:"group" validate:"required"`
	AttendanceData []AttendanceEntryRequest `json:"attendanceData" validate:"required,min=1,dive"`
	LegacyData     []AttendanceEntryRequest `json:"data,omitempty" validate:"-"`
}

// Normalize trims fields and folds the legacy aliases into the canonical ones.
func (r *SubmitAttendanceRequest) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.Group = strings.TrimSpace(r.Group)
	if len(r.AttendanceData) == 0 && len(r.LegacyData) > 0 {
		r.AttendanceData = r.LegacyData
	}
	r.LegacyData = nil
	for i := range r.AttendanceData {
		entry := &r.AttendanceData[i]
		if entry.StudentID == "" {
			entry.StudentID = entry.LegacyStudentID
		}
		if entry.StudentName == "" {
			entry.StudentName = entry.LegacyName
		}
		entry.StudentID = strings.TrimSpace(entry.StudentID)
		entry.StudentName = strings.TrimSpace(entry.StudentName)
		entry.Status = strings.TrimSpace(entry.Status)
	}
}

// SubmitAttendanceResponse reports a committed submission.
type SubmitAttendanceResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Count    int      `json:"count"`
	Warnings []string `json:"warnings"`
}

// HistoryQuery filters the attendance history.
type HistoryQuery struct {
	Date  string `form:"date" validate:"omitempty,rollcall_date"`
	Group string `form:"group"`
}

// ExportQuery selects the slice and format of an export.
type ExportQuery struct {
	Date   string `form:"date" validate:"required,rollcall_date"`
	Group  string `form:"group"`
	Format string `form:"format" validate:"omitempty,oneof=xlsx csv pdf"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
