package dto

// StudentListQuery selects the roster of one group.
type StudentListQuery struct {
	Group string `form:"group"`
}

// CreateStudentRequest is the manual roster entry payload.
type CreateStudentRequest struct {
	ID          string `json:"id" validate:"required,numeric"`
	Name        string `json:"name" validate:"required"`
	RoomNumber  string `json:"roomNumber" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Group       string `json:"group" validate:"required"`
}

// ImportFile is an uploaded roster sheet.
type ImportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
