package models

// Student is a dormitory resident on the roster.
type Student struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	RoomNumber  string `db:"room_number" json:"roomNumber"`
	PhoneNumber string `db:"phone_number" json:"phoneNumber"`
	GroupName   string `db:"group_name" json:"group_name"`
}

// DefaultPhoneNumber is stored when an import row carries no phone column.
const DefaultPhoneNumber = "無資料"
