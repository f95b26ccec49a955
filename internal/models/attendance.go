package models

import "time"

// Attendance statuses. StatusNone is the unmark sentinel accepted on the
// write path; it is never persisted, it deletes the record instead.
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusLate    = "late"
	AttendanceStatusExcused = "excused"
	AttendanceStatusNone    = "none"
)

// AttendanceRecord stores one mark per (instance, student). A repeat mark
// overwrites the row, an unmark deletes it.
type AttendanceRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	InstanceID uint      `gorm:"not null;uniqueIndex:idx_attendance_instance_student" json:"instance_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_attendance_instance_student" json:"student_id"`
	Status     string    `gorm:"size:32;not null" json:"status"`
	Notes      string    `gorm:"type:text" json:"notes"`
	MarkedBy   uint      `json:"marked_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
