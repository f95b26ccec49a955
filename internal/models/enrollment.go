package models

import "time"

// Enrollment statuses.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusCancelled = "cancelled"
)

// Enrollment is a time-bounded course membership. EffectiveTo is nil while
// the enrollment is open-ended; at most one open enrollment may exist per
// (course, student) pair. UpdatedAt feeds the staleness check on
// materialized instances.
type Enrollment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CourseID      uint       `gorm:"not null;index" json:"course_id"`
	StudentID     uint       `gorm:"not null;index" json:"student_id"`
	EffectiveFrom time.Time  `gorm:"not null" json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
	Status        string     `gorm:"size:32;not null;default:active" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ActiveOn reports whether the enrollment covers the given day. Both interval
// bounds are inclusive; cancelled enrollments never count.
func (e Enrollment) ActiveOn(day time.Time) bool {
	if e.Status == EnrollmentStatusCancelled {
		return false
	}
	if day.Before(e.EffectiveFrom) {
		return false
	}
	if e.EffectiveTo != nil && day.After(*e.EffectiveTo) {
		return false
	}
	return true
}

// Open reports whether the enrollment is still open-ended.
func (e Enrollment) Open() bool {
	return e.Status == EnrollmentStatusActive && e.EffectiveTo == nil
}
