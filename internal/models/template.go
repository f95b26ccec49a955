package models

import "time"

// ClassTemplate is a recurring weekly time slot that dated class instances
// are generated from. Templates are soft-deactivated rather than deleted
// while a course still references them.
type ClassTemplate struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BusinessID      uint      `gorm:"not null;index" json:"business_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Weekday         int       `gorm:"not null" json:"weekday"`
	StartTime       string    `gorm:"size:5;not null" json:"start_time"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	TeacherID       uint      `json:"teacher_id"`
	Room            string    `gorm:"size:128" json:"room"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OccursOn reports whether the template's weekly slot falls on the given day.
func (t ClassTemplate) OccursOn(day time.Time) bool {
	return int(day.Weekday()) == t.Weekday
}
