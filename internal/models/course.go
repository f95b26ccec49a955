package models

import "time"

// Course statuses.
const (
	CourseStatusActive    = "active"
	CourseStatusCancelled = "cancelled"
	CourseStatusCompleted = "completed"
)

// Course aggregates one or more class templates over a bounded date range,
// so a single course can meet on several weekly slots. UpdatedAt feeds the
// staleness check on materialized instances.
type Course struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	BusinessID uint             `gorm:"not null;index" json:"business_id"`
	Name       string           `gorm:"size:255;not null" json:"name"`
	StartDate  time.Time        `gorm:"not null" json:"start_date"`
	EndDate    time.Time        `gorm:"not null" json:"end_date"`
	Status     string           `gorm:"size:32;not null;default:active" json:"status"`
	Templates  []CourseTemplate `gorm:"constraint:OnDelete:CASCADE" json:"templates,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// CourseTemplate links a course to a template, keeping the order in which
// slots were attached to the course.
type CourseTemplate struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CourseID   uint `gorm:"not null;uniqueIndex:idx_course_template" json:"course_id"`
	TemplateID uint `gorm:"not null;uniqueIndex:idx_course_template;index" json:"template_id"`
	Position   int  `gorm:"not null;default:0" json:"position"`
}

// CoversDate reports whether the course's own date window contains the day.
// Both bounds are inclusive.
func (c Course) CoversDate(day time.Time) bool {
	if day.Before(c.StartDate) {
		return false
	}
	return !day.After(c.EndDate)
}

// TemplateIDs returns the attached template identifiers in position order.
func (c Course) TemplateIDs() []uint {
	ids := make([]uint, 0, len(c.Templates))
	for _, link := range c.Templates {
		ids = append(ids, link.TemplateID)
	}
	return ids
}
