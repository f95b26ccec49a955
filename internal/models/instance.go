package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClassInstance statuses.
const (
	InstanceStatusScheduled   = "scheduled"
	InstanceStatusCancelled   = "cancelled"
	InstanceStatusCompleted   = "completed"
	InstanceStatusRescheduled = "rescheduled"
)

// ClassInstance is a materialized, dated class session. TemplateID is nil for
// standalone sessions created directly by an administrator; those are exempt
// from roster materialization and regeneration.
//
// StudentIDs is the materialized roster, stored as an explicit list rather
// than resolved by a live query, so per-session manual overrides survive
// future enrollment changes. Once IsModified is set the instance is excluded
// from automatic regeneration permanently.
//
// The unique index on (template_id, date) makes first materialization safe
// under concurrency: the loser of the race hits the constraint and refetches.
type ClassInstance struct {
	ID             uint                      `gorm:"primaryKey" json:"id"`
	BusinessID     uint                      `gorm:"not null;index" json:"business_id"`
	TemplateID     *uint                     `gorm:"uniqueIndex:idx_instance_template_day" json:"template_id"`
	Date           time.Time                 `gorm:"not null;uniqueIndex:idx_instance_template_day;index" json:"date"`
	StartTime      string                    `gorm:"size:5" json:"start_time"`
	TeacherID      uint                      `json:"teacher_id"`
	Room           string                    `gorm:"size:128" json:"room"`
	Status         string                    `gorm:"size:32;not null;default:scheduled" json:"status"`
	StudentIDs     datatypes.JSONSlice[uint] `gorm:"type:json" json:"student_ids"`
	IsModified     bool                      `gorm:"not null;default:false" json:"is_modified"`
	RosterSyncedAt time.Time                 `gorm:"not null" json:"roster_synced_at"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// Standalone reports whether the instance was created ad hoc, outside any
// recurring template.
func (i ClassInstance) Standalone() bool {
	return i.TemplateID == nil
}

// HasStudent reports whether the materialized roster contains the student.
func (i ClassInstance) HasStudent(studentID uint) bool {
	for _, id := range i.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
