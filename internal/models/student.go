package models

import "time"

// Student is a permanent, enrollable member of a business.
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID uint      `gorm:"not null;index" json:"business_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255" json:"email"`
	Phone      string    `gorm:"size:64" json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TempStudent is a walk-in created by a teacher for a single class instance.
// Temp students show up in the instance's effective roster display but never
// participate in enrollment-based materialization.
type TempStudent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID uint      `gorm:"not null;index" json:"business_id"`
	InstanceID uint      `gorm:"not null;index" json:"instance_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
