package dto

import (
	"time"

	"github.com/studioflow/studioflow-api/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// TemplateCreateRequest describes the payload for creating a recurring slot.
type TemplateCreateRequest struct {
	Name            string `json:"name" validate:"required,min=2"`
	Weekday         int    `json:"weekday" validate:"min=0,max=6"`
	StartTime       string `json:"start_time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=5,max=480"`
	TeacherID       uint   `json:"teacher_id"`
	Room            string `json:"room"`
}

// TemplateUpdateRequest describes a partial update to a recurring slot.
type TemplateUpdateRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=2"`
	Weekday         *int    `json:"weekday" validate:"omitempty,min=0,max=6"`
	StartTime       *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	TeacherID       *uint   `json:"teacher_id"`
	Room            *string `json:"room"`
	Active          *bool   `json:"active"`
}

// TemplateResponse is the serialized representation returned to API clients.
type TemplateResponse struct {
	ID              uint      `json:"id"`
	BusinessID      uint      `json:"business_id"`
	Name            string    `json:"name"`
	Weekday         int       `json:"weekday"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	TeacherID       uint      `json:"teacher_id"`
	Room            string    `json:"room"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewTemplateResponse converts a model into a DTO.
func NewTemplateResponse(model models.ClassTemplate) TemplateResponse {
	return TemplateResponse{
		ID:              model.ID,
		BusinessID:      model.BusinessID,
		Name:            model.Name,
		Weekday:         model.Weekday,
		StartTime:       model.StartTime,
		DurationMinutes: model.DurationMinutes,
		TeacherID:       model.TeacherID,
		Room:            model.Room,
		Active:          model.Active,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewTemplateResponseSlice converts a slice of models into DTOs.
func NewTemplateResponseSlice(templates []models.ClassTemplate) []TemplateResponse {
	responses := make([]TemplateResponse, 0, len(templates))
	for _, template := range templates {
		responses = append(responses, NewTemplateResponse(template))
	}
	return responses
}
