package dto

import (
	"time"

	"github.com/studioflow/studioflow-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	TemplateIDs []uint `json:"template_ids" validate:"required,min=1,dive,required"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// CourseUpdateRequest describes a partial update to a course.
type CourseUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2"`
	TemplateIDs []uint  `json:"template_ids" validate:"omitempty,min=1,dive,required"`
	StartDate   *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=active cancelled completed"`
}

// CourseResponse is the serialized representation returned to API clients.
type CourseResponse struct {
	ID          uint      `json:"id"`
	BusinessID  uint      `json:"business_id"`
	Name        string    `json:"name"`
	TemplateIDs []uint    `json:"template_ids"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		BusinessID:  model.BusinessID,
		Name:        model.Name,
		TemplateIDs: model.TemplateIDs(),
		StartDate:   model.StartDate.Format(DateLayout),
		EndDate:     model.EndDate.Format(DateLayout),
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}
