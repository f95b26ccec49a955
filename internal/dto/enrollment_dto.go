package dto

import (
	"time"

	"github.com/studioflow/studioflow-api/internal/models"
)

// EnrollRequest describes the payload for enrolling a student in a course.
type EnrollRequest struct {
	StudentID     uint   `json:"student_id" validate:"required"`
	EffectiveFrom string `json:"effective_from" validate:"required,datetime=2006-01-02"`
}

// UnenrollRequest describes the payload for ending an open enrollment.
type UnenrollRequest struct {
	StudentID   uint   `json:"student_id" validate:"required"`
	EffectiveTo string `json:"effective_to" validate:"required,datetime=2006-01-02"`
}

// EnrollmentResponse is the serialized representation returned to API clients.
type EnrollmentResponse struct {
	ID            uint      `json:"id"`
	CourseID      uint      `json:"course_id"`
	StudentID     uint      `json:"student_id"`
	EffectiveFrom string    `json:"effective_from"`
	EffectiveTo   *string   `json:"effective_to"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SyncSummary reports the outcome of the best-effort push of an enrollment
// change into already-materialized future instances. Failures are logged
// and counted, never surfaced as request errors; the staleness check on
// read is the backstop for instances the push missed.
type SyncSummary struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// EnrollmentChangeResponse pairs the ledger row with its sync summary.
type EnrollmentChangeResponse struct {
	Enrollment EnrollmentResponse `json:"enrollment"`
	Sync       SyncSummary        `json:"sync"`
}

// NewEnrollmentResponse converts a model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	response := EnrollmentResponse{
		ID:            model.ID,
		CourseID:      model.CourseID,
		StudentID:     model.StudentID,
		EffectiveFrom: model.EffectiveFrom.Format(DateLayout),
		Status:        model.Status,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if model.EffectiveTo != nil {
		formatted := model.EffectiveTo.Format(DateLayout)
		response.EffectiveTo = &formatted
	}

	return response
}

// NewEnrollmentResponseSlice converts a slice of models into DTOs.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}
	return responses
}
