package dto

import (
	"time"

	"github.com/studioflow/studioflow-api/internal/models"
)

// AttendanceMarkRequest describes a single attendance toggle. Status "none"
// unmarks: it deletes any existing record for the pair instead of storing a
// zero-value row.
type AttendanceMarkRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused none"`
	Notes     string `json:"notes" validate:"max=2000"`
}

// AttendanceResponse is the serialized representation returned to API clients.
type AttendanceResponse struct {
	ID         uint      `json:"id"`
	InstanceID uint      `json:"instance_id"`
	StudentID  uint      `json:"student_id"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	MarkedBy   uint      `json:"marked_by"`
	MarkedAt   time.Time `json:"marked_at"`
}

// NewAttendanceResponse converts a model into a DTO.
func NewAttendanceResponse(model models.AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:         model.ID,
		InstanceID: model.InstanceID,
		StudentID:  model.StudentID,
		Status:     model.Status,
		Notes:      model.Notes,
		MarkedBy:   model.MarkedBy,
		MarkedAt:   model.UpdatedAt,
	}
}

// NewAttendanceResponseSlice converts a slice of models into DTOs.
func NewAttendanceResponseSlice(records []models.AttendanceRecord) []AttendanceResponse {
	responses := make([]AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewAttendanceResponse(record))
	}
	return responses
}
