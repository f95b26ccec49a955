package dto

import (
	"time"

	"github.com/studioflow/studioflow-api/internal/models"
)

// StandaloneInstanceRequest describes the payload for creating an ad-hoc
// session outside any recurring template.
type StandaloneInstanceRequest struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
	TeacherID  uint   `json:"teacher_id"`
	Room       string `json:"room"`
	StudentIDs []uint `json:"student_ids"`
}

// RosterEditRequest identifies the student for a manual roster edit.
type RosterEditRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}

// TempStudentRequest describes the payload for adding a walk-in to an
// instance.
type TempStudentRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// InstanceResponse is the serialized representation returned to API clients.
type InstanceResponse struct {
	ID             uint      `json:"id"`
	BusinessID     uint      `json:"business_id"`
	TemplateID     *uint     `json:"template_id"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	TeacherID      uint      `json:"teacher_id"`
	Room           string    `json:"room"`
	Status         string    `json:"status"`
	StudentIDs     []uint    `json:"student_ids"`
	IsModified     bool      `json:"is_modified"`
	RosterSyncedAt time.Time `json:"roster_synced_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TempStudentResponse is the serialized walk-in representation.
type TempStudentResponse struct {
	ID         uint      `json:"id"`
	InstanceID uint      `json:"instance_id"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// InstanceDetailResponse is the read-path payload that feeds the attendance
// UI: the fresh instance plus its marks and active walk-ins.
type InstanceDetailResponse struct {
	Instance     InstanceResponse      `json:"instance"`
	Attendance   []AttendanceResponse  `json:"attendance"`
	TempStudents []TempStudentResponse `json:"temp_students"`
}

// NewInstanceResponse converts a model into a DTO.
func NewInstanceResponse(model models.ClassInstance) InstanceResponse {
	return InstanceResponse{
		ID:             model.ID,
		BusinessID:     model.BusinessID,
		TemplateID:     model.TemplateID,
		Date:           model.Date.Format(DateLayout),
		StartTime:      model.StartTime,
		TeacherID:      model.TeacherID,
		Room:           model.Room,
		Status:         model.Status,
		StudentIDs:     append([]uint{}, model.StudentIDs...),
		IsModified:     model.IsModified,
		RosterSyncedAt: model.RosterSyncedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewInstanceResponseSlice converts a slice of models into DTOs.
func NewInstanceResponseSlice(instances []models.ClassInstance) []InstanceResponse {
	responses := make([]InstanceResponse, 0, len(instances))
	for _, instance := range instances {
		responses = append(responses, NewInstanceResponse(instance))
	}
	return responses
}

// NewTempStudentResponse converts a model into a DTO.
func NewTempStudentResponse(model models.TempStudent) TempStudentResponse {
	return TempStudentResponse{
		ID:         model.ID,
		InstanceID: model.InstanceID,
		Name:       model.Name,
		Active:     model.Active,
		CreatedAt:  model.CreatedAt,
	}
}

// NewTempStudentResponseSlice converts a slice of models into DTOs.
func NewTempStudentResponseSlice(students []models.TempStudent) []TempStudentResponse {
	responses := make([]TempStudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewTempStudentResponse(student))
	}
	return responses
}
