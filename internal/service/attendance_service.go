package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/models"
	"github.com/studioflow/studioflow-api/internal/observability"
	"github.com/studioflow/studioflow-api/internal/repository"
)

// AttendanceService records per-student marks against a materialized
// instance. A repeat mark overwrites, an unmark ("none") deletes the record
// entirely. Two concurrent markers of the same student are last-write-wins;
// no merge is attempted.
type AttendanceService interface {
	Mark(ctx context.Context, instanceID uint, payload dto.AttendanceMarkRequest, markedBy uint) (*dto.AttendanceResponse, error)
	ListByInstance(ctx context.Context, instanceID uint) ([]dto.AttendanceResponse, error)
}

type attendanceService struct {
	attendance repository.AttendanceRepository
	instances  repository.ClassInstanceRepository
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAttendanceService builds the attendance recorder.
func NewAttendanceService(
	attendance repository.AttendanceRepository,
	instances repository.ClassInstanceRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AttendanceService {
	return &attendanceService{
		attendance: attendance,
		instances:  instances,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "attendance_service").Logger(),
		tracer:     otel.Tracer("github.com/studioflow/studioflow-api/internal/service/attendance"),
		now:        time.Now,
	}
}

// Mark upserts or deletes the record for (instance, student). A nil response
// with a nil error means the pair was unmarked.
func (s *attendanceService) Mark(ctx context.Context, instanceID uint, payload dto.AttendanceMarkRequest, markedBy uint) (*dto.AttendanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	spanCtx, span := s.tracer.Start(ctx, "attendance.mark", trace.WithAttributes(
		attribute.Int("instance_id", int(instanceID)),
		attribute.Int("student_id", int(payload.StudentID)),
		attribute.String("status", payload.Status),
	))
	defer span.End()

	if _, err := s.instances.GetByID(spanCtx, instanceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		span.RecordError(err)
		return nil, err
	}

	if payload.Status == models.AttendanceStatusNone {
		if err := s.attendance.Delete(spanCtx, instanceID, payload.StudentID); err != nil {
			span.RecordError(err)
			return nil, err
		}

		observability.AttendanceMarks().WithLabelValues(models.AttendanceStatusNone).Inc()
		s.logger.Info().
			Uint("instance_id", instanceID).
			Uint("student_id", payload.StudentID).
			Msg("attendance unmarked")

		return nil, nil
	}

	record := models.AttendanceRecord{
		InstanceID: instanceID,
		StudentID:  payload.StudentID,
		Status:     payload.Status,
		Notes:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Notes)),
		MarkedBy:   markedBy,
	}

	if err := s.attendance.Upsert(spanCtx, &record); err != nil {
		span.RecordError(err)
		return nil, err
	}

	stored, err := s.attendance.Get(spanCtx, instanceID, payload.StudentID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	observability.AttendanceMarks().WithLabelValues(payload.Status).Inc()

	response := dto.NewAttendanceResponse(stored)
	return &response, nil
}

func (s *attendanceService) ListByInstance(ctx context.Context, instanceID uint) ([]dto.AttendanceResponse, error) {
	if _, err := s.instances.GetByID(ctx, instanceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}

	records, err := s.attendance.ListByInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	return dto.NewAttendanceResponseSlice(records), nil
}
