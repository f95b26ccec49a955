package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/models"
	"github.com/studioflow/studioflow-api/internal/observability"
	"github.com/studioflow/studioflow-api/internal/repository"
)

// ErrCourseNotFound indicates the requested course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrAlreadyEnrolled indicates an open enrollment already exists for the
// (course, student) pair.
var ErrAlreadyEnrolled = errors.New("student already enrolled")

// ErrNotEnrolled indicates no open enrollment exists for the
// (course, student) pair.
var ErrNotEnrolled = errors.New("student not enrolled")

// EnrollmentService is the time-bounded enrollment ledger. Enroll and
// Unenroll additionally push the change into already-materialized future
// instances so near-term sessions reflect it immediately; the staleness
// check on read covers whatever the push misses.
type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uint, payload dto.EnrollRequest) (dto.EnrollmentChangeResponse, error)
	Unenroll(ctx context.Context, courseID uint, payload dto.UnenrollRequest) (dto.EnrollmentChangeResponse, error)
	ActiveOn(ctx context.Context, courseID uint, day time.Time) ([]dto.EnrollmentResponse, error)
	ListByCourse(ctx context.Context, courseID uint) ([]dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	instances   repository.ClassInstanceRepository
	events      RosterEventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewEnrollmentService builds the enrollment ledger.
func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	instances repository.ClassInstanceRepository,
	events RosterEventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		instances:   instances,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
	}
}

// Enroll opens a new enrollment effective from the given date. Fails with
// ErrAlreadyEnrolled while another enrollment for the pair is still open.
func (s *enrollmentService) Enroll(ctx context.Context, courseID uint, payload dto.EnrollRequest) (dto.EnrollmentChangeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentChangeResponse{}, err
	}

	from, err := time.ParseInLocation(dto.DateLayout, payload.EffectiveFrom, time.UTC)
	if err != nil {
		return dto.EnrollmentChangeResponse{}, fmt.Errorf("invalid effective_from: %w", err)
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentChangeResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentChangeResponse{}, err
	}

	if _, err := s.enrollments.FindOpen(ctx, courseID, payload.StudentID); err == nil {
		return dto.EnrollmentChangeResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollmentChangeResponse{}, err
	}

	enrollment := models.Enrollment{
		CourseID:      courseID,
		StudentID:     payload.StudentID,
		EffectiveFrom: from,
		Status:        models.EnrollmentStatusActive,
	}

	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentChangeResponse{}, err
	}

	s.logger.Info().
		Uint("course_id", courseID).
		Uint("student_id", payload.StudentID).
		Str("effective_from", payload.EffectiveFrom).
		Msg("student enrolled")

	summary := s.pushAddition(ctx, course, payload.StudentID, from)

	return dto.EnrollmentChangeResponse{
		Enrollment: dto.NewEnrollmentResponse(enrollment),
		Sync:       summary,
	}, nil
}

// Unenroll closes the open enrollment as of the given date. Fails with
// ErrNotEnrolled when none is open.
func (s *enrollmentService) Unenroll(ctx context.Context, courseID uint, payload dto.UnenrollRequest) (dto.EnrollmentChangeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentChangeResponse{}, err
	}

	to, err := time.ParseInLocation(dto.DateLayout, payload.EffectiveTo, time.UTC)
	if err != nil {
		return dto.EnrollmentChangeResponse{}, fmt.Errorf("invalid effective_to: %w", err)
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentChangeResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentChangeResponse{}, err
	}

	enrollment, err := s.enrollments.FindOpen(ctx, courseID, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentChangeResponse{}, ErrNotEnrolled
		}
		return dto.EnrollmentChangeResponse{}, err
	}

	enrollment.EffectiveTo = &to
	enrollment.Status = models.EnrollmentStatusCompleted

	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentChangeResponse{}, err
	}

	s.logger.Info().
		Uint("course_id", courseID).
		Uint("student_id", payload.StudentID).
		Str("effective_to", payload.EffectiveTo).
		Msg("student unenrolled")

	summary := s.pushRemoval(ctx, course, payload.StudentID, to)

	return dto.EnrollmentChangeResponse{
		Enrollment: dto.NewEnrollmentResponse(enrollment),
		Sync:       summary,
	}, nil
}

// ActiveOn answers "who was enrolled in this course on this date".
func (s *enrollmentService) ActiveOn(ctx context.Context, courseID uint, day time.Time) ([]dto.EnrollmentResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	enrollments, err := s.enrollments.ActiveOnDate(ctx, courseID, DayOf(day))
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) ListByCourse(ctx context.Context, courseID uint) ([]dto.EnrollmentResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

// pushAddition adds the student to every already-materialized, unmodified
// future instance of the course's templates, starting at the effective date
// and bounded by the course window. Best effort: per-instance failures are
// logged and counted, never surfaced. RosterSyncedAt is left untouched: it is
// the staleness epoch and only a full recompute may advance it — a delta
// write that stamped it would hide upstream changes pending since before the
// push from the staleness check.
func (s *enrollmentService) pushAddition(ctx context.Context, course models.Course, studentID uint, from time.Time) dto.SyncSummary {
	var summary dto.SyncSummary

	for _, templateID := range course.TemplateIDs() {
		instances, err := s.instances.ListFutureByTemplate(ctx, templateID, DayOf(from))
		if err != nil {
			s.logger.Warn().Err(err).Uint("template_id", templateID).Msg("enrollment push: listing future instances failed")
			summary.Failed++
			observability.RosterSync().WithLabelValues("failed").Inc()
			continue
		}

		for _, instance := range instances {
			if instance.Date.Before(course.StartDate) || instance.Date.After(course.EndDate) {
				continue
			}
			if instance.IsModified || instance.HasStudent(studentID) {
				summary.Skipped++
				observability.RosterSync().WithLabelValues("skipped").Inc()
				continue
			}

			instance.StudentIDs = append(instance.StudentIDs, studentID)
			if err := s.instances.Update(ctx, &instance); err != nil {
				s.logger.Warn().Err(err).Uint("instance_id", instance.ID).Msg("enrollment push: roster update failed")
				summary.Failed++
				observability.RosterSync().WithLabelValues("failed").Inc()
				continue
			}

			summary.Synced++
			observability.RosterSync().WithLabelValues("synced").Inc()
			s.publishRoster(ctx, instance)
		}
	}

	return summary
}

// pushRemoval removes the student from unmodified future instances dated
// strictly after the enrollment's last effective day.
func (s *enrollmentService) pushRemoval(ctx context.Context, course models.Course, studentID uint, to time.Time) dto.SyncSummary {
	var summary dto.SyncSummary
	firstExcluded := DayOf(to).Add(24 * time.Hour)

	for _, templateID := range course.TemplateIDs() {
		instances, err := s.instances.ListFutureByTemplate(ctx, templateID, firstExcluded)
		if err != nil {
			s.logger.Warn().Err(err).Uint("template_id", templateID).Msg("enrollment push: listing future instances failed")
			summary.Failed++
			observability.RosterSync().WithLabelValues("failed").Inc()
			continue
		}

		for _, instance := range instances {
			if instance.IsModified || !instance.HasStudent(studentID) {
				summary.Skipped++
				observability.RosterSync().WithLabelValues("skipped").Inc()
				continue
			}

			kept := instance.StudentIDs[:0]
			for _, id := range instance.StudentIDs {
				if id != studentID {
					kept = append(kept, id)
				}
			}
			instance.StudentIDs = kept
			if err := s.instances.Update(ctx, &instance); err != nil {
				s.logger.Warn().Err(err).Uint("instance_id", instance.ID).Msg("enrollment push: roster update failed")
				summary.Failed++
				observability.RosterSync().WithLabelValues("failed").Inc()
				continue
			}

			summary.Synced++
			observability.RosterSync().WithLabelValues("synced").Inc()
			s.publishRoster(ctx, instance)
		}
	}

	return summary
}

func (s *enrollmentService) publishRoster(ctx context.Context, instance models.ClassInstance) {
	if s.events == nil {
		return
	}

	s.events.PublishRosterUpdate(ctx, RosterEvent{
		BusinessID: instance.BusinessID,
		InstanceID: instance.ID,
		TemplateID: instance.TemplateID,
		Date:       instance.Date.Format(dto.DateLayout),
		StudentIDs: append([]uint{}, instance.StudentIDs...),
		Reason:     RosterReasonEnrollment,
	})
}
