package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
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

// ErrTemplateNotFound indicates the requested class template does not exist.
var ErrTemplateNotFound = errors.New("class template not found")

// ErrInstanceNotFound indicates the requested class instance does not exist.
var ErrInstanceNotFound = errors.New("class instance not found")

// ErrStandaloneInstance indicates a regeneration was requested for an
// instance that has no template.
var ErrStandaloneInstance = errors.New("instance has no template")

// ErrInstanceModified indicates a regeneration was requested for an instance
// whose roster carries manual edits.
var ErrInstanceModified = errors.New("instance has manual edits")

// ErrTempStudentNotFound indicates the requested walk-in does not exist.
var ErrTempStudentNotFound = errors.New("temp student not found")

// DayOf normalizes a timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InstanceService materializes recurring templates into dated class
// instances, keeps their rosters fresh against upstream course and
// enrollment changes, and applies per-session manual overrides.
type InstanceService interface {
	GetOrCreate(ctx context.Context, templateID uint, date time.Time) (dto.InstanceResponse, error)
	Get(ctx context.Context, instanceID uint) (dto.InstanceDetailResponse, error)
	EnsureFresh(ctx context.Context, instanceID uint) (models.ClassInstance, error)
	Regenerate(ctx context.Context, instanceID uint) (dto.InstanceResponse, error)
	AddStudent(ctx context.Context, instanceID uint, payload dto.RosterEditRequest) (dto.InstanceResponse, error)
	RemoveStudent(ctx context.Context, instanceID uint, payload dto.RosterEditRequest) (dto.InstanceResponse, error)
	CreateStandalone(ctx context.Context, businessID uint, payload dto.StandaloneInstanceRequest) (dto.InstanceResponse, error)
	Cancel(ctx context.Context, instanceID uint) (dto.InstanceResponse, error)
	AddTempStudent(ctx context.Context, instanceID uint, payload dto.TempStudentRequest) (dto.TempStudentResponse, error)
	DeactivateTempStudent(ctx context.Context, tempStudentID uint) error
}

type instanceService struct {
	instances    repository.ClassInstanceRepository
	templates    repository.ClassTemplateRepository
	courses      repository.CourseRepository
	enrollments  repository.EnrollmentRepository
	attendance   repository.AttendanceRepository
	tempStudents repository.TempStudentRepository
	events       RosterEventPublisher
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewInstanceService builds the materializer.
func NewInstanceService(
	instances repository.ClassInstanceRepository,
	templates repository.ClassTemplateRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	attendance repository.AttendanceRepository,
	tempStudents repository.TempStudentRepository,
	events RosterEventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) InstanceService {
	return &instanceService{
		instances:    instances,
		templates:    templates,
		courses:      courses,
		enrollments:  enrollments,
		attendance:   attendance,
		tempStudents: tempStudents,
		events:       events,
		validator:    validate,
		logger:       logger.With().Str("component", "instance_service").Logger(),
		tracer:       otel.Tracer("github.com/studioflow/studioflow-api/internal/service/instance"),
		now:          time.Now,
	}
}

// GetOrCreate returns the instance for (template, day), materializing it on
// first access. Materialization is idempotent: at most one instance exists
// per template and calendar day, enforced by a unique index. A concurrent
// creator that loses the race refetches the winner.
func (s *instanceService) GetOrCreate(ctx context.Context, templateID uint, date time.Time) (dto.InstanceResponse, error) {
	start := s.now()
	defer func() {
		observability.MaterializeLatency().Observe(time.Since(start).Seconds())
	}()

	day := DayOf(date)
	dayEnd := day.Add(24 * time.Hour)

	spanCtx, span := s.tracer.Start(ctx, "instances.get_or_create", trace.WithAttributes(
		attribute.Int("template_id", int(templateID)),
		attribute.String("date", day.Format(dto.DateLayout)),
	))
	defer span.End()

	existing, err := s.instances.FindByTemplateAndDay(spanCtx, templateID, day, dayEnd)
	if err == nil {
		observability.Materializations().WithLabelValues("existing").Inc()
		return dto.NewInstanceResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.InstanceResponse{}, err
	}

	template, err := s.templates.GetByID(spanCtx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InstanceResponse{}, ErrTemplateNotFound
		}
		span.RecordError(err)
		return dto.InstanceResponse{}, err
	}

	roster, err := s.computeRoster(spanCtx, templateID, day)
	if err != nil {
		span.RecordError(err)
		return dto.InstanceResponse{}, err
	}

	instance := models.ClassInstance{
		BusinessID:     template.BusinessID,
		TemplateID:     &template.ID,
		Date:           day,
		StartTime:      template.StartTime,
		TeacherID:      template.TeacherID,
		Room:           template.Room,
		Status:         models.InstanceStatusScheduled,
		StudentIDs:     roster,
		IsModified:     false,
		RosterSyncedAt: s.now(),
	}

	if err := s.instances.Create(spanCtx, &instance); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, refetchErr := s.instances.FindByTemplateAndDay(spanCtx, templateID, day, dayEnd)
			if refetchErr != nil {
				span.RecordError(refetchErr)
				return dto.InstanceResponse{}, refetchErr
			}
			observability.Materializations().WithLabelValues("race_lost").Inc()
			return dto.NewInstanceResponse(winner), nil
		}
		span.RecordError(err)
		return dto.InstanceResponse{}, err
	}

	observability.Materializations().WithLabelValues("created").Inc()
	s.logger.Info().
		Uint("instance_id", instance.ID).
		Uint("template_id", templateID).
		Str("date", day.Format(dto.DateLayout)).
		Int("roster_size", len(roster)).
		Msg("class instance materialized")

	s.publishRoster(spanCtx, instance, RosterReasonMaterialized)

	return dto.NewInstanceResponse(instance), nil
}

// Get is the read path that feeds the attendance UI: it freshens the
// instance first, then attaches marks and active walk-ins.
func (s *instanceService) Get(ctx context.Context, instanceID uint) (dto.InstanceDetailResponse, error) {
	instance, err := s.EnsureFresh(ctx, instanceID)
	if err != nil {
		return dto.InstanceDetailResponse{}, err
	}

	records, err := s.attendance.ListByInstance(ctx, instanceID)
	if err != nil {
		return dto.InstanceDetailResponse{}, err
	}

	walkIns, err := s.tempStudents.ListActiveByInstance(ctx, instanceID)
	if err != nil {
		return dto.InstanceDetailResponse{}, err
	}

	return dto.InstanceDetailResponse{
		Instance:     dto.NewInstanceResponse(instance),
		Attendance:   dto.NewAttendanceResponseSlice(records),
		TempStudents: dto.NewTempStudentResponseSlice(walkIns),
	}, nil
}

// EnsureFresh regenerates the roster when any course containing the
// template, or any enrollment of such a course, changed after the roster was
// last computed. Standalone and manually modified instances are never stale.
// The recompute is a full union, not a diff, so concurrent triggers converge
// on the same roster.
func (s *instanceService) EnsureFresh(ctx context.Context, instanceID uint) (models.ClassInstance, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ClassInstance{}, ErrInstanceNotFound
		}
		return models.ClassInstance{}, err
	}

	if instance.Standalone() || instance.IsModified {
		return instance, nil
	}

	stale, err := s.courses.AnyUpdatedSince(ctx, *instance.TemplateID, instance.RosterSyncedAt)
	if err != nil {
		return models.ClassInstance{}, err
	}
	if !stale {
		stale, err = s.enrollments.AnyUpdatedSinceForTemplate(ctx, *instance.TemplateID, instance.RosterSyncedAt)
		if err != nil {
			return models.ClassInstance{}, err
		}
	}
	if !stale {
		return instance, nil
	}

	if err := s.regenerate(ctx, &instance, "staleness"); err != nil {
		return models.ClassInstance{}, err
	}

	return instance, nil
}

// Regenerate forces a roster recompute. Standalone instances and instances
// with manual edits are rejected: automation must never overwrite them.
func (s *instanceService) Regenerate(ctx context.Context, instanceID uint) (dto.InstanceResponse, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InstanceResponse{}, ErrInstanceNotFound
		}
		return dto.InstanceResponse{}, err
	}

	if instance.Standalone() {
		return dto.InstanceResponse{}, ErrStandaloneInstance
	}
	if instance.IsModified {
		return dto.InstanceResponse{}, ErrInstanceModified
	}

	if err := s.regenerate(ctx, &instance, "manual"); err != nil {
		return dto.InstanceResponse{}, err
	}

	return dto.NewInstanceResponse(instance), nil
}

func (s *instanceService) regenerate(ctx context.Context, instance *models.ClassInstance, trigger string) error {
	roster, err := s.computeRoster(ctx, *instance.TemplateID, DayOf(instance.Date))
	if err != nil {
		return err
	}

	instance.StudentIDs = roster
	instance.RosterSyncedAt = s.now()

	if err := s.instances.Update(ctx, instance); err != nil {
		return err
	}

	observability.Regenerations().WithLabelValues(trigger).Inc()
	s.logger.Info().
		Uint("instance_id", instance.ID).
		Str("trigger", trigger).
		Int("roster_size", len(roster)).
		Msg("instance roster regenerated")

	s.publishRoster(ctx, *instance, RosterReasonRegenerated)

	return nil
}

// AddStudent applies a manual roster edit. The instance is permanently
// excluded from automatic regeneration afterwards.
func (s *instanceService) AddStudent(ctx context.Context, instanceID uint, payload dto.RosterEditRequest) (dto.InstanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InstanceResponse{}, err
	}

	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InstanceResponse{}, ErrInstanceNotFound
		}
		return dto.InstanceResponse{}, err
	}

	if !instance.HasStudent(payload.StudentID) {
		instance.StudentIDs = append(instance.StudentIDs, payload.StudentID)
	}
	instance.IsModified = true

	if err := s.instances.Update(ctx, &instance); err != nil {
		return dto.InstanceResponse{}, err
	}

	s.publishRoster(ctx, instance, RosterReasonManualEdit)

	return dto.NewInstanceResponse(instance), nil
}

// RemoveStudent applies a manual roster edit, see AddStudent.
func (s *instanceService) RemoveStudent(ctx context.Context, instanceID uint, payload dto.RosterEditRequest) (dto.InstanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InstanceResponse{}, err
	}

	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InstanceResponse{}, ErrInstanceNotFound
		}
		return dto.InstanceResponse{}, err
	}

	kept := instance.StudentIDs[:0]
	for _, id := range instance.StudentIDs {
		if id != payload.StudentID {
			kept = append(kept, id)
		}
	}
	instance.StudentIDs = kept
	instance.IsModified = true

	if err := s.instances.Update(ctx, &instance); err != nil {
		return dto.InstanceResponse{}, err
	}

	s.publishRoster(ctx, instance, RosterReasonManualEdit)

	return dto.NewInstanceResponse(instance), nil
}

// CreateStandalone persists an ad-hoc session with no template. Standalone
// instances never participate in materialization or regeneration.
func (s *instanceService) CreateStandalone(ctx context.Context, businessID uint, payload dto.StandaloneInstanceRequest) (dto.InstanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InstanceResponse{}, err
	}

	day, err := time.ParseInLocation(dto.DateLayout, payload.Date, time.UTC)
	if err != nil {
		return dto.InstanceResponse{}, fmt.Errorf("invalid date: %w", err)
	}

	instance := models.ClassInstance{
		BusinessID:     businessID,
		Date:           day,
		StartTime:      payload.StartTime,
		TeacherID:      payload.TeacherID,
		Room:           payload.Room,
		Status:         models.InstanceStatusScheduled,
		StudentIDs:     dedupeIDs(payload.StudentIDs),
		RosterSyncedAt: s.now(),
	}

	if err := s.instances.Create(ctx, &instance); err != nil {
		return dto.InstanceResponse{}, err
	}

	s.logger.Info().Uint("instance_id", instance.ID).Msg("standalone instance created")

	return dto.NewInstanceResponse(instance), nil
}

// Cancel marks the instance cancelled. Instances are never deleted.
func (s *instanceService) Cancel(ctx context.Context, instanceID uint) (dto.InstanceResponse, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InstanceResponse{}, ErrInstanceNotFound
		}
		return dto.InstanceResponse{}, err
	}

	instance.Status = models.InstanceStatusCancelled

	if err := s.instances.Update(ctx, &instance); err != nil {
		return dto.InstanceResponse{}, err
	}

	s.logger.Info().Uint("instance_id", instance.ID).Msg("instance cancelled")

	return dto.NewInstanceResponse(instance), nil
}

// AddTempStudent records a walk-in scoped to this instance only.
func (s *instanceService) AddTempStudent(ctx context.Context, instanceID uint, payload dto.TempStudentRequest) (dto.TempStudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TempStudentResponse{}, err
	}

	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TempStudentResponse{}, ErrInstanceNotFound
		}
		return dto.TempStudentResponse{}, err
	}

	walkIn := models.TempStudent{
		BusinessID: instance.BusinessID,
		InstanceID: instance.ID,
		Name:       payload.Name,
		Active:     true,
	}

	if err := s.tempStudents.Create(ctx, &walkIn); err != nil {
		return dto.TempStudentResponse{}, err
	}

	return dto.NewTempStudentResponse(walkIn), nil
}

// DeactivateTempStudent soft-removes a walk-in from the roster display.
func (s *instanceService) DeactivateTempStudent(ctx context.Context, tempStudentID uint) error {
	walkIn, err := s.tempStudents.GetByID(ctx, tempStudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTempStudentNotFound
		}
		return err
	}

	walkIn.Active = false

	return s.tempStudents.Update(ctx, &walkIn)
}

// computeRoster unions the active enrollments of every active course that
// contains the template and covers the day. A student enrolled through two
// overlapping courses appears once.
func (s *instanceService) computeRoster(ctx context.Context, templateID uint, day time.Time) ([]uint, error) {
	courses, err := s.courses.ListActiveByTemplate(ctx, templateID, day)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{})
	roster := make([]uint, 0)
	for _, course := range courses {
		enrollments, err := s.enrollments.ActiveOnDate(ctx, course.ID, day)
		if err != nil {
			return nil, err
		}
		for _, enrollment := range enrollments {
			if _, ok := seen[enrollment.StudentID]; ok {
				continue
			}
			seen[enrollment.StudentID] = struct{}{}
			roster = append(roster, enrollment.StudentID)
		}
	}

	sort.Slice(roster, func(i, j int) bool { return roster[i] < roster[j] })

	return roster, nil
}

func (s *instanceService) publishRoster(ctx context.Context, instance models.ClassInstance, reason string) {
	if s.events == nil {
		return
	}

	s.events.PublishRosterUpdate(ctx, RosterEvent{
		BusinessID: instance.BusinessID,
		InstanceID: instance.ID,
		TemplateID: instance.TemplateID,
		Date:       instance.Date.Format(dto.DateLayout),
		StudentIDs: append([]uint{}, instance.StudentIDs...),
		Reason:     reason,
	})
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
