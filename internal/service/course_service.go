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
	"github.com/studioflow/studioflow-api/internal/repository"
)

// ErrCourseWithoutTemplates indicates an attempt to leave an active course
// with an empty template set.
var ErrCourseWithoutTemplates = errors.New("active course requires at least one template")

// CourseService manages courses and their template memberships. Any change
// here bumps the course's updated_at, which the staleness check on
// materialized instances keys off.
type CourseService interface {
	List(ctx context.Context, businessID uint) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, businessID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	templates repository.ClassTemplateRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseService builds the course registry.
func NewCourseService(
	courses repository.CourseRepository,
	templates repository.ClassTemplateRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:   courses,
		templates: templates,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, businessID uint) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, businessID)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, businessID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	startDate, endDate, err := parseCourseWindow(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	templateIDs := dedupeIDs(payload.TemplateIDs)
	if len(templateIDs) == 0 {
		return dto.CourseResponse{}, ErrCourseWithoutTemplates
	}

	for _, templateID := range templateIDs {
		if _, err := s.templates.GetByID(ctx, templateID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CourseResponse{}, ErrTemplateNotFound
			}
			return dto.CourseResponse{}, err
		}
	}

	course := models.Course{
		BusinessID: businessID,
		Name:       payload.Name,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     models.CourseStatusActive,
	}

	if err := s.courses.Create(ctx, &course, templateIDs); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Int("templates", len(templateIDs)).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if payload.Name != nil {
		course.Name = *payload.Name
	}
	if payload.StartDate != nil {
		startDate, parseErr := time.ParseInLocation(dto.DateLayout, *payload.StartDate, time.UTC)
		if parseErr != nil {
			return dto.CourseResponse{}, fmt.Errorf("invalid start_date: %w", parseErr)
		}
		course.StartDate = startDate
	}
	if payload.EndDate != nil {
		endDate, parseErr := time.ParseInLocation(dto.DateLayout, *payload.EndDate, time.UTC)
		if parseErr != nil {
			return dto.CourseResponse{}, fmt.Errorf("invalid end_date: %w", parseErr)
		}
		course.EndDate = endDate
	}
	if course.EndDate.Before(course.StartDate) {
		return dto.CourseResponse{}, fmt.Errorf("end_date must not precede start_date")
	}
	if payload.Status != nil {
		course.Status = *payload.Status
	}

	if payload.TemplateIDs != nil {
		templateIDs := dedupeIDs(payload.TemplateIDs)
		if len(templateIDs) == 0 && course.Status == models.CourseStatusActive {
			return dto.CourseResponse{}, ErrCourseWithoutTemplates
		}
		for _, templateID := range templateIDs {
			if _, err := s.templates.GetByID(ctx, templateID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return dto.CourseResponse{}, ErrTemplateNotFound
				}
				return dto.CourseResponse{}, err
			}
		}
		if err := s.courses.ReplaceTemplates(ctx, course.ID, templateIDs); err != nil {
			return dto.CourseResponse{}, err
		}
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	updated, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course updated")

	return dto.NewCourseResponse(updated), nil
}

func parseCourseWindow(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.ParseInLocation(dto.DateLayout, start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date: %w", err)
	}

	endDate, err := time.ParseInLocation(dto.DateLayout, end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date: %w", err)
	}

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must not precede start_date")
	}

	return startDate, endDate, nil
}
