package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/models"
	"github.com/studioflow/studioflow-api/internal/repository"
)

// ErrTemplateInUse indicates a hard delete was attempted on a template that
// is still referenced by a course. Deactivate instead.
var ErrTemplateInUse = errors.New("template is referenced by a course")

// TemplateService manages recurring weekly slots.
type TemplateService interface {
	List(ctx context.Context, businessID uint) ([]dto.TemplateResponse, error)
	Get(ctx context.Context, id uint) (dto.TemplateResponse, error)
	Create(ctx context.Context, businessID uint, payload dto.TemplateCreateRequest) (dto.TemplateResponse, error)
	Update(ctx context.Context, id uint, payload dto.TemplateUpdateRequest) (dto.TemplateResponse, error)
	Deactivate(ctx context.Context, id uint) (dto.TemplateResponse, error)
	Delete(ctx context.Context, id uint) error
}

type templateService struct {
	repo      repository.ClassTemplateRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTemplateService builds the template registry.
func NewTemplateService(repo repository.ClassTemplateRepository, validate *validator.Validate, logger zerolog.Logger) TemplateService {
	return &templateService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "template_service").Logger(),
	}
}

func (s *templateService) List(ctx context.Context, businessID uint) ([]dto.TemplateResponse, error) {
	templates, err := s.repo.List(ctx, businessID)
	if err != nil {
		return nil, err
	}

	return dto.NewTemplateResponseSlice(templates), nil
}

func (s *templateService) Get(ctx context.Context, id uint) (dto.TemplateResponse, error) {
	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TemplateResponse{}, ErrTemplateNotFound
		}
		return dto.TemplateResponse{}, err
	}

	return dto.NewTemplateResponse(template), nil
}

func (s *templateService) Create(ctx context.Context, businessID uint, payload dto.TemplateCreateRequest) (dto.TemplateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TemplateResponse{}, err
	}

	template := models.ClassTemplate{
		BusinessID:      businessID,
		Name:            payload.Name,
		Weekday:         payload.Weekday,
		StartTime:       payload.StartTime,
		DurationMinutes: payload.DurationMinutes,
		TeacherID:       payload.TeacherID,
		Room:            payload.Room,
		Active:          true,
	}

	if err := s.repo.Create(ctx, &template); err != nil {
		return dto.TemplateResponse{}, err
	}

	s.logger.Info().Uint("template_id", template.ID).Msg("template created")

	return dto.NewTemplateResponse(template), nil
}

func (s *templateService) Update(ctx context.Context, id uint, payload dto.TemplateUpdateRequest) (dto.TemplateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TemplateResponse{}, err
	}

	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TemplateResponse{}, ErrTemplateNotFound
		}
		return dto.TemplateResponse{}, err
	}

	if payload.Name != nil {
		template.Name = *payload.Name
	}
	if payload.Weekday != nil {
		template.Weekday = *payload.Weekday
	}
	if payload.StartTime != nil {
		template.StartTime = *payload.StartTime
	}
	if payload.DurationMinutes != nil {
		template.DurationMinutes = *payload.DurationMinutes
	}
	if payload.TeacherID != nil {
		template.TeacherID = *payload.TeacherID
	}
	if payload.Room != nil {
		template.Room = *payload.Room
	}
	if payload.Active != nil {
		template.Active = *payload.Active
	}

	if err := s.repo.Update(ctx, &template); err != nil {
		return dto.TemplateResponse{}, err
	}

	s.logger.Info().Uint("template_id", template.ID).Msg("template updated")

	return dto.NewTemplateResponse(template), nil
}

// Deactivate soft-removes the slot so no further instances materialize from
// it, without touching courses that still reference it.
func (s *templateService) Deactivate(ctx context.Context, id uint) (dto.TemplateResponse, error) {
	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TemplateResponse{}, ErrTemplateNotFound
		}
		return dto.TemplateResponse{}, err
	}

	template.Active = false

	if err := s.repo.Update(ctx, &template); err != nil {
		return dto.TemplateResponse{}, err
	}

	s.logger.Info().Uint("template_id", template.ID).Msg("template deactivated")

	return dto.NewTemplateResponse(template), nil
}

// Delete removes an unreferenced template. While any course still references
// it, the call fails with ErrTemplateInUse.
func (s *templateService) Delete(ctx context.Context, id uint) error {
	references, err := s.repo.ReferenceCount(ctx, id)
	if err != nil {
		return err
	}
	if references > 0 {
		return ErrTemplateInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}

	s.logger.Info().Uint("template_id", id).Msg("template deleted")
	return nil
}
