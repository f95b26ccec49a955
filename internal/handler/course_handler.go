package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/service"
	"github.com/studioflow/studioflow-api/internal/utils"
)

// CourseHandler manages course routes.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches routes.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.service.List(c.Context(), businessIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list courses")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list courses")
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	course, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		h.logger.Error().Err(err).Msg("failed to get course")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to get course")
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Create(c.Context(), businessIDFromContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTemplateNotFound):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "referenced template not found")
		case errors.Is(err, service.ErrCourseWithoutTemplates):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "course requires at least one template")
		}
		h.logger.Error().Err(err).Msg("failed to create course")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create course")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTemplateNotFound):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "referenced template not found")
		case errors.Is(err, service.ErrCourseWithoutTemplates):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "course requires at least one template")
		}
		h.logger.Error().Err(err).Msg("failed to update course")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update course")
	}

	return utils.SendSuccess(c, "course updated", course)
}
