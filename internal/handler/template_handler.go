package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/service"
	"github.com/studioflow/studioflow-api/internal/utils"
)

// TemplateHandler manages recurring class template routes.
type TemplateHandler struct {
	service service.TemplateService
	logger  zerolog.Logger
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(service service.TemplateService, logger zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: service,
		logger:  logger.With().Str("component", "template_handler").Logger(),
	}
}

// Register attaches routes.
func (h *TemplateHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/deactivate", h.deactivate)
	router.Delete("/:id", h.delete)
}

func (h *TemplateHandler) list(c *fiber.Ctx) error {
	templates, err := h.service.List(c.Context(), businessIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list templates")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list templates")
	}

	return utils.SendSuccess(c, "templates retrieved", templates)
}

func (h *TemplateHandler) get(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	template, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "template not found")
		}
		h.logger.Error().Err(err).Msg("failed to get template")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to get template")
	}

	return utils.SendSuccess(c, "template retrieved", template)
}

func (h *TemplateHandler) create(c *fiber.Ctx) error {
	var payload dto.TemplateCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	template, err := h.service.Create(c.Context(), businessIDFromContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to create template")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create template")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "template created", template)
}

func (h *TemplateHandler) update(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	var payload dto.TemplateUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	template, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "template not found")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to update template")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update template")
	}

	return utils.SendSuccess(c, "template updated", template)
}

func (h *TemplateHandler) deactivate(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	template, err := h.service.Deactivate(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "template not found")
		}
		h.logger.Error().Err(err).Msg("failed to deactivate template")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to deactivate template")
	}

	return utils.SendSuccess(c, "template deactivated", template)
}

func (h *TemplateHandler) delete(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "template not found")
		case errors.Is(err, service.ErrTemplateInUse):
			return utils.SendError(c, fiber.StatusConflict, "template is referenced by a course")
		}
		h.logger.Error().Err(err).Msg("failed to delete template")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete template")
	}

	return utils.SendSuccess(c, "template deleted", nil)
}
