package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/service"
	"github.com/studioflow/studioflow-api/internal/utils"
)

// InstanceHandler manages class instance routes: materialization, roster
// edits, standalone sessions and walk-ins.
type InstanceHandler struct {
	service service.InstanceService
	logger  zerolog.Logger
}

// NewInstanceHandler constructs the handler.
func NewInstanceHandler(service service.InstanceService, logger zerolog.Logger) *InstanceHandler {
	return &InstanceHandler{
		service: service,
		logger:  logger.With().Str("component", "instance_handler").Logger(),
	}
}

// Register attaches routes.
func (h *InstanceHandler) Register(router fiber.Router) {
	router.Post("/materialize", h.materialize)
	router.Post("/standalone", h.createStandalone)
	router.Get("/:id", h.get)
	router.Post("/:id/regenerate", h.regenerate)
	router.Post("/:id/cancel", h.cancel)
	router.Post("/:id/students", h.addStudent)
	router.Delete("/:id/students", h.removeStudent)
	router.Post("/:id/temp-students", h.addTempStudent)
	router.Delete("/temp-students/:tempId", h.deactivateTempStudent)
}

type materializeRequest struct {
	TemplateID uint   `json:"template_id"`
	Date       string `json:"date"`
}

func (h *InstanceHandler) materialize(c *fiber.Ctx) error {
	var payload materializeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.TemplateID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "template_id is required")
	}

	day, err := parseDate(payload.Date)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid date")
	}

	instance, err := h.service.GetOrCreate(c.Context(), payload.TemplateID, day)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "template not found")
		}
		h.logger.Error().Err(err).Msg("failed to materialize instance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to materialize instance")
	}

	return utils.SendSuccess(c, "instance materialized", instance)
}

func (h *InstanceHandler) get(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	detail, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInstanceNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		}
		h.logger.Error().Err(err).Msg("failed to get instance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to get instance")
	}

	return utils.SendSuccess(c, "instance retrieved", detail)
}

func (h *InstanceHandler) regenerate(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	instance, err := h.service.Regenerate(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInstanceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		case errors.Is(err, service.ErrStandaloneInstance):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "standalone instances have no template roster")
		case errors.Is(err, service.ErrInstanceModified):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "instance has manual edits")
		}
		h.logger.Error().Err(err).Msg("failed to regenerate instance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to regenerate instance")
	}

	return utils.SendSuccess(c, "instance regenerated", instance)
}

func (h *InstanceHandler) cancel(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	instance, err := h.service.Cancel(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInstanceNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		}
		h.logger.Error().Err(err).Msg("failed to cancel instance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to cancel instance")
	}

	return utils.SendSuccess(c, "instance cancelled", instance)
}

func (h *InstanceHandler) createStandalone(c *fiber.Ctx) error {
	var payload dto.StandaloneInstanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	instance, err := h.service.CreateStandalone(c.Context(), businessIDFromContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to create standalone instance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create standalone instance")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "instance created", instance)
}

func (h *InstanceHandler) addStudent(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	var payload dto.RosterEditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	instance, err := h.service.AddStudent(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInstanceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		}
		h.logger.Error().Err(err).Msg("failed to add student to roster")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to add student to roster")
	}

	return utils.SendSuccess(c, "student added to roster", instance)
}

func (h *InstanceHandler) removeStudent(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	var payload dto.RosterEditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	instance, err := h.service.RemoveStudent(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInstanceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		}
		h.logger.Error().Err(err).Msg("failed to remove student from roster")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to remove student from roster")
	}

	return utils.SendSuccess(c, "student removed from roster", instance)
}

func (h *InstanceHandler) addTempStudent(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	var payload dto.TempStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	walkIn, err := h.service.AddTempStudent(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInstanceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		}
		h.logger.Error().Err(err).Msg("failed to add temp student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to add temp student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "temp student added", walkIn)
}

func (h *InstanceHandler) deactivateTempStudent(c *fiber.Ctx) error {
	id, err := parseParamID(c, "tempId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid temp student id")
	}

	if err := h.service.DeactivateTempStudent(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrTempStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "temp student not found")
		}
		h.logger.Error().Err(err).Msg("failed to deactivate temp student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to deactivate temp student")
	}

	return utils.SendSuccess(c, "temp student removed", nil)
}
