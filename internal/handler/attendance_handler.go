package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/service"
	"github.com/studioflow/studioflow-api/internal/utils"
)

// AttendanceHandler manages attendance routes nested under an instance.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches routes. The router is expected to carry an :instanceId
// parameter.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Put("", h.mark)
}

func (h *AttendanceHandler) list(c *fiber.Ctx) error {
	instanceID, err := parseParamID(c, "instanceId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	records, err := h.service.ListByInstance(c.Context(), instanceID)
	if err != nil {
		if errors.Is(err, service.ErrInstanceNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		}
		h.logger.Error().Err(err).Msg("failed to list attendance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list attendance")
	}

	return utils.SendSuccess(c, "attendance retrieved", records)
}

// mark is a PUT because repeat marks overwrite and "none" clears; the final
// state depends only on the last request.
func (h *AttendanceHandler) mark(c *fiber.Ctx) error {
	instanceID, err := parseParamID(c, "instanceId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid instance id")
	}

	var payload dto.AttendanceMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Mark(c.Context(), instanceID, payload, userIDFromContext(c))
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInstanceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "instance not found")
		}
		h.logger.Error().Err(err).Msg("failed to mark attendance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to mark attendance")
	}

	if record == nil {
		return utils.SendSuccess(c, "attendance cleared", nil)
	}

	return utils.SendSuccess(c, "attendance marked", record)
}
