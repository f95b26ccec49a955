package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/service"
	"github.com/studioflow/studioflow-api/internal/utils"
)

// ScheduleHandler serves the per-day schedule view.
type ScheduleHandler struct {
	service service.ScheduleService
	logger  zerolog.Logger
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service service.ScheduleService, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		logger:  logger.With().Str("component", "schedule_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ScheduleHandler) Register(router fiber.Router) {
	router.Get("", h.rangeView)
}

func (h *ScheduleHandler) rangeView(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid from date")
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid to date")
	}

	schedule, err := h.service.Range(c.Context(), businessIDFromContext(c), from, to)
	if err != nil {
		if errors.Is(err, service.ErrScheduleRangeInvalid) {
			return utils.SendError(c, fiber.StatusBadRequest, "schedule range is invalid")
		}
		h.logger.Error().Err(err).Msg("failed to build schedule")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build schedule")
	}

	if schedule.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "schedule retrieved", schedule)
}
