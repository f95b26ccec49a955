package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/service"
	"github.com/studioflow/studioflow-api/internal/utils"
)

// EnrollmentHandler manages enrollment routes nested under a course.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches routes. The router is expected to carry a :courseId
// parameter.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.enroll)
	router.Post("/unenroll", h.unenroll)
}

func (h *EnrollmentHandler) list(c *fiber.Ctx) error {
	courseID, err := parseParamID(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	// With ?date= the listing narrows to enrollments effective on that day.
	if strings.TrimSpace(c.Query("date")) != "" {
		day, err := parseDateQuery(c, "date")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid date")
		}

		enrollments, err := h.service.ActiveOn(c.Context(), courseID, day)
		if err != nil {
			if errors.Is(err, service.ErrCourseNotFound) {
				return utils.SendError(c, fiber.StatusNotFound, "course not found")
			}
			h.logger.Error().Err(err).Msg("failed to list enrollments")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to list enrollments")
		}

		return utils.SendSuccess(c, "enrollments retrieved", enrollments)
	}

	enrollments, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		h.logger.Error().Err(err).Msg("failed to list enrollments")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list enrollments")
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	courseID, err := parseParamID(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Enroll(c.Context(), courseID, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCourseNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		case errors.Is(err, service.ErrAlreadyEnrolled):
			return utils.SendError(c, fiber.StatusConflict, "student already enrolled")
		}
		h.logger.Error().Err(err).Msg("failed to enroll student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to enroll student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", result)
}

func (h *EnrollmentHandler) unenroll(c *fiber.Ctx) error {
	courseID, err := parseParamID(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.UnenrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Unenroll(c.Context(), courseID, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCourseNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		case errors.Is(err, service.ErrNotEnrolled):
			return utils.SendError(c, fiber.StatusConflict, "student not enrolled")
		}
		h.logger.Error().Err(err).Msg("failed to unenroll student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to unenroll student")
	}

	return utils.SendSuccess(c, "student unenrolled", result)
}
