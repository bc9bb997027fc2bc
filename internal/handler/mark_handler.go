package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/service"
	"github.com/noah-isme/sms-marks-api/internal/utils"
)

// MarkHandler wires the mark entry and publication endpoints.
type MarkHandler struct {
	entry       service.MarkEntryService
	publication service.PublicationService
	results     service.ResultService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewMarkHandler constructs the handler.
func NewMarkHandler(entry service.MarkEntryService, publication service.PublicationService, results service.ResultService, validate *validator.Validate, logger zerolog.Logger) *MarkHandler {
	return &MarkHandler{
		entry:       entry,
		publication: publication,
		results:     results,
		validate:    validate,
		logger:      logger.With().Str("component", "mark_handler").Logger(),
	}
}

func (h *MarkHandler) Save(c *fiber.Ctx) error {
	var payload dto.MarkSaveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	mark, err := h.entry.Save(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Uint("student_id", payload.StudentID).Msg("failed to save mark")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save mark")
	}

	return utils.SendSuccess(c, "marks saved successfully", mark)
}

func (h *MarkHandler) SaveBulk(c *fiber.Ctx) error {
	var payload dto.BulkMarkSaveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.entry.SaveBulk(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Uint("class_id", payload.ClassID).Msg("failed to save marks in bulk")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save marks")
	}

	return utils.SendSuccess(c, "bulk marks saved", result)
}

func (h *MarkHandler) Publish(c *fiber.Ctx) error {
	var payload dto.CohortRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.publication.Publish(requestContext(c), payload.Key(), actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCohortEmpty):
			return utils.SendError(c, fiber.StatusNotFound, "No marks found. Enter and save marks first.")
		default:
			h.logger.Error().Err(err).Uint("class_id", payload.ClassID).Msg("failed to publish results")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to publish results")
		}
	}

	return utils.SendSuccess(c, "results published successfully", result)
}

func (h *MarkHandler) Unpublish(c *fiber.Ctx) error {
	var payload dto.CohortRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.publication.Unpublish(requestContext(c), payload.Key())
	if err != nil {
		h.logger.Error().Err(err).Uint("class_id", payload.ClassID).Msg("failed to unpublish results")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to unpublish results")
	}

	return utils.SendSuccess(c, "results unpublished", result)
}

func (h *MarkHandler) Get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	mark, err := h.results.GetMark(requestContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrMarkNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "mark not found")
		}
		h.logger.Error().Err(err).Uint("mark_id", id).Msg("failed to load mark")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load mark")
	}

	return utils.SendSuccess(c, "mark", mark)
}

func (h *MarkHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.results.DeleteMark(requestContext(c), id); err != nil {
		if errors.Is(err, service.ErrMarkNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "mark not found")
		}
		h.logger.Error().Err(err).Uint("mark_id", id).Msg("failed to delete mark")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete mark")
	}

	return utils.SendSuccess(c, "mark deleted", nil)
}
