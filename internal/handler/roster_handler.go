package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/service"
	"github.com/noah-isme/sms-marks-api/internal/utils"
)

// RosterHandler serves the entry grid and admit cards.
type RosterHandler struct {
	roster service.RosterService
	logger zerolog.Logger
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(roster service.RosterService, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		roster: roster,
		logger: logger.With().Str("component", "roster_handler").Logger(),
	}
}

func (h *RosterHandler) EntryGrid(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	// Exam parameters are optional here: without them the grid is served
	// blank, with them previously saved marks are pre-filled.
	examType := strings.TrimSpace(c.Query("exam_type"))
	if examType != "" && !models.IsValidExamType(examType) {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam type")
	}
	examYear, err := parseQueryInt(c, "exam_year")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam year")
	}

	grid, err := h.roster.EntryGrid(requestContext(c), classID, examType, examYear)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "class not found")
		}
		h.logger.Error().Err(err).Uint("class_id", classID).Msg("failed to build entry grid")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load students")
	}

	return utils.SendSuccess(c, "entry grid", grid)
}

func (h *RosterHandler) AdmitCards(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	examType := strings.TrimSpace(c.Query("exam_type"))
	if !models.IsValidExamType(examType) {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam type")
	}
	examYear, err := parseQueryInt(c, "exam_year")
	if err != nil || examYear < 2000 || examYear > 2100 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam year")
	}

	var studentID *uint
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		parsed, err := parseQueryInt(c, "student_id")
		if err != nil || parsed <= 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
		}
		id := uint(parsed)
		studentID = &id
	}

	cards, err := h.roster.AdmitCards(requestContext(c), classID, examType, examYear, studentID)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "class not found")
		}
		h.logger.Error().Err(err).Uint("class_id", classID).Msg("failed to build admit cards")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build admit cards")
	}

	return utils.SendSuccessWithCount(c, "admit cards", cards, len(cards))
}
