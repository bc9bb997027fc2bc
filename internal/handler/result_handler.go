package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
	"github.com/noah-isme/sms-marks-api/internal/service"
	"github.com/noah-isme/sms-marks-api/internal/utils"
)

var errNoAccount = errors.New("user not authenticated")

// ResultHandler serves the read side: class and student results, result
// sheets and cohort statistics.
type ResultHandler struct {
	results service.ResultService
	roster  repository.RosterRepository
	logger  zerolog.Logger
}

// NewResultHandler constructs the handler.
func NewResultHandler(results service.ResultService, roster repository.RosterRepository, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		roster:  roster,
		logger:  logger.With().Str("component", "result_handler").Logger(),
	}
}

func (h *ResultHandler) ClassMarks(c *fiber.Ctx) error {
	key, err := cohortFromRequest(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	marks, err := h.results.ListClassMarks(requestContext(c), key)
	if err != nil {
		h.logger.Error().Err(err).Uint("class_id", key.ClassID).Msg("failed to list class marks")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load marks")
	}

	return utils.SendSuccessWithCount(c, "class marks", marks, len(marks))
}

func (h *ResultHandler) StudentMarks(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	filter := repository.StudentMarkFilter{}
	if examType := strings.TrimSpace(c.Query("exam_type")); examType != "" {
		if !models.IsValidExamType(examType) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid exam type")
		}
		filter.ExamType = &examType
	}
	if year, err := parseQueryInt(c, "exam_year"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam year")
	} else if year > 0 {
		filter.ExamYear = &year
	}

	scope := scopeFromContext(c)
	if scope == service.ScopePublishedOnly {
		// Student-role callers only ever see their own record; the
		// requested identifier is overridden, not rejected.
		own, err := h.ownStudentID(c)
		if err != nil {
			return h.sendOwnStudentError(c, err)
		}
		studentID = own
	}

	marks, err := h.results.ListStudentMarks(requestContext(c), studentID, filter, scope)
	if err != nil {
		h.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to list student marks")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load marks")
	}

	return utils.SendSuccessWithCount(c, "student marks", marks, len(marks))
}

func (h *ResultHandler) ResultSheet(c *fiber.Ctx) error {
	key, err := cohortFromRequest(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
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

	scope := scopeFromContext(c)
	if scope == service.ScopePublishedOnly {
		own, err := h.ownStudentID(c)
		if err != nil {
			return h.sendOwnStudentError(c, err)
		}
		studentID = &own
	}

	sheet, err := h.results.ResultSheet(requestContext(c), key, studentID, scope)
	if err != nil {
		h.logger.Error().Err(err).Uint("class_id", key.ClassID).Msg("failed to build result sheet")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build result sheet")
	}

	return utils.SendSuccessWithCount(c, "result sheet", sheet, len(sheet))
}

func (h *ResultHandler) Stats(c *fiber.Ctx) error {
	key, err := cohortFromRequest(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.results.Stats(requestContext(c), key)
	if err != nil {
		h.logger.Error().Err(err).Uint("class_id", key.ClassID).Msg("failed to compute mark statistics")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute statistics")
	}

	return utils.SendSuccess(c, "mark statistics", stats)
}

// ownStudentID resolves the student record behind the calling account.
func (h *ResultHandler) ownStudentID(c *fiber.Ctx) (uint, error) {
	userID := userIDStringFromContext(c)
	if userID == "" {
		return 0, errNoAccount
	}

	student, err := h.roster.GetStudentByUserID(requestContext(c), userID)
	if err != nil {
		return 0, err
	}

	return student.ID, nil
}

func (h *ResultHandler) sendOwnStudentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errNoAccount):
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student record not found")
	default:
		h.logger.Error().Err(err).Msg("failed to resolve student record")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve student record")
	}
}

// cohortFromRequest reads the class id path parameter plus the exam type and
// year query parameters shared by the cohort-scoped endpoints.
func cohortFromRequest(c *fiber.Ctx, param string) (models.CohortKey, error) {
	classID, err := parseUintParam(c, param)
	if err != nil {
		return models.CohortKey{}, errors.New("invalid class id")
	}

	examType := strings.TrimSpace(c.Query("exam_type"))
	if !models.IsValidExamType(examType) {
		return models.CohortKey{}, errors.New("invalid exam type")
	}

	examYear, err := parseQueryInt(c, "exam_year")
	if err != nil || examYear < 2000 || examYear > 2100 {
		return models.CohortKey{}, errors.New("invalid exam year")
	}

	return models.CohortKey{ClassID: classID, ExamType: examType, ExamYear: examYear}, nil
}
