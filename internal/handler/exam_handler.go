package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/training-api/internal/handler/dto"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/internal/service"
)

// ExamHandler обрабатывает прохождение экзаменов
type ExamHandler struct {
	examService *service.ExamService
	log         *logger.Logger
}

// NewExamHandler создает обработчик экзаменов
func NewExamHandler(examService *service.ExamService, log *logger.Logger) *ExamHandler {
	return &ExamHandler{examService: examService, log: log.With("handler", "ExamHandler")}
}

// GetExam возвращает экзамен с вопросами без правильных ответов
// GET /api/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, err := h.examService.GetExamForTaking(c.Request.Context(), pathID(c, "examID"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExamForTakingResponse(exam))
}

// StartAttempt создает попытку
// POST /api/exams/:id/attempts
func (h *ExamHandler) StartAttempt(c *gin.Context) {
	attempt, err := h.examService.StartAttempt(c.Request.Context(), currentUserID(c), pathID(c, "examID"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attempt_id": attempt.ID, "started_at": attempt.StartedAt})
}

// SubmitRequest: ответы попытки
type SubmitRequest struct {
	Answers []service.AnswerInput `json:"answers" binding:"omitempty,dive"`
}

// SubmitAttempt проверяет ответы и завершает попытку
// POST /api/attempts/:id/submit
func (h *ExamHandler) SubmitAttempt(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.examService.SubmitAttempt(c.Request.Context(), currentUserID(c), pathID(c, "attemptID"), req.Answers)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListMyAttempts возвращает попытки текущего пользователя
// GET /api/attempts
func (h *ExamHandler) ListMyAttempts(c *gin.Context) {
	attempts, err := h.examService.ListAttempts(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptList(attempts))
}
