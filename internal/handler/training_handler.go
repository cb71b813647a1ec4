package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/internal/service"
)

// TrainingHandler обрабатывает прохождение обучения сотрудником
type TrainingHandler struct {
	trainingService *service.TrainingService
	progressService *service.ProgressService
	log             *logger.Logger
}

// NewTrainingHandler создает обработчик обучения
func NewTrainingHandler(trainingService *service.TrainingService, progressService *service.ProgressService, log *logger.Logger) *TrainingHandler {
	return &TrainingHandler{
		trainingService: trainingService,
		progressService: progressService,
		log:             log.With("handler", "TrainingHandler"),
	}
}

// Dashboard возвращает модули с состоянием видео
// GET /api/dashboard
func (h *TrainingHandler) Dashboard(c *gin.Context) {
	dash, err := h.trainingService.Dashboard(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GetVideo открывает видео для просмотра
// GET /api/videos/:id
func (h *TrainingHandler) GetVideo(c *gin.Context) {
	view, err := h.trainingService.VideoForPlayback(c.Request.Context(), currentUserID(c), pathID(c, "videoID"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// MarkStarted отмечает начало просмотра
// POST /api/videos/:id/progress/start
func (h *TrainingHandler) MarkStarted(c *gin.Context) {
	if err := h.progressService.MarkStarted(c.Request.Context(), currentUserID(c), pathID(c, "videoID")); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// MarkCompleted отмечает видео просмотренным и возвращает следующий шаг
// POST /api/videos/:id/progress/complete
func (h *TrainingHandler) MarkCompleted(c *gin.Context) {
	ctx := c.Request.Context()
	userID, videoID := currentUserID(c), pathID(c, "videoID")
	if err := h.progressService.MarkCompleted(ctx, userID, videoID); err != nil {
		handleError(c, h.log, err)
		return
	}
	next, err := h.trainingService.NextStep(ctx, userID, videoID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed", "next": next})
}

// PositionRequest: позиция плеера в секундах
type PositionRequest struct {
	Position *float64 `json:"position" binding:"required,gte=0"`
	Seek     bool     `json:"seek"`
}

// RecordPosition применяет правила просмотра к позиции плеера
// POST /api/videos/:id/position
func (h *TrainingHandler) RecordPosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.trainingService.RecordPosition(c.Request.Context(), currentUserID(c), pathID(c, "videoID"), *req.Position, req.Seek)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// NextStep возвращает действие после видео
// GET /api/videos/:id/next
func (h *TrainingHandler) NextStep(c *gin.Context) {
	next, err := h.trainingService.NextStep(c.Request.Context(), currentUserID(c), pathID(c, "videoID"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, next)
}

// Rules возвращает параметры правил просмотра для плеера
// GET /api/training/rules
func (h *TrainingHandler) Rules(c *gin.Context) {
	c.JSON(http.StatusOK, h.trainingService.Rules())
}
