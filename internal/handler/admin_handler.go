package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/handler/dto"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/internal/service"
)

// defaultMaxImportSize ограничивает размер таблицы вопросов, если лимит не задан
const defaultMaxImportSize = 5 << 20

// AdminHandler обрабатывает операции администратора с контентом и пользователями
type AdminHandler struct {
	catalogService *service.CatalogService
	examService    *service.ExamService
	mediaService   *service.MediaService
	authService    *service.AuthService
	maxImportSize  int64
	log            *logger.Logger
}

// NewAdminHandler создает обработчик админки
func NewAdminHandler(
	catalogService *service.CatalogService,
	examService *service.ExamService,
	mediaService *service.MediaService,
	authService *service.AuthService,
	maxImportSize int64,
	log *logger.Logger,
) *AdminHandler {
	if maxImportSize <= 0 {
		maxImportSize = defaultMaxImportSize
	}
	return &AdminHandler{
		catalogService: catalogService,
		examService:    examService,
		mediaService:   mediaService,
		authService:    authService,
		maxImportSize:  maxImportSize,
		log:            log.With("handler", "AdminHandler"),
	}
}

// CreateModuleRequest: новый модуль
type CreateModuleRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	Order       int    `json:"order" binding:"gte=0"`
}

// CreateModule создает модуль
// POST /api/admin/modules
func (h *AdminHandler) CreateModule(c *gin.Context) {
	var req CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	module, err := h.catalogService.CreateModule(c.Request.Context(), service.CreateModuleInput{
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

// ListModules возвращает модули
// GET /api/admin/modules
func (h *AdminHandler) ListModules(c *gin.Context) {
	modules, err := h.catalogService.ListModules(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, modules)
}

// CreateVideoRequest: новое видео. Нужен video_url или object_key.
type CreateVideoRequest struct {
	ModuleID    uint   `json:"module_id" binding:"required"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" binding:"omitempty,url"`
	ObjectKey   string `json:"object_key"`
	Duration    int    `json:"duration" binding:"gte=0"`
	Order       int    `json:"order" binding:"gte=0"`
}

// CreateVideo создает видео в модуле
// POST /api/admin/videos
func (h *AdminHandler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	video, err := h.catalogService.CreateVideo(c.Request.Context(), service.CreateVideoInput{
		ModuleID:    req.ModuleID,
		Title:       req.Title,
		Description: req.Description,
		VideoURL:    req.VideoURL,
		ObjectKey:   req.ObjectKey,
		Duration:    req.Duration,
		Order:       req.Order,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, video)
}

// ListModuleVideos возвращает видео модуля
// GET /api/admin/modules/:id/videos
func (h *AdminHandler) ListModuleVideos(c *gin.Context) {
	videos, err := h.catalogService.ListVideosByModule(c.Request.Context(), pathID(c, "moduleID"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// CreateExamRequest: новый экзамен
type CreateExamRequest struct {
	ModuleID        uint   `json:"module_id" binding:"required"`
	VideoID         *uint  `json:"video_id"`
	Title           string `json:"title" binding:"required,max=200"`
	Description     string `json:"description"`
	PassingScore    *int   `json:"passing_score" binding:"omitempty,gte=0,lte=100"`
	DurationMinutes *int   `json:"duration_minutes" binding:"omitempty,gt=0"`
}

// CreateExam создает экзамен
// POST /api/admin/exams
func (h *AdminHandler) CreateExam(c *gin.Context) {
	var req CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	exam, err := h.catalogService.CreateExam(c.Request.Context(), service.CreateExamInput{
		ModuleID:        req.ModuleID,
		VideoID:         req.VideoID,
		Title:           req.Title,
		Description:     req.Description,
		PassingScore:    req.PassingScore,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

// ListExams возвращает экзамены, новые первыми
// GET /api/admin/exams
func (h *AdminHandler) ListExams(c *gin.Context) {
	exams, err := h.catalogService.ListExams(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExamList(exams))
}

// GetExam возвращает экзамен
// GET /api/admin/exams/:id
func (h *AdminHandler) GetExam(c *gin.Context) {
	exam, err := h.catalogService.GetExam(c.Request.Context(), pathID(c, "examID"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// OptionRequest: вариант ответа
type OptionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateQuestionRequest: новый вопрос с вариантами
type CreateQuestionRequest struct {
	Text    string          `json:"text" binding:"required"`
	Type    string          `json:"type" binding:"omitempty,oneof=multiple_choice true_false"`
	Points  int             `json:"points" binding:"gte=0"`
	Options []OptionRequest `json:"options" binding:"required,min=1,dive"`
}

// CreateQuestion добавляет вопрос в экзамен
// POST /api/admin/exams/:id/questions
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	options := make([]service.OptionInput, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, service.OptionInput{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	question, err := h.catalogService.CreateQuestion(c.Request.Context(), service.CreateQuestionInput{
		ExamID:  pathID(c, "examID"),
		Text:    req.Text,
		Type:    req.Type,
		Points:  req.Points,
		Options: options,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// ListQuestions возвращает вопросы экзамена с правильными ответами
// GET /api/admin/exams/:id/questions
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	questions, err := h.catalogService.ListQuestions(c.Request.Context(), pathID(c, "examID"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// DeleteQuestion удаляет вопрос экзамена
// DELETE /api/admin/exams/:id/questions/:questionId
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	if err := h.catalogService.DeleteQuestion(c.Request.Context(), pathID(c, "examID"), pathID(c, "questionID")); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportQuestions импортирует вопросы из xlsx (поле формы "file")
// POST /api/admin/exams/:id/questions/import
func (h *AdminHandler) ImportQuestions(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "error_type": "bad_request"})
		return
	}
	if file.Size > h.maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":      fmt.Sprintf("file is too large (max %d bytes)", h.maxImportSize),
			"error_type": "too_large",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	defer src.Close()

	result, err := h.catalogService.ImportQuestions(c.Request.Context(), pathID(c, "examID"), src)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportAttempts выгружает попытки экзамена в xlsx
// GET /api/admin/exams/:id/attempts/export
func (h *AdminHandler) ExportAttempts(c *gin.Context) {
	examID := pathID(c, "examID")
	exam, attempts, err := h.examService.ExportAttempts(c.Request.Context(), examID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sonuçlar"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		handleError(c, h.log, err)
		return
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	headers := []interface{}{"TC No", "Ad Soyad", "Başlangıç", "Bitiş", "Puan", "Durum"}
	if err := sw.SetRow("A1", headers); err != nil {
		handleError(c, h.log, err)
		return
	}
	for i := range attempts {
		rowNum := i + 2
		if err := sw.SetRow(fmt.Sprintf("A%d", rowNum), attemptRow(&attempts[i])); err != nil {
			h.log.Warn("Ошибка записи строки отчета", "row", rowNum, "error", err)
		}
	}
	if err := sw.Flush(); err != nil {
		handleError(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("exam_%d_attempts_%s", exam.ID, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("Ошибка записи xlsx в ответ", "exam_id", examID, "error", err)
	}
}

// attemptRow формирует строку отчета по попытке
func attemptRow(a *entity.ExamAttempt) []interface{} {
	var tcNo, fullName string
	if a.User != nil {
		tcNo, fullName = a.User.TCNo, a.User.FullName
	}
	completed, score, status := "", "", "Devam ediyor"
	if a.CompletedAt != nil {
		completed = a.CompletedAt.Format("2006-01-02 15:04")
		status = "Başarısız"
		if a.IsPassed() {
			status = "Başarılı"
		}
	}
	if a.Score != nil {
		score = fmt.Sprintf("%d", *a.Score)
	}
	return []interface{}{
		sanitizeForExcel(tcNo),
		sanitizeForExcel(fullName),
		a.StartedAt.Format("2006-01-02 15:04"),
		completed,
		score,
		status,
	}
}

// sanitizeForExcel экранирует значения, которые Excel принял бы за формулу
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// UploadRequest: запрос на подписанную ссылку загрузки
type UploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// PresignUpload выдает подписанную ссылку для загрузки видео в хранилище
// POST /api/admin/uploads
func (h *AdminHandler) PresignUpload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	ticket, err := h.mediaService.PresignUpload(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// CheckStorage проверяет доступ к хранилищу
// GET /api/admin/storage/check
func (h *AdminHandler) CheckStorage(c *gin.Context) {
	if err := h.mediaService.CheckStorage(c.Request.Context()); err != nil {
		h.log.Warn("Хранилище недоступно", "provider", h.mediaService.Provider(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"provider": h.mediaService.Provider(),
			"error":    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": h.mediaService.Provider()})
}

// CreateUserRequest: новый профиль
type CreateUserRequest struct {
	TCNo     string `json:"tc_no" binding:"required,len=11,numeric"`
	FullName string `json:"full_name" binding:"required,max=150"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin worker"`
}

// CreateUser создает профиль сотрудника или администратора
// POST /api/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.authService.CreateUser(c.Request.Context(), service.CreateUserInput{
		TCNo:     req.TCNo,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// ListUsers возвращает профили
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserListResponse(users))
}
