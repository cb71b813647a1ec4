package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/training-api/internal/middleware"
)

// RouterConfig содержит зависимости маршрутизатора
type RouterConfig struct {
	Auth     *AuthHandler
	Training *TrainingHandler
	Exam     *ExamHandler
	Admin    *AdminHandler

	AuthMiddleware *middleware.AuthMiddleware
	// RateLimiter может быть nil, тогда вход не ограничивается
	RateLimiter *middleware.RateLimiter
	LoginLimit  middleware.RateLimitConfig

	AllowedOrigins []string
	TrustedProxies []string
}

// NewRouter собирает маршруты API.
// Возвращает ошибку, если список доверенных прокси некорректен.
func NewRouter(rc RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		router.Use(gin.Logger())
	}

	if err := router.SetTrustedProxies(rc.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	if len(rc.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     rc.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := rc.AuthMiddleware.RequireAuth()
	videoID := middleware.ExtractUintParam("id", "videoID")
	examID := middleware.ExtractUintParam("id", "examID")

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			login := []gin.HandlerFunc{}
			if rc.RateLimiter != nil {
				login = append(login, rc.RateLimiter.Limit(rc.LoginLimit))
			}
			login = append(login, rc.Auth.Login)
			authGroup.POST("/login", login...)
			authGroup.POST("/logout", requireAuth, rc.Auth.Logout)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/me", rc.Auth.Me)
			users.PUT("/me/password", rc.Auth.ChangePassword)
		}

		authed := api.Group("", requireAuth)
		{
			authed.GET("/dashboard", rc.Training.Dashboard)
			authed.GET("/training/rules", rc.Training.Rules)

			videos := authed.Group("/videos/:id", videoID)
			{
				videos.GET("", rc.Training.GetVideo)
				videos.POST("/progress/start", rc.Training.MarkStarted)
				videos.POST("/progress/complete", rc.Training.MarkCompleted)
				videos.POST("/position", rc.Training.RecordPosition)
				videos.GET("/next", rc.Training.NextStep)
			}

			authed.GET("/exams/:id", examID, rc.Exam.GetExam)
			authed.POST("/exams/:id/attempts", examID, rc.Exam.StartAttempt)
			authed.GET("/attempts", rc.Exam.ListMyAttempts)
			authed.POST("/attempts/:id/submit", middleware.ExtractUintParam("id", "attemptID"), rc.Exam.SubmitAttempt)
		}

		admin := api.Group("/admin", requireAuth, rc.AuthMiddleware.AdminOnly())
		{
			admin.GET("/modules", rc.Admin.ListModules)
			admin.POST("/modules", rc.Admin.CreateModule)
			admin.GET("/modules/:id/videos", middleware.ExtractUintParam("id", "moduleID"), rc.Admin.ListModuleVideos)
			admin.POST("/videos", rc.Admin.CreateVideo)

			admin.GET("/exams", rc.Admin.ListExams)
			admin.POST("/exams", rc.Admin.CreateExam)
			exam := admin.Group("/exams/:id", examID)
			{
				exam.GET("", rc.Admin.GetExam)
				exam.GET("/questions", rc.Admin.ListQuestions)
				exam.POST("/questions", rc.Admin.CreateQuestion)
				exam.POST("/questions/import", rc.Admin.ImportQuestions)
				exam.DELETE("/questions/:questionId", middleware.ExtractUintParam("questionId", "questionID"), rc.Admin.DeleteQuestion)
				exam.GET("/attempts/export", rc.Admin.ExportAttempts)
			}

			admin.POST("/uploads", rc.Admin.PresignUpload)
			admin.GET("/storage/check", rc.Admin.CheckStorage)

			admin.GET("/users", rc.Admin.ListUsers)
			admin.POST("/users", rc.Admin.CreateUser)
		}
	}

	return router, nil
}
