package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/middleware"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	pgRepo "github.com/yourusername/training-api/internal/repository/postgres"
	"github.com/yourusername/training-api/internal/service"
	"github.com/yourusername/training-api/internal/service/watchgate"
	"github.com/yourusername/training-api/pkg/auth"
)

const (
	adminTCNo      = "10000000001"
	adminPassword  = "admin123"
	workerTCNo     = "20000000002"
	workerPassword = "worker123"
)

// fakePresigner подписывает ссылки без обращения к хранилищу
type fakePresigner struct{}

func (fakePresigner) PresignUpload(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key + "?sig=put", nil
}

func (fakePresigner) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.test/" + key + "?sig=get", nil
}

func (fakePresigner) PublicURL(key string) string { return "https://cdn.test/" + key }

func (fakePresigner) KeyFromURL(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "https://cdn.test/") {
		return "", apperrors.ErrValidation
	}
	return strings.TrimPrefix(rawURL, "https://cdn.test/"), nil
}

func (fakePresigner) CheckAccess(context.Context) error { return nil }

func (fakePresigner) Provider() string { return "fake" }

// memCache: кеш в памяти вместо Redis
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return string(b), nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if b, ok := c.data[key]; ok {
		_ = json.Unmarshal(b, &n)
	}
	n++
	c.data[key], _ = json.Marshal(n)
	return n, nil
}

func (c *memCache) Expire(context.Context, string, time.Duration) error { return nil }

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.Set(ctx, key, value, expiration)
}

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal(b, dest)
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if ok, _ := c.Exists(ctx, key); ok {
		return false, nil
	}
	return true, c.Set(ctx, key, value, expiration)
}

// testEnv: приложение целиком поверх SQLite и кеша в памяти
type testEnv struct {
	t           *testing.T
	db          *gorm.DB
	router      *gin.Engine
	adminToken  string
	workerToken string
	workerID    uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.Module{}, &entity.Video{}, &entity.Exam{},
		&entity.Question{}, &entity.Option{}, &entity.UserProgress{},
		&entity.ExamAttempt{}, &entity.ExamAnswer{},
	))

	log := logger.NewNop()
	cache := newMemCache()
	presigner := fakePresigner{}

	userRepo := pgRepo.NewUserRepo(db)
	examRepo := pgRepo.NewExamRepo(db)
	videoRepo := pgRepo.NewVideoRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)

	jwtService, err := auth.NewJWTService("test-secret", 1, cache)
	require.NoError(t, err)

	authService := service.NewAuthService(userRepo, jwtService, log)
	mediaService := service.NewMediaService(presigner, time.Hour, 3*time.Hour, log)
	catalogService := service.NewCatalogService(
		pgRepo.NewModuleRepo(db), videoRepo, examRepo, questionRepo, cache, presigner,
		service.CatalogConfig{}, log,
	)
	progressService := service.NewProgressService(pgRepo.NewProgressRepo(db), videoRepo, log)
	examService := service.NewExamService(examRepo, questionRepo, pgRepo.NewAttemptRepo(db), log)
	trainingService := service.NewTrainingService(
		catalogService, progressService, examService, mediaService,
		examRepo, cache, watchgate.DefaultConfig(), time.Hour, log,
	)

	env := &testEnv{t: t, db: db}
	env.router, err = NewRouter(RouterConfig{
		Auth:           NewAuthHandler(authService, log),
		Training:       NewTrainingHandler(trainingService, progressService, log),
		Exam:           NewExamHandler(examService, log),
		Admin:          NewAdminHandler(catalogService, examService, mediaService, authService, 1<<20, log),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtService, log),
		RateLimiter:    middleware.NewRateLimiter(cache, log),
		LoginLimit:     middleware.LoginRateLimitConfig(5, time.Minute),
	})
	require.NoError(t, err)

	ctx := context.Background()
	admin := &entity.User{TCNo: adminTCNo, FullName: "Admin", Password: adminPassword, Role: entity.RoleAdmin}
	worker := &entity.User{TCNo: workerTCNo, FullName: "=Ayşe Yılmaz", Password: workerPassword, Role: entity.RoleWorker}
	require.NoError(t, userRepo.Create(ctx, admin))
	require.NoError(t, userRepo.Create(ctx, worker))

	env.adminToken, _, err = jwtService.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)
	env.workerToken, _, err = jwtService.GenerateToken(worker.ID, worker.Role)
	require.NoError(t, err)
	env.workerID = worker.ID
	return env
}

// do выполняет запрос с JSON-телом (body может быть nil)
func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode разбирает тело ответа
func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

// seededContent: модуль с одним видео, экзаменом и вопросом
type seededContent struct {
	ModuleID      uint
	VideoID       uint
	ExamID        uint
	QuestionID    uint
	CorrectOption uint
	WrongOption   uint
}

// seedContent создает контент через админские маршруты
func (e *testEnv) seedContent() seededContent {
	e.t.Helper()
	var out seededContent

	w := e.do(http.MethodPost, "/api/admin/modules", e.adminToken, gin.H{"title": "İş Güvenliği", "order": 1})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var module entity.Module
	decode(e.t, w, &module)
	out.ModuleID = module.ID

	w = e.do(http.MethodPost, "/api/admin/videos", e.adminToken, gin.H{
		"module_id":  module.ID,
		"title":      "Giriş",
		"object_key": "intro.mp4",
		"duration":   100,
		"order":      1,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var video entity.Video
	decode(e.t, w, &video)
	out.VideoID = video.ID

	w = e.do(http.MethodPost, "/api/admin/exams", e.adminToken, gin.H{
		"module_id":     module.ID,
		"video_id":      video.ID,
		"title":         "Giriş Sınavı",
		"passing_score": 50,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var exam entity.Exam
	decode(e.t, w, &exam)
	out.ExamID = exam.ID

	w = e.do(http.MethodPost, "/api/admin/exams/"+itoa(exam.ID)+"/questions", e.adminToken, gin.H{
		"text": "Yangın çıkışı nerede?",
		"options": []gin.H{
			{"text": "Koridor sonunda", "is_correct": true},
			{"text": "Bilmiyorum"},
		},
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var question entity.Question
	decode(e.t, w, &question)
	require.Len(e.t, question.Options, 2)
	out.QuestionID = question.ID
	for _, o := range question.Options {
		if o.IsCorrect {
			out.CorrectOption = o.ID
		} else {
			out.WrongOption = o.ID
		}
	}
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
