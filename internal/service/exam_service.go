package service

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/domain/repository"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
)

// SubmitResult: результат сдачи попытки
type SubmitResult struct {
	Passed     bool    `json:"passed"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ExamService управляет попытками экзаменов: старт, проверка, завершение.
// Попытка проходит NotStarted -> InProgress -> Completed, из Completed переходов нет.
type ExamService struct {
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	log          *logger.Logger
	now          func() time.Time
}

// NewExamService создает сервис экзаменов
func NewExamService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	log *logger.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		log:          log.With("service", "ExamService"),
		now:          time.Now,
	}
}

// StartAttempt создает новую попытку. Параллельные незавершенные попытки допускаются.
func (s *ExamService) StartAttempt(ctx context.Context, userID, examID uint) (*entity.ExamAttempt, error) {
	if _, err := s.examRepo.GetByID(ctx, examID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get exam", err)
	}

	attempt := &entity.ExamAttempt{
		UserID:    userID,
		ExamID:    examID,
		StartedAt: s.now(),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, apperrors.NewStoreError("create attempt", err)
	}
	s.log.Info("Попытка экзамена начата", "user_id", userID, "exam_id", examID, "attempt_id", attempt.ID)
	return attempt, nil
}

// SubmitAttempt проверяет ответы и завершает попытку.
// Все проверки владельца и состояния выполняются до записи.
func (s *ExamService) SubmitAttempt(ctx context.Context, callerID, attemptID uint, answers []AnswerInput) (*SubmitResult, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get attempt", err)
	}
	if attempt.UserID != callerID {
		s.log.Warn("Попытка сдать чужую попытку", "caller_id", callerID, "attempt_id", attemptID, "owner_id", attempt.UserID)
		return nil, apperrors.ErrUnauthorized
	}
	if attempt.IsCompleted() {
		return nil, apperrors.ErrAlreadySubmitted
	}

	exam, err := s.examRepo.GetByID(ctx, attempt.ExamID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get exam", err)
	}

	questions, err := s.questionRepo.ListByExamID(ctx, attempt.ExamID)
	if err != nil {
		return nil, apperrors.NewStoreError("list questions", err)
	}

	graded := Grade(questions, answers, exam.PassingScore)

	for i := range graded.Answers {
		graded.Answers[i].AttemptID = attempt.ID
	}
	if err := s.attemptRepo.SaveAnswers(ctx, graded.Answers); err != nil {
		// ответы вспомогательные, итог попытки важнее
		s.log.Error("Не удалось сохранить ответы попытки", "attempt_id", attempt.ID, "answers", len(graded.Answers), "error", err)
	}

	if err := s.attemptRepo.Finalize(ctx, attempt.ID, graded.Score, graded.Passed, s.now()); err != nil {
		if errors.Is(err, apperrors.ErrAlreadySubmitted) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("finalize attempt", err)
	}

	s.log.Info("Попытка экзамена завершена",
		"user_id", callerID,
		"exam_id", attempt.ExamID,
		"attempt_id", attempt.ID,
		"score", graded.Score,
		"total", graded.MaxScore,
		"passed", graded.Passed,
	)
	return &SubmitResult{
		Passed:     graded.Passed,
		Score:      graded.Score,
		Total:      graded.MaxScore,
		Percentage: graded.Percentage,
	}, nil
}

// GetExamForTaking возвращает экзамен с упорядоченными вопросами и вариантами
func (s *ExamService) GetExamForTaking(ctx context.Context, examID uint) (*entity.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get exam", err)
	}
	questions, err := s.questionRepo.ListByExamID(ctx, examID)
	if err != nil {
		return nil, apperrors.NewStoreError("list questions", err)
	}
	exam.Questions = questions
	return exam, nil
}

// GetExamForVideo возвращает экзамен, закрывающий видео, или ErrNotFound
func (s *ExamService) GetExamForVideo(ctx context.Context, videoID uint) (*entity.Exam, error) {
	exam, err := s.examRepo.GetByVideoID(ctx, videoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("get exam by video", err)
	}
	return exam, nil
}

// HasPassed проверяет, есть ли у пользователя сданная попытка экзамена
func (s *ExamService) HasPassed(ctx context.Context, userID, examID uint) (bool, error) {
	ok, err := s.attemptRepo.HasPassed(ctx, userID, examID)
	if err != nil {
		return false, apperrors.NewStoreError("check passed", err)
	}
	return ok, nil
}

// ListAttempts возвращает попытки пользователя
func (s *ExamService) ListAttempts(ctx context.Context, userID uint) ([]entity.ExamAttempt, error) {
	attempts, err := s.attemptRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewStoreError("list attempts", err)
	}
	return attempts, nil
}

// ExportAttempts возвращает экзамен и все его попытки с профилями для отчета
func (s *ExamService) ExportAttempts(ctx context.Context, examID uint) (*entity.Exam, []entity.ExamAttempt, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, apperrors.NewStoreError("get exam", err)
	}
	attempts, err := s.attemptRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, nil, apperrors.NewStoreError("list attempts", err)
	}
	return exam, attempts, nil
}
