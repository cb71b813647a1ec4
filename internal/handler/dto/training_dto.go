package dto

import (
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
	"github.com/yourusername/training-api/internal/handler/helper"
)

// TakingQuestion: вопрос экзамена для сотрудника
type TakingQuestion struct {
	ID      uint                `json:"id"`
	Text    string              `json:"text"`
	Type    string              `json:"type"`
	Points  int                 `json:"points"`
	Order   int                 `json:"order"`
	Options []helper.OptionView `json:"options"`
}

// ExamForTakingResponse: экзамен без ключа ответов
type ExamForTakingResponse struct {
	ID              uint             `json:"id"`
	ModuleID        uint             `json:"module_id"`
	VideoID         *uint            `json:"video_id,omitempty"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	PassingScore    int              `json:"passing_score"`
	DurationMinutes int              `json:"duration_minutes"`
	Questions       []TakingQuestion `json:"questions"`
}

// NewExamForTakingResponse создает DTO экзамена для прохождения
func NewExamForTakingResponse(exam *entity.Exam) *ExamForTakingResponse {
	resp := &ExamForTakingResponse{
		ID:              exam.ID,
		ModuleID:        exam.ModuleID,
		VideoID:         exam.VideoID,
		Title:           exam.Title,
		Description:     exam.Description,
		PassingScore:    exam.PassingScore,
		DurationMinutes: exam.DurationMinutes,
		Questions:       make([]TakingQuestion, 0, len(exam.Questions)),
	}
	for _, q := range exam.Questions {
		resp.Questions = append(resp.Questions, TakingQuestion{
			ID:      q.ID,
			Text:    q.QuestionText,
			Type:    q.QuestionType,
			Points:  q.Points,
			Order:   q.Order,
			Options: helper.ConvertOptions(q.Options),
		})
	}
	return resp
}

// ExamListItem: строка списка экзаменов в админке
type ExamListItem struct {
	ID              uint      `json:"id"`
	ModuleID        uint      `json:"module_id"`
	ModuleTitle     string    `json:"module_title"`
	VideoID         *uint     `json:"video_id,omitempty"`
	Title           string    `json:"title"`
	PassingScore    int       `json:"passing_score"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewExamList создает список экзаменов для админки
func NewExamList(exams []entity.Exam) []ExamListItem {
	out := make([]ExamListItem, 0, len(exams))
	for _, e := range exams {
		item := ExamListItem{
			ID:              e.ID,
			ModuleID:        e.ModuleID,
			VideoID:         e.VideoID,
			Title:           e.Title,
			PassingScore:    e.PassingScore,
			DurationMinutes: e.DurationMinutes,
			CreatedAt:       e.CreatedAt,
		}
		if e.Module != nil {
			item.ModuleTitle = e.Module.Title
		}
		out = append(out, item)
	}
	return out
}

// AttemptResponse: попытка экзамена
type AttemptResponse struct {
	ID          uint       `json:"id"`
	ExamID      uint       `json:"exam_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Passed      *bool      `json:"passed,omitempty"`
}

// NewAttemptList создает список попыток
func NewAttemptList(attempts []entity.ExamAttempt) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, AttemptResponse{
			ID:          a.ID,
			ExamID:      a.ExamID,
			StartedAt:   a.StartedAt,
			CompletedAt: a.CompletedAt,
			Score:       a.Score,
			Passed:      a.Passed,
		})
	}
	return out
}
