package entity

import (
	"time"
)

// Exam представляет экзамен модуля. Если VideoID задан, экзамен закрывает это видео.
type Exam struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ModuleID        uint       `gorm:"not null;index" json:"module_id"`
	VideoID         *uint      `gorm:"index" json:"video_id,omitempty"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     string     `gorm:"type:text;not null;default:''" json:"description"`
	PassingScore    int        `gorm:"not null" json:"passing_score"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes"`
	Questions       []Question `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
	Module          *Module    `gorm:"foreignKey:ModuleID" json:"module,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Exam) TableName() string {
	return "exams"
}

// ExamAttempt представляет одну попытку сдачи экзамена.
// CompletedAt выставляется ровно один раз, после этого попытка неизменна.
type ExamAttempt struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	ExamID      uint       `gorm:"not null;index" json:"exam_id"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Passed      *bool      `json:"passed,omitempty"`
	User        *User      `gorm:"foreignKey:UserID" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (ExamAttempt) TableName() string {
	return "user_exam_attempts"
}

// IsCompleted возвращает true, если попытка уже завершена
func (a *ExamAttempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// IsPassed возвращает true только для завершенной сданной попытки
func (a *ExamAttempt) IsPassed() bool {
	return a.CompletedAt != nil && a.Passed != nil && *a.Passed
}

// ExamAnswer представляет ответ на один вопрос в рамках попытки
type ExamAnswer struct {
	ID               uint `gorm:"primaryKey" json:"id"`
	AttemptID        uint `gorm:"not null;index" json:"attempt_id"`
	QuestionID       uint `gorm:"not null" json:"question_id"`
	SelectedOptionID uint `gorm:"not null" json:"selected_option_id"`
	IsCorrect        bool `gorm:"not null" json:"is_correct"`
}

// TableName определяет имя таблицы для GORM
func (ExamAnswer) TableName() string {
	return "user_exam_answers"
}
