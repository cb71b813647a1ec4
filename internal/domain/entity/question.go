package entity

import (
	"time"
)

// Типы вопросов
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
)

// Question представляет вопрос экзамена
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExamID       uint      `gorm:"not null;index" json:"exam_id"`
	QuestionText string    `gorm:"type:text;not null" json:"question_text"`
	QuestionType string    `gorm:"size:20;not null;default:'multiple_choice'" json:"question_type"`
	Points       int       `gorm:"not null;default:10" json:"points"`
	Order        int       `gorm:"column:order;not null;default:0" json:"order"`
	Options      []Option  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// FindOption ищет вариант ответа среди вариантов этого вопроса.
// Вариант другого вопроса не находится.
func (q *Question) FindOption(optionID uint) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(optionID uint) bool {
	opt, ok := q.FindOption(optionID)
	return ok && opt.IsCorrect
}

// CorrectCount возвращает количество вариантов, отмеченных правильными
func (q *Question) CorrectCount() int {
	n := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

// Option представляет вариант ответа на вопрос
type Option struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	OptionText string `gorm:"type:text;not null" json:"option_text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
	Order      int    `gorm:"column:order;not null;default:0" json:"order"`
}

// TableName определяет имя таблицы для GORM
func (Option) TableName() string {
	return "question_options"
}

// IsValidQuestionType проверяет допустимость типа вопроса
func IsValidQuestionType(t string) bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}
