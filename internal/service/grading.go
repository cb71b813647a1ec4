package service

import (
	"github.com/yourusername/training-api/internal/domain/entity"
)

// AnswerInput: выбранный вариант ответа на вопрос
type AnswerInput struct {
	QuestionID uint `json:"question_id" binding:"required"`
	OptionID   uint `json:"option_id" binding:"required"`
}

// GradeResult: итог проверки ответов
type GradeResult struct {
	Score      int
	MaxScore   int
	Percentage float64
	Passed     bool
	// Answers: строки ответов для сохранения (без AttemptID)
	Answers []entity.ExamAnswer
}

// Grade проверяет ответы по ключу из хранилища.
// Ответы на неизвестные вопросы пропускаются, чужой или несуществующий вариант засчитывается как неверный.
// Для экзамена без баллов процент равен 0, а экзамен считается сданным.
func Grade(questions []entity.Question, answers []AnswerInput, passingScore int) GradeResult {
	byID := make(map[uint]*entity.Question, len(questions))
	res := GradeResult{}
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
		res.MaxScore += questions[i].Points
	}

	// на один вопрос засчитывается только первый ответ
	seen := make(map[uint]struct{}, len(answers))
	res.Answers = make([]entity.ExamAnswer, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}

		correct := q.IsCorrect(a.OptionID)
		if correct {
			res.Score += q.Points
		}
		res.Answers = append(res.Answers, entity.ExamAnswer{
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.OptionID,
			IsCorrect:        correct,
		})
	}

	if res.MaxScore == 0 {
		res.Percentage = 0
		res.Passed = true
		return res
	}
	res.Percentage = float64(res.Score) / float64(res.MaxScore) * 100
	res.Passed = res.Percentage >= float64(passingScore)
	return res
}
