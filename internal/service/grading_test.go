package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// threeQuestions: вопросы на 10, 20 и 30 баллов; правильный вариант каждого имеет ID*10+1
func threeQuestions() []entity.Question {
	qs := make([]entity.Question, 0, 3)
	for i, pts := range []int{10, 20, 30} {
		id := uint(i + 1)
		qs = append(qs, entity.Question{
			ID:     id,
			ExamID: 1,
			Points: pts,
			Options: []entity.Option{
				{ID: id*10 + 1, QuestionID: id, IsCorrect: true},
				{ID: id*10 + 2, QuestionID: id},
			},
		})
	}
	return qs
}

func TestGrade_WeightedScore(t *testing.T) {
	// Arrange: верно на 10 и 20, неверно на 30
	answers := []AnswerInput{
		{QuestionID: 1, OptionID: 11},
		{QuestionID: 2, OptionID: 21},
		{QuestionID: 3, OptionID: 32},
	}

	// Act
	res := Grade(threeQuestions(), answers, 50)

	// Assert
	assert.Equal(t, 30, res.Score)
	assert.Equal(t, 60, res.MaxScore)
	assert.InDelta(t, 50.0, res.Percentage, 0.0001)
	assert.True(t, res.Passed, "50% при проходном 50 должно быть сдачей")
	require.Len(t, res.Answers, 3)
	assert.False(t, res.Answers[2].IsCorrect)
}

func TestGrade_BelowPassingScore(t *testing.T) {
	res := Grade(threeQuestions(), []AnswerInput{{QuestionID: 3, OptionID: 31}}, 70)

	assert.Equal(t, 30, res.Score)
	assert.False(t, res.Passed, "50% при проходном 70 не сдано")
}

func TestGrade_ZeroMaxScorePasses(t *testing.T) {
	res := Grade(nil, []AnswerInput{{QuestionID: 1, OptionID: 1}}, 70)

	assert.Equal(t, 0, res.MaxScore)
	assert.Equal(t, 0.0, res.Percentage)
	assert.True(t, res.Passed, "Экзамен без баллов считается сданным")
	assert.Empty(t, res.Answers, "Ответ на неизвестный вопрос не записывается")
}

func TestGrade_PassingScoreZeroAlwaysPasses(t *testing.T) {
	res := Grade(threeQuestions(), nil, 0)

	assert.Equal(t, 0, res.Score)
	assert.True(t, res.Passed)
}

func TestGrade_ForeignOptionIsIncorrectButRecorded(t *testing.T) {
	// Вариант 21 принадлежит вопросу 2, а ответ дан на вопрос 1
	res := Grade(threeQuestions(), []AnswerInput{{QuestionID: 1, OptionID: 21}}, 50)

	assert.Equal(t, 0, res.Score)
	require.Len(t, res.Answers, 1)
	assert.False(t, res.Answers[0].IsCorrect)
	assert.Equal(t, uint(21), res.Answers[0].SelectedOptionID)
}

func TestGrade_DuplicateAnswersCountOnce(t *testing.T) {
	answers := []AnswerInput{
		{QuestionID: 3, OptionID: 31},
		{QuestionID: 3, OptionID: 31},
		{QuestionID: 3, OptionID: 32},
	}

	res := Grade(threeQuestions(), answers, 50)

	assert.Equal(t, 30, res.Score, "Повторные ответы на один вопрос не должны добавлять баллы")
	assert.Len(t, res.Answers, 1)
}
