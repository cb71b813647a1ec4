package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// buildSheet собирает xlsx в памяти; первая строка, заголовок
func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportQuestions_MixedRows(t *testing.T) {
	// Arrange
	f := newCatalogFixture()
	f.examRepo.On("GetByID", mock.Anything, uint(4)).Return(&entity.Exam{ID: 4}, nil)
	f.questionRepo.On("CountByExamID", mock.Anything, uint(4)).Return(int64(2), nil)

	var saved []entity.Question
	f.questionRepo.On("CreateBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]entity.Question)
	}).Return(nil)

	file := buildSheet(t, [][]interface{}{
		{"Soru Metni", "A Şıkkı", "B Şıkkı", "C Şıkkı", "D Şıkkı", "Doğru Şık", "Puan"},
		{"Q1", "a1", "b1", "", "", "b", "20"},
		{"Q2", "a2", "", "c2", "", "A", ""},
		{"Q3", "a3", "b3", "c3", "d3", "E", "x"},
		{"  Q4 ", "a4", "b4", "c4", "", "c) doğru", ""},
	})

	// Act
	res, err := f.svc.ImportQuestions(context.Background(), 4, file)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	require.Len(t, res.Errors, 2)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Satır 3:"), res.Errors[0])
	assert.True(t, strings.HasPrefix(res.Errors[1], "Satır 4:"), res.Errors[1])

	require.Len(t, saved, 2)
	q1 := saved[0]
	assert.Equal(t, "Q1", q1.QuestionText)
	assert.Equal(t, 20, q1.Points)
	assert.Equal(t, 2, q1.Order, "Порядок продолжает существующие вопросы")
	require.Len(t, q1.Options, 2, "Пустые варианты отбрасываются")
	assert.True(t, q1.Options[1].IsCorrect)
	assert.Equal(t, uint(4), q1.ExamID)

	q4 := saved[1]
	assert.Equal(t, "Q4", q4.QuestionText)
	assert.Equal(t, 10, q4.Points, "Пустой балл заменяется значением по умолчанию")
	assert.Equal(t, 3, q4.Order)
	require.Len(t, q4.Options, 3)
	assert.True(t, q4.Options[2].IsCorrect)
	assert.Equal(t, 1, q4.CorrectCount())
}

func TestImportQuestions_EnglishHeadersCaseInsensitive(t *testing.T) {
	f := newCatalogFixture()
	f.examRepo.On("GetByID", mock.Anything, uint(4)).Return(&entity.Exam{ID: 4}, nil)
	f.questionRepo.On("CountByExamID", mock.Anything, uint(4)).Return(int64(0), nil)
	f.questionRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(qs []entity.Question) bool {
		return len(qs) == 1 && qs[0].Points == 5 && qs[0].Options[0].IsCorrect
	})).Return(nil)

	file := buildSheet(t, [][]interface{}{
		{" question ", "OPTION A", "option b", "correct answer", "points"},
		{"Q", "yes", "no", "a", "5"},
	})

	res, err := f.svc.ImportQuestions(context.Background(), 4, file)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Empty(t, res.Errors)
	f.questionRepo.AssertExpectations(t)
}

func TestImportQuestions_InvalidFile(t *testing.T) {
	f := newCatalogFixture()
	f.examRepo.On("GetByID", mock.Anything, uint(4)).Return(&entity.Exam{ID: 4}, nil)

	_, err := f.svc.ImportQuestions(context.Background(), 4, strings.NewReader("not a spreadsheet"))

	assert.ErrorIs(t, err, ErrInvalidSpreadsheet)
}

func TestImportQuestions_NoValidRowsSkipsInsert(t *testing.T) {
	f := newCatalogFixture()
	f.examRepo.On("GetByID", mock.Anything, uint(4)).Return(&entity.Exam{ID: 4}, nil)
	f.questionRepo.On("CountByExamID", mock.Anything, uint(4)).Return(int64(0), nil)

	file := buildSheet(t, [][]interface{}{
		{"Soru", "A", "B", "Cevap"},
		{"Q", "a", "", "A"},
	})

	res, err := f.svc.ImportQuestions(context.Background(), 4, file)

	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Len(t, res.Errors, 1)
	f.questionRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestResolveImportColumns_PrefersFirstAlias(t *testing.T) {
	cols := resolveImportColumns([]string{"Soru", "Soru Metni", "Doğru", "Doğru Şık"})

	assert.Equal(t, 1, cols[importFieldQuestion], "Soru Metni приоритетнее Soru")
	assert.Equal(t, 3, cols[importFieldCorrect])
}
