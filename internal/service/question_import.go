package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/training-api/internal/domain/entity"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
)

// Поля строки импорта
const (
	importFieldQuestion = "question"
	importFieldA        = "a"
	importFieldB        = "b"
	importFieldC        = "c"
	importFieldD        = "d"
	importFieldCorrect  = "correct"
	importFieldPoints   = "points"
)

// importAliases: допустимые заголовки колонок по убыванию приоритета
var importAliases = map[string][]string{
	importFieldQuestion: {"Soru Metni", "Question", "Soru"},
	importFieldA:        {"A Şıkkı", "Option A", "A"},
	importFieldB:        {"B Şıkkı", "Option B", "B"},
	importFieldC:        {"C Şıkkı", "Option C", "C"},
	importFieldD:        {"D Şıkkı", "Option D", "D"},
	importFieldCorrect:  {"Doğru Şık", "Doğru Şık (A,B,C,D)", "Correct Answer", "Cevap", "Doğru"},
	importFieldPoints:   {"Puan", "Points"},
}

var importOptionFields = []string{importFieldA, importFieldB, importFieldC, importFieldD}

// ImportResult: итог импорта вопросов
type ImportResult struct {
	Count  int      `json:"count"`
	Errors []string `json:"errors"`
}

// resolveImportColumns сопоставляет поля с индексами колонок заголовка.
// Сравнение без учета регистра и пробелов по краям.
func resolveImportColumns(header []string) map[string]int {
	normalized := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, exists := normalized[key]; !exists {
			normalized[key] = i
		}
	}

	columns := make(map[string]int, len(importAliases))
	for field, aliases := range importAliases {
		for _, alias := range aliases {
			if idx, ok := normalized[normalizeHeader(alias)]; ok {
				columns[field] = idx
				break
			}
		}
	}
	return columns
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cellValue(row []string, columns map[string]int, field string) string {
	idx, ok := columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseImportRow строит вопрос из строки листа
func parseImportRow(row []string, columns map[string]int, defaultPoints int) (*entity.Question, error) {
	text := cellValue(row, columns, importFieldQuestion)
	optA := cellValue(row, columns, importFieldA)
	optB := cellValue(row, columns, importFieldB)
	correctCell := cellValue(row, columns, importFieldCorrect)
	if text == "" || optA == "" || optB == "" || correctCell == "" {
		return nil, errors.New("eksik veri: soru, A, B ve doğru şık zorunlu")
	}

	correctKey := string([]rune(strings.ToUpper(correctCell))[0])

	points := defaultPoints
	if raw := cellValue(row, columns, importFieldPoints); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 {
			points = p
		}
	}

	q := &entity.Question{
		QuestionText: text,
		QuestionType: entity.QuestionTypeMultipleChoice,
		Points:       points,
	}
	hasCorrect := false
	for _, field := range importOptionFields {
		optText := cellValue(row, columns, field)
		if optText == "" {
			continue
		}
		isCorrect := strings.ToUpper(field) == correctKey
		if isCorrect {
			hasCorrect = true
		}
		q.Options = append(q.Options, entity.Option{
			OptionText: optText,
			IsCorrect:  isCorrect,
			Order:      len(q.Options),
		})
	}
	if !hasCorrect {
		return nil, fmt.Errorf("doğru şık %q dolu bir seçenekle eşleşmiyor", correctCell)
	}
	return q, nil
}

// ImportQuestions читает xlsx и добавляет вопросы в экзамен.
// Некорректные строки пропускаются и попадают в Errors, корректные сохраняются одной транзакцией.
func (s *CatalogService) ImportQuestions(ctx context.Context, examID uint, r io.Reader) (*ImportResult, error) {
	if _, err := s.GetExam(ctx, examID); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.log.Warn("Не удалось закрыть файл импорта", "error", cerr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidSpreadsheet)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidSpreadsheet)
	}

	columns := resolveImportColumns(rows[0])
	if _, ok := columns[importFieldQuestion]; !ok {
		return nil, fmt.Errorf("%w: question column not found", ErrInvalidSpreadsheet)
	}

	start, err := s.questionRepo.CountByExamID(ctx, examID)
	if err != nil {
		return nil, apperrors.NewStoreError("count questions", err)
	}

	result := &ImportResult{Errors: []string{}}
	questions := make([]entity.Question, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		q, err := parseImportRow(row, columns, s.cfg.DefaultQuestionPoints)
		if err != nil {
			// номер строки как в Excel, заголовок в строке 1
			result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: %v", i+2, err))
			continue
		}
		q.ExamID = examID
		q.Order = int(start) + len(questions)
		questions = append(questions, *q)
	}

	if len(questions) > 0 {
		if err := s.questionRepo.CreateBatch(ctx, questions); err != nil {
			return nil, apperrors.NewStoreError("import questions", err)
		}
	}
	result.Count = len(questions)

	s.log.Info("Импорт вопросов завершен", "exam_id", examID, "count", result.Count, "errors", len(result.Errors))
	return result, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
