package helper

import (
	"github.com/yourusername/training-api/internal/domain/entity"
)

// OptionView: вариант ответа для сотрудника, без признака правильности
type OptionView struct {
	ID    uint   `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// ConvertOptions скрывает правильный ответ в вариантах
func ConvertOptions(options []entity.Option) []OptionView {
	converted := make([]OptionView, len(options))
	for i, opt := range options {
		converted[i] = OptionView{ID: opt.ID, Text: opt.OptionText, Order: opt.Order}
	}
	return converted
}
