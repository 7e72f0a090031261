package gamesession

import (
	"fmt"
	"sort"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// OrderedOptions возвращает варианты ответа вопроса в каноническом порядке
// отображения: display_order, затем created_at, затем id. Этот порядок —
// общий ключ между экраном хоста и кнопками игрока: "кнопка K" на любом
// устройстве указывает на OrderedOptions(q)[K]. Любой код, показывающий
// или интерпретирующий варианты по позиции, обязан идти через эту функцию.
func OrderedOptions(q *entity.Question) []entity.Option {
	options := make([]entity.Option, len(q.Options))
	copy(options, q.Options)
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].DisplayOrder != options[j].DisplayOrder {
			return options[i].DisplayOrder < options[j].DisplayOrder
		}
		if !options[i].CreatedAt.Equal(options[j].CreatedAt) {
			return options[i].CreatedAt.Before(options[j].CreatedAt)
		}
		return options[i].ID < options[j].ID
	})
	return options
}

// OptionAt разрешает позицию кнопки в конкретный вариант ответа.
// Возвращает ErrValidation для позиции вне диапазона.
func OptionAt(q *entity.Question, position int) (*entity.Option, error) {
	options := OrderedOptions(q)
	if position < 0 || position >= len(options) {
		return nil, fmt.Errorf("%w: option position %d out of range [0, %d)",
			apperrors.ErrValidation, position, len(options))
	}
	return &options[position], nil
}

// OptionPosition возвращает позицию варианта в каноническом порядке
// (для подсветки правильной кнопки на экране результатов).
// Возвращает -1, если вариант не принадлежит вопросу.
func OptionPosition(q *entity.Question, optionID uint) int {
	for i, opt := range OrderedOptions(q) {
		if opt.ID == optionID {
			return i
		}
	}
	return -1
}
