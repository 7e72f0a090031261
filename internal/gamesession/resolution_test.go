package gamesession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

func TestOrderedOptions_SortsByDisplayOrder(t *testing.T) {
	// Arrange: варианты перемешаны относительно display_order
	question := &entity.Question{
		Options: []entity.Option{
			{ID: 3, Text: "C", DisplayOrder: 2},
			{ID: 1, Text: "A", DisplayOrder: 0},
			{ID: 2, Text: "B", DisplayOrder: 1},
		},
	}

	// Act
	ordered := OrderedOptions(question)

	// Assert
	require.Len(t, ordered, 3)
	assert.Equal(t, "A", ordered[0].Text)
	assert.Equal(t, "B", ordered[1].Text)
	assert.Equal(t, "C", ordered[2].Text)
}

func TestOrderedOptions_TieBreaksByCreatedAtThenID(t *testing.T) {
	// Arrange: у старых викторин display_order совпадает, порядок решают
	// created_at и id
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	question := &entity.Question{
		Options: []entity.Option{
			{ID: 30, Text: "третий", DisplayOrder: 0, CreatedAt: base.Add(2 * time.Second)},
			{ID: 20, Text: "второй", DisplayOrder: 0, CreatedAt: base.Add(time.Second)},
			{ID: 10, Text: "первый", DisplayOrder: 0, CreatedAt: base},
			{ID: 5, Text: "четвёртый", DisplayOrder: 0, CreatedAt: base.Add(2 * time.Second)},
		},
	}

	// Act
	ordered := OrderedOptions(question)

	// Assert: created_at раньше — выше; при равных created_at меньший id выше
	require.Len(t, ordered, 4)
	assert.Equal(t, uint(10), ordered[0].ID)
	assert.Equal(t, uint(20), ordered[1].ID)
	assert.Equal(t, uint(5), ordered[2].ID)
	assert.Equal(t, uint(30), ordered[3].ID)
}

func TestOrderedOptions_DoesNotMutateOriginal(t *testing.T) {
	// Arrange
	question := &entity.Question{
		Options: []entity.Option{
			{ID: 2, DisplayOrder: 1},
			{ID: 1, DisplayOrder: 0},
		},
	}

	// Act
	_ = OrderedOptions(question)

	// Assert: исходный слайс не переупорядочен
	assert.Equal(t, uint(2), question.Options[0].ID)
	assert.Equal(t, uint(1), question.Options[1].ID)
}

func TestOptionAt_ResolvesPosition(t *testing.T) {
	// Arrange
	question := &entity.Question{
		Options: []entity.Option{
			{ID: 7, Text: "нет", DisplayOrder: 1},
			{ID: 4, Text: "да", DisplayOrder: 0, IsCorrect: true},
		},
	}

	// Act
	first, err := OptionAt(question, 0)
	require.NoError(t, err)
	second, err := OptionAt(question, 1)
	require.NoError(t, err)

	// Assert: позиция кнопки указывает на вариант в каноническом порядке
	assert.Equal(t, uint(4), first.ID)
	assert.True(t, first.IsCorrect)
	assert.Equal(t, uint(7), second.ID)
}

func TestOptionAt_OutOfRange(t *testing.T) {
	// Arrange
	question := &entity.Question{
		Options: []entity.Option{{ID: 1}, {ID: 2}},
	}

	// Act & Assert
	_, err := OptionAt(question, -1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = OptionAt(question, 2)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestOptionPosition(t *testing.T) {
	// Arrange
	question := &entity.Question{
		Options: []entity.Option{
			{ID: 9, DisplayOrder: 2},
			{ID: 8, DisplayOrder: 0},
			{ID: 7, DisplayOrder: 1},
		},
	}

	// Act & Assert
	assert.Equal(t, 0, OptionPosition(question, 8))
	assert.Equal(t, 1, OptionPosition(question, 7))
	assert.Equal(t, 2, OptionPosition(question, 9))
	assert.Equal(t, -1, OptionPosition(question, 999), "чужой вариант не имеет позиции")
}
