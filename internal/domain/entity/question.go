package entity

import (
	"time"
)

// Question представляет вопрос викторины.
// OrderIndex задает стабильную позицию вопроса внутри викторины: именно по нему
// обе стороны (хост и игрок) независимо разрешают "текущий вопрос" игры.
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	QuizID       uint      `gorm:"not null;index;uniqueIndex:idx_quiz_order" json:"quiz_id"`
	Text         string    `gorm:"size:500;not null" json:"text"`
	OrderIndex   int       `gorm:"not null;uniqueIndex:idx_quiz_order" json:"order_index"`
	TimeLimitSec int       `gorm:"not null;default:20" json:"time_limit_sec"`
	PointValue   int       `gorm:"not null;default:1000" json:"point_value"`
	Options      []Option  `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// CorrectOption возвращает правильный вариант ответа.
// Инвариант "ровно один правильный вариант" обеспечивается при создании викторины,
// во время игры повторно не проверяется; при нарушении возвращается nil.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// TimeLimit возвращает лимит времени на вопрос как time.Duration
func (q *Question) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitSec) * time.Second
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}
