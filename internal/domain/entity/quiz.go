package entity

import (
	"time"
)

// Quiz представляет викторину — упорядоченный набор вопросов.
// Во время игры содержимое викторины неизменно: ядро сессии читает её
// только для разрешения текущего вопроса по индексу.
type Quiz struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"size:500;not null;default:''" json:"description"`
	Questions   []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// QuestionCount возвращает количество вопросов (если они загружены)
func (q *Quiz) QuestionCount() int {
	return len(q.Questions)
}
