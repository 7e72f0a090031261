package repository

import (
	"github.com/yourusername/livequiz-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	// GetWithQuestions загружает викторину с вопросами (по order_index)
	// и вариантами ответов в каноническом порядке отображения
	GetWithQuestions(id uint) (*entity.Quiz, error)
	// GetQuestionByIndex возвращает вопрос с данным order_index вместе
	// с вариантами ответов в каноническом порядке отображения
	GetQuestionByIndex(quizID uint, orderIndex int) (*entity.Question, error)
	CountQuestions(quizID uint) (int64, error)
	ListByOwner(ownerID uint, limit, offset int) ([]entity.Quiz, error)
	Update(quiz *entity.Quiz) error
	Delete(id uint) error
}
