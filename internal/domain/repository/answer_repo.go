package repository

import (
	"github.com/yourusername/livequiz-api/internal/domain/entity"
)

// AnswerRepository определяет методы для работы с ответами игроков
type AnswerRepository interface {
	// Save фиксирует ответ игрока. Конфликт уникального индекса
	// (player_id, question_id) транслируется в ErrDuplicateAnswer.
	Save(answer *entity.PlayerAnswer) error
	GetByPlayerAndQuestion(playerID, questionID uint) (*entity.PlayerAnswer, error)
	ListByGameAndQuestion(gameID, questionID uint) ([]entity.PlayerAnswer, error)
	// CountByGameAndQuestion возвращает число зафиксированных ответов на вопрос
	CountByGameAndQuestion(gameID, questionID uint) (int64, error)
	// CountByOption возвращает распределение ответов по вариантам (option_id -> count)
	CountByOption(gameID, questionID uint) (map[uint]int64, error)
	ListByGame(gameID uint) ([]entity.PlayerAnswer, error)
}
