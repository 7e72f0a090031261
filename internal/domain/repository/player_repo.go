package repository

import (
	"github.com/yourusername/livequiz-api/internal/domain/entity"
)

// PlayerRepository определяет методы для работы с игроками
type PlayerRepository interface {
	// Create регистрирует игрока в игре. Конфликт уникального индекса
	// (game_id, name) транслируется в ErrNameTaken.
	Create(player *entity.Player) error
	GetByID(id uint) (*entity.Player, error)
	// ListByGame возвращает игроков в порядке регистрации (joined_at, id)
	ListByGame(gameID uint) ([]entity.Player, error)
	CountByGame(gameID uint) (int64, error)
	// AddScore атомарно прибавляет points к счёту игрока
	AddScore(playerID uint, points int) error
	// Leaderboard возвращает игроков по убыванию счёта; при равенстве очков
	// выше стоит раньше зарегистрировавшийся (joined_at, затем id)
	Leaderboard(gameID uint) ([]entity.Player, error)
}
