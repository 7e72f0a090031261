package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// PlayerRepo реализует repository.PlayerRepository
type PlayerRepo struct {
	db *gorm.DB
}

// NewPlayerRepo создает новый репозиторий игроков
func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Create регистрирует игрока в игре. Уникальный индекс (game_id, name)
// закрывает гонку одновременной регистрации одинаковых имён:
// проигравший получает 23505 → ErrNameTaken.
func (r *PlayerRepo) Create(player *entity.Player) error {
	err := r.db.Create(player).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", apperrors.ErrNameTaken, player.Name)
		}
		return err
	}
	return nil
}

// GetByID возвращает игрока по ID
func (r *PlayerRepo) GetByID(id uint) (*entity.Player, error) {
	var player entity.Player
	err := r.db.First(&player, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

// ListByGame возвращает игроков игры в порядке регистрации
func (r *PlayerRepo) ListByGame(gameID uint) ([]entity.Player, error) {
	var players []entity.Player
	err := r.db.Where("game_id = ?", gameID).
		Order("joined_at ASC, id ASC").
		Find(&players).Error
	return players, err
}

// CountByGame возвращает число зарегистрированных игроков
func (r *PlayerRepo) CountByGame(gameID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Player{}).Where("game_id = ?", gameID).Count(&count).Error
	return count, err
}

// AddScore атомарно прибавляет points к счёту игрока.
// Инкремент выполняется выражением на стороне БД, а не read-modify-write.
func (r *PlayerRepo) AddScore(playerID uint, points int) error {
	result := r.db.Model(&entity.Player{}).
		Where("id = ?", playerID).
		Update("score", gorm.Expr("score + ?", points))
	if result.Error != nil {
		return fmt.Errorf("add score for player #%d failed: %w", playerID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Leaderboard возвращает игроков по убыванию счёта.
// При равенстве очков выше стоит раньше зарегистрировавшийся игрок;
// id — финальный детерминирующий ключ при равных joined_at.
func (r *PlayerRepo) Leaderboard(gameID uint) ([]entity.Player, error) {
	var players []entity.Player
	err := r.db.Where("game_id = ?", gameID).
		Order("score DESC, joined_at ASC, id ASC").
		Find(&players).Error
	return players, err
}
