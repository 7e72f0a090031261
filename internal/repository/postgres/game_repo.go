package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// GameRepo реализует repository.GameRepository
type GameRepo struct {
	db *gorm.DB
}

// NewGameRepo создает новый репозиторий игровых сессий
func NewGameRepo(db *gorm.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create создает новую игровую сессию.
// Уникальный частичный индекс по pin_code превращает гонку выдачи
// одинаковых PIN в ErrPinTaken: вызывающий повторяет с новым кодом.
func (r *GameRepo) Create(game *entity.Game) error {
	err := r.db.Create(game).Error
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", apperrors.ErrPinTaken, game.PinCode)
	}
	return err
}

// GetByID возвращает игру по ID
func (r *GameRepo) GetByID(id uint) (*entity.Game, error) {
	var game entity.Game
	err := r.db.First(&game, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// GetJoinableByPin ищет игру по PIN среди игр в статусах waiting/active.
// Завершённые игры исключаются из поиска: их PIN разрешено переиспользовать,
// поэтому для одного PIN может существовать не более одной незавершённой игры.
func (r *GameRepo) GetJoinableByPin(pin string) (*entity.Game, error) {
	var game entity.Game
	err := r.db.Where("pin_code = ? AND status IN ?", pin,
		[]string{entity.GameStatusWaiting, entity.GameStatusActive}).
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGameNotJoinable
		}
		return nil, err
	}
	return &game, nil
}

// GetWithPlayers возвращает игру вместе со списком игроков
func (r *GameRepo) GetWithPlayers(id uint) (*entity.Game, error) {
	var game entity.Game
	err := r.db.Preload("Players", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC, id ASC")
	}).First(&game, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// ListByHost возвращает игры хоста с пагинацией
func (r *GameRepo) ListByHost(hostID uint, limit, offset int) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.Where("host_id = ?", hostID).
		Limit(limit).Offset(offset).Order("id DESC").
		Find(&games).Error
	return games, err
}

// AdvanceState атомарно выполняет переход состояния сессии.
// WHERE-условие по текущим state и current_question_index превращает проигравшего
// гонку (таймер против ручного skip, двойной клик хоста) в no-op:
// RowsAffected == 0 → ErrInvalidTransition, состояние игры не тронуто.
// Статус жизненного цикла обновляется в том же UPDATE, чтобы видимость игры
// по PIN менялась одной записью с состоянием сессии.
func (r *GameRepo) AdvanceState(gameID uint, fromState string, fromIndex int, toState string, toIndex int) error {
	if !entity.CanTransition(fromState, toState) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, fromState, toState)
	}

	result := r.db.Model(&entity.Game{}).
		Where("id = ? AND state = ? AND current_question_index = ?", gameID, fromState, fromIndex).
		Updates(map[string]interface{}{
			"state":                  toState,
			"current_question_index": toIndex,
			"status":                 entity.StatusForState(toState),
		})

	if result.Error != nil {
		return fmt.Errorf("advance game #%d failed: %w", gameID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: game #%d is no longer in %s/%d",
			apperrors.ErrInvalidTransition, gameID, fromState, fromIndex)
	}
	return nil
}

// MarkQuestionScored атомарно поднимает scored_through_index до idx.
// WHERE scored_through_index < idx гарантирует ровно одно начисление очков
// за вопрос: второй конкурирующий вызов получает RowsAffected == 0 и false.
func (r *GameRepo) MarkQuestionScored(gameID uint, idx int) (bool, error) {
	result := r.db.Model(&entity.Game{}).
		Where("id = ? AND scored_through_index < ?", gameID, idx).
		Update("scored_through_index", idx)

	if result.Error != nil {
		return false, fmt.Errorf("mark question #%d scored for game #%d failed: %w", idx, gameID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Update обновляет информацию об игре
func (r *GameRepo) Update(game *entity.Game) error {
	return r.db.Save(game).Error
}

// Delete удаляет игру
func (r *GameRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Game{}, id).Error
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
