package repository

import (
	"github.com/yourusername/livequiz-api/internal/domain/entity"
)

// GameRepository определяет методы для работы с игровыми сессиями
type GameRepository interface {
	Create(game *entity.Game) error
	GetByID(id uint) (*entity.Game, error)
	// GetJoinableByPin ищет игру по PIN среди игр в статусах waiting/active.
	// Игры в статусе ended намеренно невидимы: их PIN может быть переиспользован.
	GetJoinableByPin(pin string) (*entity.Game, error)
	GetWithPlayers(id uint) (*entity.Game, error)
	ListByHost(hostID uint, limit, offset int) ([]entity.Game, error)
	// AdvanceState атомарно выполняет переход состояния сессии.
	// Обновление проходит только если текущие state и current_question_index
	// совпадают с fromState/fromIndex — проигравший гонку (таймер против skip,
	// двойной клик хоста) получает ErrInvalidTransition и не делает ничего.
	AdvanceState(gameID uint, fromState string, fromIndex int, toState string, toIndex int) error
	// MarkQuestionScored атомарно поднимает scored_through_index до idx.
	// Возвращает false, если очки за вопрос уже были начислены другим путём.
	MarkQuestionScored(gameID uint, idx int) (bool, error)
	Update(game *entity.Game) error
	Delete(id uint) error
}
