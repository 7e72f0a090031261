package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Save фиксирует ответ игрока. Уникальный индекс (player_id, question_id) —
// финальный арбитр правила "ровно один ответ на вопрос": из двух гонящихся
// запросов одного игрока записывается ровно один, второй получает
// 23505 → ErrDuplicateAnswer.
func (r *AnswerRepo) Save(answer *entity.PlayerAnswer) error {
	err := r.db.Create(answer).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: player #%d, question #%d",
				apperrors.ErrDuplicateAnswer, answer.PlayerID, answer.QuestionID)
		}
		return err
	}
	return nil
}

// GetByPlayerAndQuestion возвращает зафиксированный ответ игрока на вопрос
func (r *AnswerRepo) GetByPlayerAndQuestion(playerID, questionID uint) (*entity.PlayerAnswer, error) {
	var answer entity.PlayerAnswer
	err := r.db.Where("player_id = ? AND question_id = ?", playerID, questionID).
		First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &answer, nil
}

// ListByGameAndQuestion возвращает все ответы на вопрос в рамках игры
func (r *AnswerRepo) ListByGameAndQuestion(gameID, questionID uint) ([]entity.PlayerAnswer, error) {
	var answers []entity.PlayerAnswer
	err := r.db.Where("game_id = ? AND question_id = ?", gameID, questionID).
		Order("created_at ASC, id ASC").
		Find(&answers).Error
	return answers, err
}

// CountByGameAndQuestion возвращает число зафиксированных ответов на вопрос
func (r *AnswerRepo) CountByGameAndQuestion(gameID, questionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.PlayerAnswer{}).
		Where("game_id = ? AND question_id = ?", gameID, questionID).
		Count(&count).Error
	return count, err
}

// CountByOption возвращает распределение ответов по вариантам.
// Варианты без единого ответа в карте отсутствуют.
func (r *AnswerRepo) CountByOption(gameID, questionID uint) (map[uint]int64, error) {
	type optionCount struct {
		OptionID uint
		Count    int64
	}
	var rows []optionCount
	err := r.db.Model(&entity.PlayerAnswer{}).
		Select("option_id, COUNT(*) as count").
		Where("game_id = ? AND question_id = ?", gameID, questionID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Count
	}
	return counts, nil
}

// ListByGame возвращает все ответы игры (для экспорта результатов)
func (r *AnswerRepo) ListByGame(gameID uint) ([]entity.PlayerAnswer, error) {
	var answers []entity.PlayerAnswer
	err := r.db.Where("game_id = ?", gameID).
		Order("question_id ASC, created_at ASC").
		Find(&answers).Error
	return answers, err
}
