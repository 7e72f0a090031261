package entity

import (
	"time"
)

// PlayerAnswer представляет зафиксированный ответ игрока на вопрос.
// Уникальный индекс (player_id, question_id) гарантирует ровно один ответ
// на вопрос; повторная отправка отклоняется на уровне БД.
// IsCorrect и PointsAwarded денормализованы в момент записи, чтобы смена
// правильного варианта задним числом не меняла уже подведённые итоги.
type PlayerAnswer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GameID        uint      `gorm:"not null;index" json:"game_id"`
	PlayerID      uint      `gorm:"not null;uniqueIndex:idx_player_question" json:"player_id"`
	QuestionID    uint      `gorm:"not null;uniqueIndex:idx_player_question" json:"question_id"`
	OptionID      uint      `gorm:"not null" json:"option_id"`
	IsCorrect     bool      `gorm:"not null;default:false" json:"is_correct"`
	PointsAwarded int       `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (PlayerAnswer) TableName() string {
	return "player_answers"
}
