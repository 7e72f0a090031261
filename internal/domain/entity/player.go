package entity

import (
	"time"
)

// Player представляет игрока, присоединившегося к игре по PIN-коду.
// Имя уникально в пределах одной игры: уникальный индекс (game_id, name)
// на уровне БД закрывает гонку одновременной регистрации одинаковых имён.
type Player struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GameID   uint      `gorm:"not null;uniqueIndex:idx_game_player_name" json:"game_id"`
	Name     string    `gorm:"size:50;not null;uniqueIndex:idx_game_player_name" json:"name"`
	Score    int       `gorm:"not null;default:0" json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// TableName определяет имя таблицы для GORM
func (Player) TableName() string {
	return "players"
}
