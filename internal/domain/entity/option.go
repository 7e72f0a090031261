package entity

import (
	"time"
)

// Option представляет вариант ответа на вопрос.
// DisplayOrder — явный персистентный ключ сортировки: кнопка на позиции K
// у хоста и у игрока обязана соответствовать одному и тому же варианту.
// CreatedAt сохраняется как вторичный ключ для вариантов со старых викторин,
// где display_order заполнялся из порядка создания.
type Option struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	QuestionID   uint      `gorm:"not null;index" json:"question_id"`
	Text         string    `gorm:"size:255;not null" json:"text"`
	IsCorrect    bool      `gorm:"not null;default:false" json:"-"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Option) TableName() string {
	return "options"
}
