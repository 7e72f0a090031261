package entity

import (
	"time"
)

// Константы статусов жизненного цикла игры.
// Статус отвечает на вопрос "можно ли присоединиться", состояние сессии (GameState*) —
// "что сейчас на экране".
const (
	GameStatusWaiting = "waiting"
	GameStatusActive  = "active"
	GameStatusEnded   = "ended"
)

// Константы состояний игровой сессии. Переходы между ними выполняет
// исключительно хост; игроки только наблюдают.
const (
	GameStateLobby       = "lobby"
	GameStateQuestion    = "question"
	GameStateResults     = "results"
	GameStateLeaderboard = "leaderboard"
	GameStateFinished    = "finished"
)

// NoQuestionIndex — значение current_question_index, пока ни один вопрос не запущен.
const NoQuestionIndex = -1

// sessionTransitions описывает допустимые переходы состояний сессии.
// results -> question и results -> leaderboard различаются по границе списка
// вопросов, это проверяет HostController.
var sessionTransitions = map[string][]string{
	GameStateLobby:       {GameStateQuestion},
	GameStateQuestion:    {GameStateResults},
	GameStateResults:     {GameStateQuestion, GameStateLeaderboard},
	GameStateLeaderboard: {GameStateFinished},
	GameStateFinished:    {},
}

// CanTransition проверяет, допустим ли переход состояния сессии from -> to.
func CanTransition(from, to string) bool {
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusForState возвращает статус жизненного цикла, соответствующий состоянию сессии.
func StatusForState(state string) string {
	switch state {
	case GameStateLobby:
		return GameStatusWaiting
	case GameStateFinished:
		return GameStatusEnded
	default:
		return GameStatusActive
	}
}

// Game представляет одну живую игровую сессию по викторине
type Game struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	QuizID               uint       `gorm:"not null;index" json:"quiz_id"`
	HostID               uint       `gorm:"not null;index" json:"host_id"`
	PinCode              string     `gorm:"size:6;not null;index" json:"pin_code"`
	Status               string     `gorm:"size:20;not null;default:'waiting';index" json:"status"`
	State                string     `gorm:"size:20;not null;default:'lobby'" json:"state"`
	CurrentQuestionIndex int        `gorm:"not null;default:-1" json:"current_question_index"`
	ScoredThroughIndex   int        `gorm:"not null;default:-1" json:"-"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	EndedAt              *time.Time `json:"ended_at,omitempty"`
	Quiz                 *Quiz      `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	Players              []Player   `gorm:"foreignKey:GameID" json:"players,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Game) TableName() string {
	return "games"
}

// IsJoinable проверяет, может ли игрок присоединиться по PIN.
// Присоединение разрешено только в статусах waiting и active.
func (g *Game) IsJoinable() bool {
	return g.Status == GameStatusWaiting || g.Status == GameStatusActive
}

// IsFinished проверяет, завершена ли сессия
func (g *Game) IsFinished() bool {
	return g.State == GameStateFinished
}

// CanTransitionTo проверяет допустимость перехода текущего состояния сессии в to
func (g *Game) CanTransitionTo(to string) bool {
	return CanTransition(g.State, to)
}

// QuestionScored сообщает, были ли уже начислены очки за вопрос с индексом idx
func (g *Game) QuestionScored(idx int) bool {
	return g.ScoredThroughIndex >= idx
}
