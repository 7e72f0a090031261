package dto

import (
	"time"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
)

// GameResponse представляет игру в формате для ответа хосту
type GameResponse struct {
	ID                   uint       `json:"id"`
	QuizID               uint       `json:"quiz_id"`
	PinCode              string     `json:"pin_code"`
	Status               string     `json:"status"`
	State                string     `json:"state"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	EndedAt              *time.Time `json:"ended_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// JoinGameResponse — ответ на разрешение PIN-кода. PIN наружу не
// возвращается: игрок его и так знает, а в ответе он не нужен.
type JoinGameResponse struct {
	GameID uint   `json:"game_id"`
	State  string `json:"state"`
}

// PlayerResponse представляет игрока в формате для ответа клиенту
type PlayerResponse struct {
	ID       uint      `json:"id"`
	GameID   uint      `json:"game_id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// RegisterPlayerResponse — ответ на регистрацию имени: данные игрока
// и его токен для последующих запросов.
type RegisterPlayerResponse struct {
	Player PlayerResponse `json:"player"`
	Token  string         `json:"token"`
}

// AnswerResponse — подтверждение принятого ответа. Правильность и очки
// не раскрываются до закрытия вопроса.
type AnswerResponse struct {
	QuestionIndex  int       `json:"question_index"`
	OptionPosition int       `json:"option_position"`
	AcceptedAt     time.Time `json:"accepted_at"`
}

// NewGameResponse создает DTO для игры
func NewGameResponse(game *entity.Game) *GameResponse {
	return &GameResponse{
		ID:                   game.ID,
		QuizID:               game.QuizID,
		PinCode:              game.PinCode,
		Status:               game.Status,
		State:                game.State,
		CurrentQuestionIndex: game.CurrentQuestionIndex,
		StartedAt:            game.StartedAt,
		EndedAt:              game.EndedAt,
		CreatedAt:            game.CreatedAt,
	}
}

// NewListGameResponse создает список DTO игр
func NewListGameResponse(games []entity.Game) []*GameResponse {
	response := make([]*GameResponse, 0, len(games))
	for i := range games {
		response = append(response, NewGameResponse(&games[i]))
	}
	return response
}

// NewPlayerResponse создает DTO для игрока
func NewPlayerResponse(player *entity.Player) PlayerResponse {
	return PlayerResponse{
		ID:       player.ID,
		GameID:   player.GameID,
		Name:     player.Name,
		Score:    player.Score,
		JoinedAt: player.JoinedAt,
	}
}
