package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/livequiz-api/internal/handler/dto"
	"github.com/yourusername/livequiz-api/internal/middleware"
	"github.com/yourusername/livequiz-api/internal/service"
	"github.com/yourusername/livequiz-api/pkg/auth"
)

// PlayHandler обрабатывает запросы игроков: вход по PIN, регистрация
// имени, отправка ответов и восстановление состояния.
type PlayHandler struct {
	gameService *service.GameService
	jwtService  *auth.JWTService
}

// NewPlayHandler создает новый обработчик игроков
func NewPlayHandler(gameService *service.GameService, jwtService *auth.JWTService) *PlayHandler {
	return &PlayHandler{
		gameService: gameService,
		jwtService:  jwtService,
	}
}

// JoinRequest представляет запрос на вход в игру по PIN-коду
type JoinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// Join разрешает PIN-код в игру
// POST /api/play/join
func (h *PlayHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.gameService.JoinByPin(c.Request.Context(), req.Pin)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.JoinGameResponse{
		GameID: game.ID,
		State:  game.State,
	})
}

// RegisterRequest представляет запрос на регистрацию имени в игре
type RegisterRequest struct {
	Name string `json:"name" binding:"required"`
}

// Register регистрирует игрока с именем и выдает ему токен
// POST /api/play/games/:id/players
func (h *PlayHandler) Register(c *gin.Context) {
	gameID := c.MustGet(middleware.ContextGameIDParam).(uint)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.gameService.RegisterPlayer(c.Request.Context(), gameID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	token, err := h.jwtService.GeneratePlayerToken(player.ID, player.GameID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterPlayerResponse{
		Player: dto.NewPlayerResponse(player),
		Token:  token,
	})
}

// SubmitAnswerRequest представляет отправку ответа на текущий вопрос.
// Игрок присылает позицию нажатой кнопки, не ID варианта: сервер сам
// разрешает её через канонический порядок вариантов.
type SubmitAnswerRequest struct {
	QuestionIndex  int `json:"question_index" binding:"min=0"`
	OptionPosition int `json:"option_position" binding:"min=0"`
}

// SubmitAnswer фиксирует ответ игрока на текущий вопрос
// POST /api/play/answer
func (h *PlayHandler) SubmitAnswer(c *gin.Context) {
	playerID := c.MustGet(middleware.ContextPlayerID).(uint)
	gameID := c.MustGet(middleware.ContextGameID).(uint)

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.gameService.SubmitAnswer(c.Request.Context(), gameID, playerID, req.QuestionIndex, req.OptionPosition)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnswerResponse{
		QuestionIndex:  req.QuestionIndex,
		OptionPosition: req.OptionPosition,
		AcceptedAt:     answer.CreatedAt,
	})
}

// GetSnapshot возвращает снимок состояния игры глазами игрока.
// Это точка ресинхронизации: после переподключения или пропущенного
// события клиент восстанавливает экран одним запросом.
// GET /api/play/snapshot
func (h *PlayHandler) GetSnapshot(c *gin.Context) {
	playerID := c.MustGet(middleware.ContextPlayerID).(uint)
	gameID := c.MustGet(middleware.ContextGameID).(uint)

	snapshot, err := h.gameService.Snapshot(c.Request.Context(), gameID, playerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
