package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/livequiz-api/internal/service"
	"github.com/yourusername/livequiz-api/internal/websocket"
	"github.com/yourusername/livequiz-api/pkg/auth"
)

// WSHandler обрабатывает WebSocket соединения игр.
// Канал событий тонкий: по нему приходят только уведомления об изменениях,
// все содержательные данные клиент запрашивает снимком по HTTP. Поэтому
// обрыв соединения не страшен — клиент переподключается и ресинхронизируется.
type WSHandler struct {
	hub         *websocket.Hub
	manager     *websocket.Manager
	gameService *service.GameService
	jwtService  *auth.JWTService
	upgrader    gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins должен совпадать с CORS-конфигурацией HTTP API.
func NewWSHandler(hub *websocket.Hub, gameService *service.GameService, jwtService *auth.JWTService, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:         hub,
		manager:     websocket.NewManager(hub),
		gameService: gameService,
		jwtService:  jwtService,
		upgrader:    newUpgrader(allowedOrigins),
	}
}

// newUpgrader возвращает upgrader с проверкой Origin по списку из конфигурации
func newUpgrader(allowedOrigins []string) gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Пустой Origin — не браузерный клиент (мобильное приложение, curl),
			// такие подключения разрешаем
			if origin == "" {
				return true
			}

			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}

			log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
			return false
		},
		EnableCompression: true,
	}
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// GET /ws?token=...&game_id=... — токен определяет роль: хост подключается
// с токеном сервиса идентификации и обязан указать game_id своей игры,
// игрок — с токеном, выданным при регистрации (game_id зашит в токене).
func (h *WSHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication token parameter"})
		return
	}

	gameID, role, playerID, err := h.authenticate(c, token)
	if err != nil {
		log.Printf("WebSocket: authentication failed - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket: error upgrading connection: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, gameID, role, playerID)
	h.hub.Register(client)

	log.Printf("WebSocket: %s подключился к игре #%d (connection %s)", role, gameID, client.ConnectionID)

	// Игра могла завершиться, пока клиент переподключался:
	// предупреждаем сразу, событий по ней уже не будет
	if game, gerr := h.gameService.GameByID(c.Request.Context(), gameID); gerr == nil && game.IsFinished() {
		h.manager.SendErrorToClient(client.ConnectionID, "game_finished", "game is finished")
	}

	go client.WritePump()
	go client.ReadPump()
}

// authenticate разбирает токен и возвращает (gameID, role, playerID).
// Сначала пробуем токен игрока: он выпущен нами и содержит game_id.
func (h *WSHandler) authenticate(c *gin.Context, token string) (uint, string, uint, error) {
	if claims, err := h.jwtService.ParsePlayerToken(token); err == nil {
		return claims.GameID, websocket.RolePlayer, claims.PlayerID, nil
	}

	claims, err := h.jwtService.ParseHostToken(token)
	if err != nil {
		return 0, "", 0, err
	}

	gameID, err := strconv.ParseUint(c.Query("game_id"), 10, 64)
	if err != nil || gameID == 0 {
		return 0, "", 0, auth.ErrInvalidToken
	}

	// Хост может слушать только собственную игру
	if _, err := h.gameService.GameForHost(c.Request.Context(), uint(gameID), claims.UserID); err != nil {
		return 0, "", 0, err
	}

	return uint(gameID), websocket.RoleHost, 0, nil
}
