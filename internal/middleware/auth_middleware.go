package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/livequiz-api/pkg/auth"
)

// Ключи контекста Gin, под которыми middleware кладет идентификаторы
const (
	ContextUserID   = "userID"
	ContextPlayerID = "playerID"
	ContextGameID   = "playerGameID"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов.
// Хосты приходят с токеном внешнего сервиса идентификации, игроки —
// с токеном, выданным при регистрации имени в игре.
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// RequireHost проверяет токен хоста и кладет userID в контекст
func (m *AuthMiddleware) RequireHost() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_missing"})
			return
		}

		claims, err := m.jwtService.ParseHostToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// RequirePlayer проверяет токен игрока и кладет playerID и gameID в контекст
func (m *AuthMiddleware) RequirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_missing"})
			return
		}

		claims, err := m.jwtService.ParsePlayerToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Invalid or expired player token", "error_type": "token_invalid"})
			return
		}

		c.Set(ContextPlayerID, claims.PlayerID)
		c.Set(ContextGameID, claims.GameID)
		c.Next()
	}
}

// bearerToken извлекает токен из заголовка Authorization
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
