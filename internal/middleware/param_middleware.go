package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Ключи контекста для числовых параметров пути.
const (
	ContextGameIDParam = "gameID"
	ContextQuizIDParam = "quizID"
)

// ExtractUintParam разбирает числовой параметр пути и кладёт его в контекст
// под указанным ключом. При невалидном значении возвращает 400.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || value == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + paramName + " parameter"})
			return
		}

		c.Set(contextKey, uint(value))
		c.Next()
	}
}

// ExtractGameID извлекает :id как идентификатор игры.
func ExtractGameID() gin.HandlerFunc {
	return ExtractUintParam("id", ContextGameIDParam)
}

// ExtractQuizID извлекает :id как идентификатор викторины.
func ExtractQuizID() gin.HandlerFunc {
	return ExtractUintParam("id", ContextQuizIDParam)
}
