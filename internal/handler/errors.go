package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// handleServiceError преобразует ошибки сервисного слоя в HTTP-ответы.
// Специфичные ошибки игровой сессии проверяются раньше общих, потому что
// часть из них обёрнута поверх общих сентинелов.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrGameNotJoinable):
		// Для клиента несуществующий и незапускаемый PIN неразличимы
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "name_taken"})
	case errors.Is(err, apperrors.ErrDuplicateAnswer):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "duplicate_answer"})
	case errors.Is(err, apperrors.ErrNoPlayers):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
