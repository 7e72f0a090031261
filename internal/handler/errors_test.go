package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

func TestHandleServiceError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound},
		{"not joinable looks like not found", apperrors.ErrGameNotJoinable, http.StatusNotFound},
		{"name taken", apperrors.ErrNameTaken, http.StatusConflict},
		{"duplicate answer", apperrors.ErrDuplicateAnswer, http.StatusConflict},
		{"invalid transition", apperrors.ErrInvalidTransition, http.StatusConflict},
		{"conflict", apperrors.ErrConflict, http.StatusConflict},
		{"no players", apperrors.ErrNoPlayers, http.StatusUnprocessableEntity},
		{"validation", apperrors.ErrValidation, http.StatusUnprocessableEntity},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			// Act
			handleServiceError(c, tc.err)

			// Assert
			assert.Equal(t, tc.wantStatus, recorder.Code)
		})
	}
}

func TestHandleServiceError_WrappedError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Arrange: ошибки сервисов приходят обёрнутыми через %w
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	wrapped := fmt.Errorf("%w: quiz #42 has no questions", apperrors.ErrValidation)

	// Act
	handleServiceError(c, wrapped)

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "quiz #42")
}

func TestSanitizeForExcel(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Алия", "Алия"},
		{"=SUM(A1:A9)", "'=SUM(A1:A9)"},
		{"+7700", "'+7700"},
		{"-42", "'-42"},
		{"@user", "'@user"},
		{"\tindent", "'\tindent"},
		{"normal-name", "normal-name"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, sanitizeForExcel(tc.input), "input=%q", tc.input)
	}
}
