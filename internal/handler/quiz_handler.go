package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/livequiz-api/internal/handler/dto"
	"github.com/yourusername/livequiz-api/internal/middleware"
	"github.com/yourusername/livequiz-api/internal/service"
)

// QuizHandler обрабатывает запросы хоста по викторинам
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// CreateQuiz создает викторину с вопросами и вариантами
// POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uint)

	var input service.QuizInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), ownerID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz, true))
}

// GetQuiz возвращает викторину владельца вместе с вопросами
// GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uint)
	quizID := c.MustGet(middleware.ContextQuizIDParam).(uint)

	quiz, err := h.quizService.GetQuiz(c.Request.Context(), quizID, ownerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, true))
}

// ListQuizzes возвращает викторины владельца с пагинацией
// GET /api/quizzes
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uint)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	quizzes, err := h.quizService.ListQuizzes(c.Request.Context(), ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quizzes": dto.NewListQuizResponse(quizzes),
		"page":    page,
		"size":    pageSize,
	})
}

// DeleteQuiz удаляет викторину владельца
// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uint)
	quizID := c.MustGet(middleware.ContextQuizIDParam).(uint)

	if err := h.quizService.DeleteQuiz(c.Request.Context(), quizID, ownerID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted successfully"})
}
