package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/livequiz-api/internal/handler/dto"
	"github.com/yourusername/livequiz-api/internal/middleware"
	"github.com/yourusername/livequiz-api/internal/service"
)

// GameHandler обрабатывает запросы хоста по управлению игровыми сессиями
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler создает новый обработчик игр
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// CreateGameRequest представляет запрос на создание игры
type CreateGameRequest struct {
	QuizID uint `json:"quiz_id" binding:"required"`
}

// CreateGame создает новую игру по викторине и выдает PIN-код
// POST /api/games
func (h *GameHandler) CreateGame(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uint)

	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.gameService.CreateGame(c.Request.Context(), hostID, req.QuizID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGameResponse(game))
}

// ListGames возвращает игры хоста с пагинацией
// GET /api/games
func (h *GameHandler) ListGames(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uint)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	games, err := h.gameService.ListHostGames(c.Request.Context(), hostID, pageSize, (page-1)*pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"games": dto.NewListGameResponse(games),
		"page":  page,
		"size":  pageSize,
	})
}

// GetGame возвращает игру хоста
// GET /api/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uint)
	gameID := c.MustGet(middleware.ContextGameIDParam).(uint)

	game, err := h.gameService.GameForHost(c.Request.Context(), gameID, hostID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGameResponse(game))
}

// GetSnapshot возвращает полный снимок состояния игры глазами хоста
// GET /api/games/:id/snapshot
func (h *GameHandler) GetSnapshot(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uint)
	gameID := c.MustGet(middleware.ContextGameIDParam).(uint)

	if _, err := h.gameService.GameForHost(c.Request.Context(), gameID, hostID); err != nil {
		handleServiceError(c, err)
		return
	}

	snapshot, err := h.gameService.Snapshot(c.Request.Context(), gameID, 0)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// StartGame запускает игру из лобби
// POST /api/games/:id/start
func (h *GameHandler) StartGame(c *gin.Context) {
	h.hostCommand(c, h.gameService.StartGame, "Game started")
}

// SkipQuestion досрочно закрывает текущий вопрос
// POST /api/games/:id/skip
func (h *GameHandler) SkipQuestion(c *gin.Context) {
	h.hostCommand(c, h.gameService.SkipQuestion, "Question closed")
}

// NextQuestion переводит игру с экрана результатов дальше
// POST /api/games/:id/next
func (h *GameHandler) NextQuestion(c *gin.Context) {
	h.hostCommand(c, h.gameService.NextQuestion, "Advanced to next screen")
}

// EndGame завершает игру
// POST /api/games/:id/end
func (h *GameHandler) EndGame(c *gin.Context) {
	h.hostCommand(c, h.gameService.EndGame, "Game ended")
}

// hostCommand выполняет команду хоста над игрой из контекста запроса.
// Все команды идемпотентно разрешаются в сервисном слое; здесь только
// транспорт.
func (h *GameHandler) hostCommand(c *gin.Context, command func(ctx context.Context, gameID, hostID uint) error, okMessage string) {
	hostID := c.MustGet(middleware.ContextUserID).(uint)
	gameID := c.MustGet(middleware.ContextGameIDParam).(uint)

	if err := command(c.Request.Context(), gameID, hostID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": okMessage})
}

// GetLeaderboard возвращает таблицу лидеров игры
// GET /api/games/:id/leaderboard
func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uint)
	gameID := c.MustGet(middleware.ContextGameIDParam).(uint)

	if _, err := h.gameService.GameForHost(c.Request.Context(), gameID, hostID); err != nil {
		handleServiceError(c, err)
		return
	}

	leaderboard, err := h.gameService.Leaderboard(c.Request.Context(), gameID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": leaderboard,
		"total":       len(leaderboard),
	})
}

// ExportResults экспортирует результаты игры в CSV или Excel формате
// GET /api/games/:id/export?format=csv|xlsx
func (h *GameHandler) ExportResults(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uint)
	gameID := c.MustGet(middleware.ContextGameIDParam).(uint)
	format := c.DefaultQuery("format", "csv")

	rows, err := h.gameService.ResultsExport(c.Request.Context(), gameID, hostID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("game_%d_results_%s", gameID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, rows, filename)
	default:
		h.exportCSV(c, rows, filename)
	}
}

// exportCSV экспортирует результаты в CSV с правильным экранированием спецсимволов
func (h *GameHandler) exportCSV(c *gin.Context, rows []service.ExportRow, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// encoding/csv берет на себя экранирование запятых и кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Игрок", "Итоговый счёт", "Номер вопроса", "Вопрос", "Выбранный вариант", "Верно", "Очки за ответ", "Время ответа"})

	for _, r := range rows {
		correct := "Нет"
		if r.IsCorrect {
			correct = "Да"
		}

		writer.Write([]string{
			sanitizeForExcel(r.PlayerName),
			strconv.Itoa(r.PlayerScore),
			strconv.Itoa(r.QuestionIndex + 1),
			sanitizeForExcel(r.QuestionText),
			sanitizeForExcel(r.OptionText),
			correct,
			strconv.Itoa(r.PointsAwarded),
			r.AnsweredAt.Format(time.RFC3339),
		})
	}
}

// exportXLSX экспортирует результаты в Excel с использованием StreamWriter
func (h *GameHandler) exportXLSX(c *gin.Context, rows []service.ExportRow, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[GameHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Игрок", "Итоговый счёт", "Номер вопроса", "Вопрос", "Выбранный вариант", "Верно", "Очки за ответ", "Время ответа"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[GameHandler] Ошибка записи заголовков: %v", err)
	}

	for i, r := range rows {
		rowNum := i + 2 // Первая строка занята заголовками
		cell := fmt.Sprintf("A%d", rowNum)

		correct := "Нет"
		if r.IsCorrect {
			correct = "Да"
		}

		row := []interface{}{
			sanitizeForExcel(r.PlayerName),
			r.PlayerScore,
			r.QuestionIndex + 1,
			sanitizeForExcel(r.QuestionText),
			sanitizeForExcel(r.OptionText),
			correct,
			r.PointsAwarded,
			r.AnsweredAt.Format(time.RFC3339),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[GameHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[GameHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[GameHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
