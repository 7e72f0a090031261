package gamesession

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
	"github.com/yourusername/livequiz-api/internal/websocket"
)

// Максимальная длина имени игрока в символах
const maxPlayerNameLength = 50

// PlayerManager обрабатывает операции игроков: вход по PIN, регистрацию
// имени и фиксацию ответов. Все проверки идут против строки игры в БД,
// а не горячего состояния хоста, поэтому игрок может находиться на любом
// экземпляре сервера.
type PlayerManager struct {
	config *Config
	deps   *Dependencies
}

// NewPlayerManager создает менеджер операций игроков
func NewPlayerManager(config *Config, deps *Dependencies) *PlayerManager {
	return &PlayerManager{
		config: config,
		deps:   deps,
	}
}

// JoinByPin ищет незавершённую игру по PIN-коду.
// Неверный формат PIN и отсутствующая игра дают одну и ту же ошибку,
// чтобы не раскрывать перебором существующие коды.
func (pm *PlayerManager) JoinByPin(ctx context.Context, pin string) (*entity.Game, error) {
	pin = strings.TrimSpace(pin)
	if len(pin) != pm.config.PinLength || !isDigits(pin) {
		return nil, apperrors.ErrGameNotJoinable
	}
	return pm.deps.GameRepo.GetJoinableByPin(pin)
}

// Register регистрирует игрока с именем в игре.
// Уникальность имени в пределах игры гарантирует БД: при гонке одинаковых
// имён ровно один запрос выигрывает, второй получает ErrNameTaken.
func (pm *PlayerManager) Register(ctx context.Context, gameID uint, name string) (*entity.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxPlayerNameLength {
		return nil, fmt.Errorf("%w: player name exceeds %d characters",
			apperrors.ErrValidation, maxPlayerNameLength)
	}

	game, err := pm.deps.GameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if !game.IsJoinable() {
		return nil, apperrors.ErrGameNotJoinable
	}

	player := &entity.Player{
		GameID:   gameID,
		Name:     name,
		JoinedAt: time.Now(),
	}
	if err := pm.deps.PlayerRepo.Create(player); err != nil {
		return nil, err
	}

	playerCount, err := pm.deps.PlayerRepo.CountByGame(gameID)
	if err != nil {
		log.Printf("[PlayerManager] WARNING: не удалось посчитать игроков игры #%d: %v", gameID, err)
		playerCount = 0
	}

	log.Printf("[PlayerManager] Игрок %q (#%d) зарегистрирован в игре #%d, всего игроков: %d",
		player.Name, player.ID, gameID, playerCount)

	if err := pm.deps.WSManager.BroadcastEventToGame(gameID, websocket.PLAYER_JOINED, map[string]interface{}{
		"game_id":      gameID,
		"player_id":    player.ID,
		"name":         player.Name,
		"player_count": playerCount,
	}); err != nil {
		log.Printf("[PlayerManager] WARNING: не удалось разослать player:joined для игры #%d: %v", gameID, err)
	}

	return player, nil
}

// SubmitAnswer фиксирует ответ игрока: кнопку на позиции optionPosition
// для вопроса с индексом questionIndex. Позиция разрешается в вариант
// через канонический порядок — тот же, в котором варианты были показаны.
// Ответ принимается только пока игра стоит на этом вопросе; правильность
// и очки фиксируются в момент записи.
func (pm *PlayerManager) SubmitAnswer(ctx context.Context, gameID uint, playerID uint, questionIndex int, optionPosition int) (*entity.PlayerAnswer, error) {
	game, err := pm.deps.GameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.State != entity.GameStateQuestion || game.CurrentQuestionIndex != questionIndex {
		return nil, fmt.Errorf("%w: question %d is not accepting answers",
			apperrors.ErrConflict, questionIndex)
	}

	player, err := pm.deps.PlayerRepo.GetByID(playerID)
	if err != nil {
		return nil, err
	}
	if player.GameID != gameID {
		return nil, apperrors.ErrForbidden
	}

	question, err := pm.deps.QuizRepo.GetQuestionByIndex(game.QuizID, questionIndex)
	if err != nil {
		return nil, err
	}

	option, err := OptionAt(question, optionPosition)
	if err != nil {
		return nil, err
	}

	answer := &entity.PlayerAnswer{
		GameID:     gameID,
		PlayerID:   playerID,
		QuestionID: question.ID,
		OptionID:   option.ID,
		IsCorrect:  option.IsCorrect,
	}
	if option.IsCorrect {
		answer.PointsAwarded = question.PointValue
	}

	if err := pm.deps.AnswerRepo.Save(answer); err != nil {
		return nil, err
	}

	log.Printf("[PlayerManager] Игра #%d: игрок #%d ответил на вопрос %d (вариант #%d, correct=%t)",
		gameID, playerID, questionIndex, option.ID, option.IsCorrect)

	// Живой счётчик ответов для экрана хоста. Ошибки Redis не критичны:
	// точное число хост увидит на экране результатов из БД.
	count, err := pm.deps.CacheRepo.Increment(answerCountKey(gameID, question.ID))
	if err != nil {
		log.Printf("[PlayerManager] WARNING: не удалось обновить счётчик ответов игры #%d: %v", gameID, err)
		return answer, nil
	}

	if err := pm.deps.WSManager.BroadcastEventToGame(gameID, websocket.ANSWER_COUNT, map[string]interface{}{
		"game_id":                gameID,
		"current_question_index": questionIndex,
		"answered":               count,
	}); err != nil {
		log.Printf("[PlayerManager] WARNING: не удалось разослать answer:count для игры #%d: %v", gameID, err)
	}

	return answer, nil
}

// isDigits проверяет, что строка состоит только из десятичных цифр
func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
