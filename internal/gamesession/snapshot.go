package gamesession

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// OptionView — вариант ответа в том виде, в котором его видят клиенты:
// позиция кнопки плюс текст, без признака правильности.
type OptionView struct {
	Position int    `json:"position"`
	OptionID uint   `json:"option_id"`
	Text     string `json:"text"`
}

// QuestionView — текущий вопрос для отображения
type QuestionView struct {
	Index        int          `json:"index"`
	Text         string       `json:"text"`
	TimeLimitSec int          `json:"time_limit_sec"`
	PointValue   int          `json:"point_value"`
	Options      []OptionView `json:"options"`
	RemainingSec int          `json:"remaining_sec"`
	// Число уже зафиксированных ответов: переподключившийся хост
	// видит счётчик сразу, не дожидаясь следующего answer:count
	AnsweredCount int64 `json:"answered_count"`
}

// OptionResult — число ответов, пришедшихся на вариант
type OptionResult struct {
	Position int    `json:"position"`
	OptionID uint   `json:"option_id"`
	Text     string `json:"text"`
	Count    int64  `json:"count"`
}

// QuestionResults — итоги закрытого вопроса: раскрытый правильный вариант
// и распределение ответов по кнопкам
type QuestionResults struct {
	Index           int            `json:"index"`
	CorrectOptionID uint           `json:"correct_option_id"`
	CorrectPosition int            `json:"correct_position"`
	Options         []OptionResult `json:"options"`
	TotalAnswers    int64          `json:"total_answers"`
}

// LeaderboardEntry — строка таблицы лидеров
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID uint   `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// PlayerView — личное состояние игрока в снимке
type PlayerView struct {
	PlayerID        uint   `json:"player_id"`
	Name            string `json:"name"`
	Score           int    `json:"score"`
	Answered        bool   `json:"answered"`
	LastWasCorrect  *bool  `json:"last_was_correct,omitempty"`
	LastPointsWorth int    `json:"last_points_worth"`
}

// GameSnapshot — полный снимок состояния игры для восстановления клиента.
// Снимок самодостаточен: переподключившийся хост или игрок отрисовывает
// правильный экран из одного ответа, не полагаясь на пропущенные события.
type GameSnapshot struct {
	GameID               uint              `json:"game_id"`
	PinCode              string            `json:"pin_code"`
	State                string            `json:"state"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	QuestionCount        int               `json:"question_count"`
	PlayerCount          int64             `json:"player_count"`
	Players              []string          `json:"players,omitempty"`
	Question             *QuestionView     `json:"question,omitempty"`
	Results              *QuestionResults  `json:"results,omitempty"`
	Leaderboard          []LeaderboardEntry `json:"leaderboard,omitempty"`
	Me                   *PlayerView       `json:"me,omitempty"`
}

// Snapshotter собирает снимки состояния игры из БД.
// Горячее состояние хост-контроллера не используется: снимок обязан
// работать и для игры, идущей на другом экземпляре сервера.
type Snapshotter struct {
	config *Config
	deps   *Dependencies
}

// NewSnapshotter создает сборщик снимков
func NewSnapshotter(config *Config, deps *Dependencies) *Snapshotter {
	return &Snapshotter{
		config: config,
		deps:   deps,
	}
}

// Build собирает снимок игры. playerID == 0 означает взгляд хоста.
func (sn *Snapshotter) Build(ctx context.Context, gameID uint, playerID uint) (*GameSnapshot, error) {
	game, err := sn.deps.GameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}

	questionCount, err := sn.deps.QuizRepo.CountQuestions(game.QuizID)
	if err != nil {
		return nil, err
	}
	playerCount, err := sn.deps.PlayerRepo.CountByGame(gameID)
	if err != nil {
		return nil, err
	}

	snapshot := &GameSnapshot{
		GameID:               game.ID,
		PinCode:              game.PinCode,
		State:                game.State,
		CurrentQuestionIndex: game.CurrentQuestionIndex,
		QuestionCount:        int(questionCount),
		PlayerCount:          playerCount,
	}

	switch game.State {
	case entity.GameStateLobby:
		if err := sn.fillLobby(snapshot, gameID); err != nil {
			return nil, err
		}
	case entity.GameStateQuestion:
		if err := sn.fillQuestion(snapshot, game); err != nil {
			return nil, err
		}
	case entity.GameStateResults:
		if err := sn.fillResults(snapshot, game); err != nil {
			return nil, err
		}
	case entity.GameStateLeaderboard, entity.GameStateFinished:
		leaderboard, err := sn.Leaderboard(ctx, gameID)
		if err != nil {
			return nil, err
		}
		snapshot.Leaderboard = leaderboard
	}

	if playerID != 0 {
		if err := sn.fillPlayerView(snapshot, game, playerID); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

// Leaderboard возвращает таблицу лидеров игры, кешируя собранный результат
func (sn *Snapshotter) Leaderboard(ctx context.Context, gameID uint) ([]LeaderboardEntry, error) {
	cacheKey := leaderboardCacheKey(gameID)

	var cached []LeaderboardEntry
	if err := sn.deps.CacheRepo.GetJSON(cacheKey, &cached); err == nil {
		return cached, nil
	}

	players, err := sn.deps.PlayerRepo.Leaderboard(gameID)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(players))
	for i, player := range players {
		entries[i] = LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: player.ID,
			Name:     player.Name,
			Score:    player.Score,
		}
	}

	if err := sn.deps.CacheRepo.SetJSON(cacheKey, entries, sn.config.LeaderboardCacheTTL); err != nil {
		log.Printf("[Snapshotter] WARNING: не удалось закешировать таблицу лидеров игры #%d: %v", gameID, err)
	}
	return entries, nil
}

// QuestionResults собирает итоги вопроса с индексом idx
func (sn *Snapshotter) QuestionResults(ctx context.Context, game *entity.Game, idx int) (*QuestionResults, error) {
	question, err := sn.deps.QuizRepo.GetQuestionByIndex(game.QuizID, idx)
	if err != nil {
		return nil, err
	}

	counts, err := sn.deps.AnswerRepo.CountByOption(game.ID, question.ID)
	if err != nil {
		return nil, err
	}

	results := &QuestionResults{
		Index:           idx,
		CorrectPosition: -1,
	}
	for position, option := range OrderedOptions(question) {
		count := counts[option.ID]
		results.Options = append(results.Options, OptionResult{
			Position: position,
			OptionID: option.ID,
			Text:     option.Text,
			Count:    count,
		})
		results.TotalAnswers += count
		if option.IsCorrect {
			results.CorrectOptionID = option.ID
			results.CorrectPosition = position
		}
	}
	return results, nil
}

func (sn *Snapshotter) fillLobby(snapshot *GameSnapshot, gameID uint) error {
	players, err := sn.deps.PlayerRepo.ListByGame(gameID)
	if err != nil {
		return err
	}
	names := make([]string, len(players))
	for i, player := range players {
		names[i] = player.Name
	}
	snapshot.Players = names
	return nil
}

func (sn *Snapshotter) fillQuestion(snapshot *GameSnapshot, game *entity.Game) error {
	question, err := sn.deps.QuizRepo.GetQuestionByIndex(game.QuizID, game.CurrentQuestionIndex)
	if err != nil {
		return err
	}

	view := &QuestionView{
		Index:        game.CurrentQuestionIndex,
		Text:         question.Text,
		TimeLimitSec: question.TimeLimitSec,
		PointValue:   question.PointValue,
	}
	for position, option := range OrderedOptions(question) {
		view.Options = append(view.Options, OptionView{
			Position: position,
			OptionID: option.ID,
			Text:     option.Text,
		})
	}

	answered, err := sn.deps.AnswerRepo.CountByGameAndQuestion(game.ID, question.ID)
	if err != nil {
		return err
	}
	view.AnsweredCount = answered

	// Оставшееся время восстанавливаем из сохранённого дедлайна
	if raw, err := sn.deps.CacheRepo.Get(questionDeadlineKey(game.ID, game.CurrentQuestionIndex)); err == nil {
		if deadline, ok := parseUnixMilli(raw); ok {
			if remaining := time.Until(deadline); remaining > 0 {
				view.RemainingSec = int(remaining.Round(time.Second) / time.Second)
			}
		}
	}

	snapshot.Question = view
	return nil
}

func (sn *Snapshotter) fillResults(snapshot *GameSnapshot, game *entity.Game) error {
	results, err := sn.QuestionResults(context.Background(), game, game.CurrentQuestionIndex)
	if err != nil {
		return err
	}
	snapshot.Results = results
	return nil
}

func (sn *Snapshotter) fillPlayerView(snapshot *GameSnapshot, game *entity.Game, playerID uint) error {
	player, err := sn.deps.PlayerRepo.GetByID(playerID)
	if err != nil {
		return err
	}
	if player.GameID != game.ID {
		return apperrors.ErrForbidden
	}

	view := &PlayerView{
		PlayerID: player.ID,
		Name:     player.Name,
		Score:    player.Score,
	}

	// Для текущего вопроса важно, ответил ли игрок уже:
	// после переподключения кнопки должны остаться заблокированными
	if game.CurrentQuestionIndex != entity.NoQuestionIndex &&
		(game.State == entity.GameStateQuestion || game.State == entity.GameStateResults) {
		question, err := sn.deps.QuizRepo.GetQuestionByIndex(game.QuizID, game.CurrentQuestionIndex)
		if err != nil {
			return err
		}
		answer, err := sn.deps.AnswerRepo.GetByPlayerAndQuestion(playerID, question.ID)
		switch {
		case err == nil:
			view.Answered = true
			if game.State == entity.GameStateResults {
				correct := answer.IsCorrect
				view.LastWasCorrect = &correct
				view.LastPointsWorth = answer.PointsAwarded
			}
		case errors.Is(err, apperrors.ErrNotFound):
			view.Answered = false
		default:
			return err
		}
	}

	snapshot.Me = view
	return nil
}

// parseUnixMilli разбирает сохранённый дедлайн (Unix ms в строке)
func parseUnixMilli(raw string) (time.Time, bool) {
	var ms int64
	for _, r := range raw {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
		ms = ms*10 + int64(r-'0')
	}
	if ms == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
