package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	"github.com/yourusername/livequiz-api/internal/domain/repository"
	"github.com/yourusername/livequiz-api/internal/gamesession"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
	"github.com/yourusername/livequiz-api/internal/websocket"
)

// GameService — фасад над компонентами игровой сессии: создание игры
// с выдачей PIN, команды хоста, операции игроков и снимки состояния.
type GameService struct {
	gameRepo   repository.GameRepository
	quizRepo   repository.QuizRepository
	playerRepo repository.PlayerRepository
	answerRepo repository.AnswerRepository

	config      *gamesession.Config
	deps        *gamesession.Dependencies
	host        *gamesession.HostController
	players     *gamesession.PlayerManager
	snapshotter *gamesession.Snapshotter
}

// NewGameService создает сервис игровых сессий
func NewGameService(
	gameRepo repository.GameRepository,
	quizRepo repository.QuizRepository,
	playerRepo repository.PlayerRepository,
	answerRepo repository.AnswerRepository,
	cacheRepo repository.CacheRepository,
	wsManager *websocket.Manager,
	config *gamesession.Config,
) *GameService {
	if config == nil {
		config = gamesession.DefaultConfig()
	}

	deps := &gamesession.Dependencies{
		GameRepo:   gameRepo,
		QuizRepo:   quizRepo,
		PlayerRepo: playerRepo,
		AnswerRepo: answerRepo,
		CacheRepo:  cacheRepo,
		WSManager:  wsManager,
		Config:     config,
	}

	s := &GameService{
		gameRepo:    gameRepo,
		quizRepo:    quizRepo,
		playerRepo:  playerRepo,
		answerRepo:  answerRepo,
		config:      config,
		deps:        deps,
		host:        gamesession.NewHostController(config, deps),
		players:     gamesession.NewPlayerManager(config, deps),
		snapshotter: gamesession.NewSnapshotter(config, deps),
	}

	log.Println("[GameService] Сервис игровых сессий инициализирован")
	return s
}

// CreateGame создает новую игру по викторине хоста и выдает ей PIN
func (s *GameService) CreateGame(ctx context.Context, hostID uint, quizID uint) (*entity.Game, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.OwnerID != hostID {
		return nil, apperrors.ErrForbidden
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz #%d has no questions", apperrors.ErrValidation, quizID)
	}

	// Уникальный индекс по pin_code — последний рубеж против выдачи
	// одного PIN двум играм (резерв в Redis может быть потерян);
	// столкновение на вставке лечится новым PIN
	var game *entity.Game
	for attempt := 0; attempt < s.config.PinMaxAttempts; attempt++ {
		pin, err := gamesession.AllocatePin(s.config, s.deps)
		if err != nil {
			return nil, err
		}

		game = &entity.Game{
			QuizID:               quizID,
			HostID:               hostID,
			PinCode:              pin,
			Status:               entity.GameStatusWaiting,
			State:                entity.GameStateLobby,
			CurrentQuestionIndex: entity.NoQuestionIndex,
			ScoredThroughIndex:   entity.NoQuestionIndex,
		}
		err = s.gameRepo.Create(game)
		if err == nil {
			log.Printf("[GameService] Создана игра #%d (PIN %s) по викторине #%d", game.ID, pin, quizID)
			return game, nil
		}
		if errors.Is(err, apperrors.ErrPinTaken) {
			log.Printf("[GameService] PIN %s занят на вставке, пробуем другой", pin)
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not create game with a unique pin in %d attempts", s.config.PinMaxAttempts)
}

// StartGame запускает игру из лобби
func (s *GameService) StartGame(ctx context.Context, gameID uint, hostID uint) error {
	return s.host.StartGame(ctx, gameID, hostID)
}

// SkipQuestion досрочно закрывает текущий вопрос
func (s *GameService) SkipQuestion(ctx context.Context, gameID uint, hostID uint) error {
	if _, err := s.host.Rehydrate(ctx, gameID); err != nil {
		return err
	}
	return s.host.SkipQuestion(ctx, gameID, hostID)
}

// NextQuestion переводит игру с экрана результатов дальше
func (s *GameService) NextQuestion(ctx context.Context, gameID uint, hostID uint) error {
	if _, err := s.host.Rehydrate(ctx, gameID); err != nil {
		return err
	}
	return s.host.NextQuestion(ctx, gameID, hostID)
}

// EndGame завершает игру
func (s *GameService) EndGame(ctx context.Context, gameID uint, hostID uint) error {
	if _, err := s.host.Rehydrate(ctx, gameID); err != nil {
		return err
	}
	return s.host.EndGame(ctx, gameID, hostID)
}

// JoinByPin ищет незавершённую игру по PIN-коду
func (s *GameService) JoinByPin(ctx context.Context, pin string) (*entity.Game, error) {
	return s.players.JoinByPin(ctx, pin)
}

// RegisterPlayer регистрирует игрока с именем в игре
func (s *GameService) RegisterPlayer(ctx context.Context, gameID uint, name string) (*entity.Player, error) {
	return s.players.Register(ctx, gameID, name)
}

// SubmitAnswer фиксирует ответ игрока на текущий вопрос
func (s *GameService) SubmitAnswer(ctx context.Context, gameID uint, playerID uint, questionIndex int, optionPosition int) (*entity.PlayerAnswer, error) {
	return s.players.SubmitAnswer(ctx, gameID, playerID, questionIndex, optionPosition)
}

// Snapshot собирает снимок состояния игры. playerID == 0 — взгляд хоста.
func (s *GameService) Snapshot(ctx context.Context, gameID uint, playerID uint) (*gamesession.GameSnapshot, error) {
	return s.snapshotter.Build(ctx, gameID, playerID)
}

// Leaderboard возвращает таблицу лидеров игры
func (s *GameService) Leaderboard(ctx context.Context, gameID uint) ([]gamesession.LeaderboardEntry, error) {
	return s.snapshotter.Leaderboard(ctx, gameID)
}

// GameByID возвращает игру по ID
func (s *GameService) GameByID(ctx context.Context, gameID uint) (*entity.Game, error) {
	return s.gameRepo.GetByID(gameID)
}

// GameForHost возвращает игру, проверяя что её запрашивает владелец-хост
func (s *GameService) GameForHost(ctx context.Context, gameID uint, hostID uint) (*entity.Game, error) {
	game, err := s.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.HostID != hostID {
		return nil, apperrors.ErrForbidden
	}
	return game, nil
}

// ListHostGames возвращает игры хоста с пагинацией
func (s *GameService) ListHostGames(ctx context.Context, hostID uint, limit, offset int) ([]entity.Game, error) {
	return s.gameRepo.ListByHost(hostID, limit, offset)
}

// ExportRow — строка выгрузки результатов игры: один ответ одного игрока
type ExportRow struct {
	PlayerName    string
	PlayerScore   int
	QuestionIndex int
	QuestionText  string
	OptionText    string
	IsCorrect     bool
	PointsAwarded int
	AnsweredAt    time.Time
}

// ResultsExport собирает построчную выгрузку результатов завершённой игры
// для CSV/XLSX. Доступна только хосту игры.
func (s *GameService) ResultsExport(ctx context.Context, gameID uint, hostID uint) ([]ExportRow, error) {
	game, err := s.gameRepo.GetWithPlayers(gameID)
	if err != nil {
		return nil, err
	}
	if game.HostID != hostID {
		return nil, apperrors.ErrForbidden
	}

	quiz, err := s.quizRepo.GetWithQuestions(game.QuizID)
	if err != nil {
		return nil, err
	}

	playersByID := make(map[uint]entity.Player, len(game.Players))
	for _, player := range game.Players {
		playersByID[player.ID] = player
	}

	questionsByID := make(map[uint]entity.Question, len(quiz.Questions))
	optionsByID := make(map[uint]entity.Option)
	for _, question := range quiz.Questions {
		questionsByID[question.ID] = question
		for _, option := range question.Options {
			optionsByID[option.ID] = option
		}
	}

	answers, err := s.answerRepo.ListByGame(gameID)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(answers))
	for _, answer := range answers {
		player, ok := playersByID[answer.PlayerID]
		if !ok {
			continue
		}
		question := questionsByID[answer.QuestionID]
		option := optionsByID[answer.OptionID]
		rows = append(rows, ExportRow{
			PlayerName:    player.Name,
			PlayerScore:   player.Score,
			QuestionIndex: question.OrderIndex,
			QuestionText:  question.Text,
			OptionText:    option.Text,
			IsCorrect:     answer.IsCorrect,
			PointsAwarded: answer.PointsAwarded,
			AnsweredAt:    answer.CreatedAt,
		})
	}
	return rows, nil
}
