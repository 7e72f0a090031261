package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	"github.com/yourusername/livequiz-api/internal/gamesession"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
	"github.com/yourusername/livequiz-api/internal/websocket"
)

// ============================================================================
// Моки для GameService
// ============================================================================

type MockGameRepoForGameService struct {
	mock.Mock
}

func (m *MockGameRepoForGameService) Create(game *entity.Game) error {
	args := m.Called(game)
	return args.Error(0)
}

func (m *MockGameRepoForGameService) GetByID(id uint) (*entity.Game, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepoForGameService) GetJoinableByPin(pin string) (*entity.Game, error) {
	args := m.Called(pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepoForGameService) GetWithPlayers(id uint) (*entity.Game, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepoForGameService) ListByHost(hostID uint, limit, offset int) ([]entity.Game, error) {
	args := m.Called(hostID, limit, offset)
	return args.Get(0).([]entity.Game), args.Error(1)
}

func (m *MockGameRepoForGameService) AdvanceState(gameID uint, fromState string, fromIndex int, toState string, toIndex int) error {
	args := m.Called(gameID, fromState, fromIndex, toState, toIndex)
	return args.Error(0)
}

func (m *MockGameRepoForGameService) MarkQuestionScored(gameID uint, idx int) (bool, error) {
	args := m.Called(gameID, idx)
	return args.Bool(0), args.Error(1)
}

func (m *MockGameRepoForGameService) Update(game *entity.Game) error {
	args := m.Called(game)
	return args.Error(0)
}

func (m *MockGameRepoForGameService) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockPlayerRepoForGameService struct {
	mock.Mock
}

func (m *MockPlayerRepoForGameService) Create(player *entity.Player) error {
	args := m.Called(player)
	return args.Error(0)
}

func (m *MockPlayerRepoForGameService) GetByID(id uint) (*entity.Player, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Player), args.Error(1)
}

func (m *MockPlayerRepoForGameService) ListByGame(gameID uint) ([]entity.Player, error) {
	args := m.Called(gameID)
	return args.Get(0).([]entity.Player), args.Error(1)
}

func (m *MockPlayerRepoForGameService) CountByGame(gameID uint) (int64, error) {
	args := m.Called(gameID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerRepoForGameService) AddScore(playerID uint, points int) error {
	args := m.Called(playerID, points)
	return args.Error(0)
}

func (m *MockPlayerRepoForGameService) Leaderboard(gameID uint) ([]entity.Player, error) {
	args := m.Called(gameID)
	return args.Get(0).([]entity.Player), args.Error(1)
}

type MockAnswerRepoForGameService struct {
	mock.Mock
}

func (m *MockAnswerRepoForGameService) Save(answer *entity.PlayerAnswer) error {
	args := m.Called(answer)
	return args.Error(0)
}

func (m *MockAnswerRepoForGameService) GetByPlayerAndQuestion(playerID, questionID uint) (*entity.PlayerAnswer, error) {
	args := m.Called(playerID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PlayerAnswer), args.Error(1)
}

func (m *MockAnswerRepoForGameService) ListByGameAndQuestion(gameID, questionID uint) ([]entity.PlayerAnswer, error) {
	args := m.Called(gameID, questionID)
	return args.Get(0).([]entity.PlayerAnswer), args.Error(1)
}

func (m *MockAnswerRepoForGameService) CountByGameAndQuestion(gameID, questionID uint) (int64, error) {
	args := m.Called(gameID, questionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnswerRepoForGameService) CountByOption(gameID, questionID uint) (map[uint]int64, error) {
	args := m.Called(gameID, questionID)
	return args.Get(0).(map[uint]int64), args.Error(1)
}

func (m *MockAnswerRepoForGameService) ListByGame(gameID uint) ([]entity.PlayerAnswer, error) {
	args := m.Called(gameID)
	return args.Get(0).([]entity.PlayerAnswer), args.Error(1)
}

type MockCacheRepoForGameService struct {
	mock.Mock
}

func (m *MockCacheRepoForGameService) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepoForGameService) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepoForGameService) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepoForGameService) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepoForGameService) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepoForGameService) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepoForGameService) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func newTestGameService(
	gameRepo *MockGameRepoForGameService,
	quizRepo *MockQuizRepoForQuizService,
	playerRepo *MockPlayerRepoForGameService,
	answerRepo *MockAnswerRepoForGameService,
	cacheRepo *MockCacheRepoForGameService,
) *GameService {
	wsManager := websocket.NewManager(websocket.NewHub(&websocket.NoOpPubSub{}))
	return NewGameService(gameRepo, quizRepo, playerRepo, answerRepo, cacheRepo,
		wsManager, gamesession.DefaultConfig())
}

func gameServiceQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:      5,
		OwnerID: 10,
		Title:   "География",
		Questions: []entity.Question{
			{ID: 100, QuizID: 5, OrderIndex: 0, Text: "Столица Франции?",
				TimeLimitSec: 20, PointValue: 1000,
				Options: []entity.Option{
					{ID: 1, DisplayOrder: 0, Text: "Берлин"},
					{ID: 2, DisplayOrder: 1, Text: "Париж", IsCorrect: true},
				}},
		},
	}
}

// ============================================================================
// Тесты CreateGame
// ============================================================================

func TestCreateGame_AllocatesPinAndPersists(t *testing.T) {
	// Arrange
	gameRepo := new(MockGameRepoForGameService)
	quizRepo := new(MockQuizRepoForQuizService)
	cacheRepo := new(MockCacheRepoForGameService)
	svc := newTestGameService(gameRepo, quizRepo,
		new(MockPlayerRepoForGameService), new(MockAnswerRepoForGameService), cacheRepo)

	quizRepo.On("GetWithQuestions", uint(5)).Return(gameServiceQuiz(), nil)
	cacheRepo.On("SetNX", mock.AnythingOfType("string"), "1", mock.AnythingOfType("time.Duration")).
		Return(true, nil)
	gameRepo.On("GetJoinableByPin", mock.AnythingOfType("string")).
		Return(nil, apperrors.ErrGameNotJoinable)
	gameRepo.On("Create", mock.AnythingOfType("*entity.Game")).Return(nil)

	// Act
	game, err := svc.CreateGame(context.Background(), 10, 5)

	// Assert
	require.NoError(t, err)
	assert.Len(t, game.PinCode, gamesession.DefaultPinLength)
	assert.Equal(t, entity.GameStateLobby, game.State)
	assert.Equal(t, entity.NoQuestionIndex, game.CurrentQuestionIndex)
	gameRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreateGame_RetriesOnPinCollision(t *testing.T) {
	// Arrange: резерв PIN в Redis потерян, и вставка натыкается на
	// уникальный индекс pin_code — сервис берёт новый PIN и повторяет
	gameRepo := new(MockGameRepoForGameService)
	quizRepo := new(MockQuizRepoForQuizService)
	cacheRepo := new(MockCacheRepoForGameService)
	svc := newTestGameService(gameRepo, quizRepo,
		new(MockPlayerRepoForGameService), new(MockAnswerRepoForGameService), cacheRepo)

	quizRepo.On("GetWithQuestions", uint(5)).Return(gameServiceQuiz(), nil)
	cacheRepo.On("SetNX", mock.AnythingOfType("string"), "1", mock.AnythingOfType("time.Duration")).
		Return(true, nil)
	gameRepo.On("GetJoinableByPin", mock.AnythingOfType("string")).
		Return(nil, apperrors.ErrGameNotJoinable)
	gameRepo.On("Create", mock.AnythingOfType("*entity.Game")).
		Return(apperrors.ErrPinTaken).Once()
	gameRepo.On("Create", mock.AnythingOfType("*entity.Game")).
		Return(nil).Once()

	// Act
	game, err := svc.CreateGame(context.Background(), 10, 5)

	// Assert: второй PIN принят
	require.NoError(t, err)
	require.NotNil(t, game)
	gameRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestCreateGame_ForeignQuizForbidden(t *testing.T) {
	// Arrange
	gameRepo := new(MockGameRepoForGameService)
	quizRepo := new(MockQuizRepoForQuizService)
	svc := newTestGameService(gameRepo, quizRepo,
		new(MockPlayerRepoForGameService), new(MockAnswerRepoForGameService),
		new(MockCacheRepoForGameService))

	quizRepo.On("GetWithQuestions", uint(5)).Return(gameServiceQuiz(), nil)

	// Act & Assert: чужую викторину запустить нельзя
	_, err := svc.CreateGame(context.Background(), 99, 5)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	gameRepo.AssertNotCalled(t, "Create", mock.Anything)
}
