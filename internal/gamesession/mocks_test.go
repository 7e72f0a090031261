package gamesession

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	"github.com/yourusername/livequiz-api/internal/websocket"
)

// ============================================================================
// Общие моки репозиториев для тестов игровой сессии
// ============================================================================

// MockGameRepo реализует repository.GameRepository
type MockGameRepo struct {
	mock.Mock
}

func (m *MockGameRepo) Create(game *entity.Game) error {
	args := m.Called(game)
	return args.Error(0)
}

func (m *MockGameRepo) GetByID(id uint) (*entity.Game, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepo) GetJoinableByPin(pin string) (*entity.Game, error) {
	args := m.Called(pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepo) GetWithPlayers(id uint) (*entity.Game, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepo) ListByHost(hostID uint, limit, offset int) ([]entity.Game, error) {
	args := m.Called(hostID, limit, offset)
	return args.Get(0).([]entity.Game), args.Error(1)
}

func (m *MockGameRepo) AdvanceState(gameID uint, fromState string, fromIndex int, toState string, toIndex int) error {
	args := m.Called(gameID, fromState, fromIndex, toState, toIndex)
	return args.Error(0)
}

func (m *MockGameRepo) MarkQuestionScored(gameID uint, idx int) (bool, error) {
	args := m.Called(gameID, idx)
	return args.Bool(0), args.Error(1)
}

func (m *MockGameRepo) Update(game *entity.Game) error {
	args := m.Called(game)
	return args.Error(0)
}

func (m *MockGameRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockQuizRepo реализует repository.QuizRepository
type MockQuizRepo struct {
	mock.Mock
}

func (m *MockQuizRepo) Create(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) GetQuestionByIndex(quizID uint, orderIndex int) (*entity.Question, error) {
	args := m.Called(quizID, orderIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuizRepo) CountQuestions(quizID uint) (int64, error) {
	args := m.Called(quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuizRepo) ListByOwner(ownerID uint, limit, offset int) ([]entity.Quiz, error) {
	args := m.Called(ownerID, limit, offset)
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) Update(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockPlayerRepo реализует repository.PlayerRepository
type MockPlayerRepo struct {
	mock.Mock
}

func (m *MockPlayerRepo) Create(player *entity.Player) error {
	args := m.Called(player)
	return args.Error(0)
}

func (m *MockPlayerRepo) GetByID(id uint) (*entity.Player, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Player), args.Error(1)
}

func (m *MockPlayerRepo) ListByGame(gameID uint) ([]entity.Player, error) {
	args := m.Called(gameID)
	return args.Get(0).([]entity.Player), args.Error(1)
}

func (m *MockPlayerRepo) CountByGame(gameID uint) (int64, error) {
	args := m.Called(gameID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerRepo) AddScore(playerID uint, points int) error {
	args := m.Called(playerID, points)
	return args.Error(0)
}

func (m *MockPlayerRepo) Leaderboard(gameID uint) ([]entity.Player, error) {
	args := m.Called(gameID)
	return args.Get(0).([]entity.Player), args.Error(1)
}

// MockAnswerRepo реализует repository.AnswerRepository
type MockAnswerRepo struct {
	mock.Mock
}

func (m *MockAnswerRepo) Save(answer *entity.PlayerAnswer) error {
	args := m.Called(answer)
	return args.Error(0)
}

func (m *MockAnswerRepo) GetByPlayerAndQuestion(playerID, questionID uint) (*entity.PlayerAnswer, error) {
	args := m.Called(playerID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PlayerAnswer), args.Error(1)
}

func (m *MockAnswerRepo) ListByGameAndQuestion(gameID, questionID uint) ([]entity.PlayerAnswer, error) {
	args := m.Called(gameID, questionID)
	return args.Get(0).([]entity.PlayerAnswer), args.Error(1)
}

func (m *MockAnswerRepo) CountByGameAndQuestion(gameID, questionID uint) (int64, error) {
	args := m.Called(gameID, questionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnswerRepo) CountByOption(gameID, questionID uint) (map[uint]int64, error) {
	args := m.Called(gameID, questionID)
	return args.Get(0).(map[uint]int64), args.Error(1)
}

func (m *MockAnswerRepo) ListByGame(gameID uint) ([]entity.PlayerAnswer, error) {
	args := m.Called(gameID)
	return args.Get(0).([]entity.PlayerAnswer), args.Error(1)
}

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// newTestWSManager возвращает менеджер на хабе без внешних зависимостей
func newTestWSManager() *websocket.Manager {
	return websocket.NewManager(websocket.NewHub(&websocket.NoOpPubSub{}))
}

// newTestDeps собирает Dependencies из моков
func newTestDeps(gameRepo *MockGameRepo, quizRepo *MockQuizRepo, playerRepo *MockPlayerRepo, answerRepo *MockAnswerRepo, cacheRepo *MockCacheRepo) *Dependencies {
	return &Dependencies{
		GameRepo:   gameRepo,
		QuizRepo:   quizRepo,
		PlayerRepo: playerRepo,
		AnswerRepo: answerRepo,
		CacheRepo:  cacheRepo,
		WSManager:  newTestWSManager(),
		Config:     DefaultConfig(),
	}
}
