package gamesession

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// newRunningSession кладет в контроллер горячее состояние идущей игры
func newRunningSession(hc *HostController, game *entity.Game, quiz *entity.Quiz) *ActiveGameState {
	state := NewActiveGameState(game, quiz)
	hc.sessions.Store(game.ID, state)
	return state
}

func twoQuestionQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID: 5,
		Questions: []entity.Question{
			{
				ID: 100, QuizID: 5, OrderIndex: 0, Text: "Первый вопрос",
				TimeLimitSec: 20, PointValue: 1000,
				Options: []entity.Option{
					{ID: 1, DisplayOrder: 0, IsCorrect: true},
					{ID: 2, DisplayOrder: 1},
				},
			},
			{
				ID: 101, QuizID: 5, OrderIndex: 1, Text: "Второй вопрос",
				TimeLimitSec: 20, PointValue: 1000,
				Options: []entity.Option{
					{ID: 3, DisplayOrder: 0},
					{ID: 4, DisplayOrder: 1, IsCorrect: true},
				},
			},
		},
	}
}

func TestStartGame_RequiresPlayers(t *testing.T) {
	// Arrange
	gameRepo := new(MockGameRepo)
	playerRepo := new(MockPlayerRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), playerRepo, new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10, State: entity.GameStateLobby,
		CurrentQuestionIndex: entity.NoQuestionIndex}
	gameRepo.On("GetByID", uint(1)).Return(game, nil)
	playerRepo.On("CountByGame", uint(1)).Return(int64(0), nil)

	// Act
	err := hc.StartGame(context.Background(), 1, 10)

	// Assert: без игроков игра не стартует
	assert.ErrorIs(t, err, apperrors.ErrNoPlayers)
	gameRepo.AssertNotCalled(t, "AdvanceState",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStartGame_WrongHost(t *testing.T) {
	// Arrange
	gameRepo := new(MockGameRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, HostID: 10, State: entity.GameStateLobby}
	gameRepo.On("GetByID", uint(1)).Return(game, nil)

	// Act & Assert
	err := hc.StartGame(context.Background(), 1, 99)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestStartGame_NotInLobby(t *testing.T) {
	// Arrange
	gameRepo := new(MockGameRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, HostID: 10, State: entity.GameStateResults, CurrentQuestionIndex: 0}
	gameRepo.On("GetByID", uint(1)).Return(game, nil)

	// Act & Assert
	err := hc.StartGame(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestStartGame_DoubleStartKeepsWinnerSession(t *testing.T) {
	// Arrange: игра уже запущена, горячее состояние стоит на question/0
	gameRepo := new(MockGameRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10,
		State: entity.GameStateQuestion, CurrentQuestionIndex: 0}
	newRunningSession(hc, game, twoQuestionQuiz())

	// Act: повторный клик «Старт»
	err := hc.StartGame(context.Background(), 1, 10)

	// Assert: проигравший отклонён, состояние победителя не затёрто
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	state, ok := hc.Session(1)
	require.True(t, ok)
	currentState, currentIndex := state.Snapshot()
	assert.Equal(t, entity.GameStateQuestion, currentState)
	assert.Equal(t, 0, currentIndex)
	gameRepo.AssertNotCalled(t, "AdvanceState",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStartGame_LostRaceLeavesNoSession(t *testing.T) {
	// Arrange: строка в БД уже переведена другим экземпляром —
	// условный UPDATE lobby/-1 -> question/0 не находит строку
	gameRepo := new(MockGameRepo)
	quizRepo := new(MockQuizRepo)
	playerRepo := new(MockPlayerRepo)
	deps := newTestDeps(gameRepo, quizRepo, playerRepo, new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10, State: entity.GameStateLobby,
		CurrentQuestionIndex: entity.NoQuestionIndex}
	gameRepo.On("GetByID", uint(1)).Return(game, nil)
	playerRepo.On("CountByGame", uint(1)).Return(int64(3), nil)
	quizRepo.On("GetWithQuestions", uint(5)).Return(twoQuestionQuiz(), nil)
	gameRepo.On("Update", mock.AnythingOfType("*entity.Game")).Return(nil)
	gameRepo.On("AdvanceState", uint(1), entity.GameStateLobby, entity.NoQuestionIndex,
		entity.GameStateQuestion, 0).Return(apperrors.ErrInvalidTransition)

	// Act
	err := hc.StartGame(context.Background(), 1, 10)

	// Assert: устаревшая копия игры не публикуется как горячее состояние
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, ok := hc.Session(1)
	assert.False(t, ok, "проигравшая гонку сессия не должна быть сохранена")
}

func TestFinishQuestion_LostRaceIsNoOp(t *testing.T) {
	// Arrange: вопрос уже закрыт конкурирующим вызовом — условный UPDATE
	// не нашел строку в состоянии question/0
	gameRepo := new(MockGameRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10,
		State: entity.GameStateQuestion, CurrentQuestionIndex: 0}
	state := newRunningSession(hc, game, twoQuestionQuiz())

	gameRepo.On("AdvanceState", uint(1), entity.GameStateQuestion, 0, entity.GameStateResults, 0).
		Return(apperrors.ErrInvalidTransition)

	// Act
	err := hc.finishQuestion(state, 0, "timeout")

	// Assert: проигравший гонку выходит молча, очки не трогает
	require.NoError(t, err)
	gameRepo.AssertNotCalled(t, "MarkQuestionScored", mock.Anything, mock.Anything)
}

func TestFinishQuestion_ScoresExactlyOnce(t *testing.T) {
	// Arrange
	gameRepo := new(MockGameRepo)
	playerRepo := new(MockPlayerRepo)
	answerRepo := new(MockAnswerRepo)
	cacheRepo := new(MockCacheRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), playerRepo, answerRepo, cacheRepo)
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10,
		State: entity.GameStateQuestion, CurrentQuestionIndex: 0}
	state := newRunningSession(hc, game, twoQuestionQuiz())

	gameRepo.On("AdvanceState", uint(1), entity.GameStateQuestion, 0, entity.GameStateResults, 0).
		Return(nil)
	gameRepo.On("MarkQuestionScored", uint(1), 0).Return(true, nil)
	// Правильный вариант первого вопроса — option #1
	answerRepo.On("ListByGameAndQuestion", uint(1), uint(100)).Return([]entity.PlayerAnswer{
		{PlayerID: 21, QuestionID: 100, OptionID: 1, IsCorrect: true, PointsAwarded: 1000},
		{PlayerID: 22, QuestionID: 100, OptionID: 2, IsCorrect: false, PointsAwarded: 0},
		{PlayerID: 23, QuestionID: 100, OptionID: 1, IsCorrect: true, PointsAwarded: 1000},
	}, nil)
	playerRepo.On("AddScore", uint(21), 1000).Return(nil)
	playerRepo.On("AddScore", uint(23), 1000).Return(nil)
	cacheRepo.On("Delete", questionDeadlineKey(1, 0)).Return(nil)

	// Act
	err := hc.finishQuestion(state, 0, "timeout")

	// Assert: очки начислены только ответившим правильно
	require.NoError(t, err)
	playerRepo.AssertNumberOfCalls(t, "AddScore", 2)
	playerRepo.AssertNotCalled(t, "AddScore", uint(22), mock.Anything)

	currentState, currentIndex := state.Snapshot()
	assert.Equal(t, entity.GameStateResults, currentState)
	assert.Equal(t, 0, currentIndex)
}

func TestFinishQuestion_ScoringAlreadyDone(t *testing.T) {
	// Arrange: CAS по scored_through_index проигран — очки уже начислены
	gameRepo := new(MockGameRepo)
	playerRepo := new(MockPlayerRepo)
	cacheRepo := new(MockCacheRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), playerRepo, new(MockAnswerRepo), cacheRepo)
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10,
		State: entity.GameStateQuestion, CurrentQuestionIndex: 0}
	state := newRunningSession(hc, game, twoQuestionQuiz())

	gameRepo.On("AdvanceState", uint(1), entity.GameStateQuestion, 0, entity.GameStateResults, 0).
		Return(nil)
	gameRepo.On("MarkQuestionScored", uint(1), 0).Return(false, nil)
	cacheRepo.On("Delete", questionDeadlineKey(1, 0)).Return(nil)

	// Act
	err := hc.finishQuestion(state, 0, "host_skip")

	// Assert
	require.NoError(t, err)
	playerRepo.AssertNotCalled(t, "AddScore", mock.Anything, mock.Anything)
}

func TestSkipQuestion_OnlyDuringQuestion(t *testing.T) {
	// Arrange: игра стоит на экране результатов
	gameRepo := new(MockGameRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10,
		State: entity.GameStateResults, CurrentQuestionIndex: 0}
	newRunningSession(hc, game, twoQuestionQuiz())

	// Act & Assert
	err := hc.SkipQuestion(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestNextQuestion_AfterLastGoesToLeaderboard(t *testing.T) {
	// Arrange: результаты последнего вопроса
	gameRepo := new(MockGameRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10,
		State: entity.GameStateResults, CurrentQuestionIndex: 1}
	state := newRunningSession(hc, game, twoQuestionQuiz())

	gameRepo.On("AdvanceState", uint(1), entity.GameStateResults, 1, entity.GameStateLeaderboard, 1).
		Return(nil)

	// Act
	err := hc.NextQuestion(context.Background(), 1, 10)

	// Assert
	require.NoError(t, err)
	currentState, currentIndex := state.Snapshot()
	assert.Equal(t, entity.GameStateLeaderboard, currentState)
	assert.Equal(t, 1, currentIndex)
}

func TestNextQuestion_RequiresResultsState(t *testing.T) {
	// Arrange: вопрос ещё идёт
	gameRepo := new(MockGameRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), new(MockCacheRepo))
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10,
		State: entity.GameStateQuestion, CurrentQuestionIndex: 0}
	newRunningSession(hc, game, twoQuestionQuiz())

	// Act & Assert
	err := hc.NextQuestion(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	gameRepo.AssertNotCalled(t, "AdvanceState",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEndGame_ReleasesPin(t *testing.T) {
	// Arrange
	gameRepo := new(MockGameRepo)
	cacheRepo := new(MockCacheRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), cacheRepo)
	hc := NewHostController(DefaultConfig(), deps)

	game := &entity.Game{ID: 1, QuizID: 5, HostID: 10, PinCode: "123456",
		State: entity.GameStateLeaderboard, CurrentQuestionIndex: 1}
	newRunningSession(hc, game, twoQuestionQuiz())

	gameRepo.On("AdvanceState", uint(1), entity.GameStateLeaderboard, 1, entity.GameStateFinished, 1).
		Return(nil)
	gameRepo.On("Update", mock.AnythingOfType("*entity.Game")).Return(nil)
	cacheRepo.On("Delete", pinReserveKey("123456")).Return(nil)

	// Act
	err := hc.EndGame(context.Background(), 1, 10)

	// Assert: PIN освобождён, горячее состояние снято
	require.NoError(t, err)
	cacheRepo.AssertCalled(t, "Delete", pinReserveKey("123456"))
	_, ok := hc.Session(1)
	assert.False(t, ok, "завершённая игра не должна оставаться в горячем состоянии")
	require.NotNil(t, game.EndedAt)
}
