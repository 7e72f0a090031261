package gamesession

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

func TestRandomPin_Format(t *testing.T) {
	// Act & Assert: PIN всегда нужной длины и только из цифр,
	// ведущие нули не теряются
	for i := 0; i < 100; i++ {
		pin, err := randomPin(6)
		require.NoError(t, err)
		assert.Len(t, pin, 6)
		assert.True(t, isDigits(pin), "PIN %q должен состоять из цифр", pin)
	}
}

func TestAllocatePin_RetriesOnReservedPin(t *testing.T) {
	// Arrange: первый кандидат уже зарезервирован в Redis
	gameRepo := new(MockGameRepo)
	cacheRepo := new(MockCacheRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), cacheRepo)

	cacheRepo.On("SetNX", mock.Anything, "1", mock.Anything).Return(false, nil).Once()
	cacheRepo.On("SetNX", mock.Anything, "1", mock.Anything).Return(true, nil).Once()
	gameRepo.On("GetJoinableByPin", mock.Anything).Return(nil, apperrors.ErrGameNotJoinable)

	// Act
	pin, err := AllocatePin(DefaultConfig(), deps)

	// Assert
	require.NoError(t, err)
	assert.Len(t, pin, DefaultPinLength)
	cacheRepo.AssertNumberOfCalls(t, "SetNX", 2)
}

func TestAllocatePin_SkipsPinHeldByLiveGame(t *testing.T) {
	// Arrange: резерв Redis прошёл, но PIN ещё держит незавершённая игра
	gameRepo := new(MockGameRepo)
	cacheRepo := new(MockCacheRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), cacheRepo)

	cacheRepo.On("SetNX", mock.Anything, "1", mock.Anything).Return(true, nil)
	gameRepo.On("GetJoinableByPin", mock.Anything).
		Return(&entity.Game{ID: 1}, nil).Once()
	gameRepo.On("GetJoinableByPin", mock.Anything).
		Return(nil, apperrors.ErrGameNotJoinable).Once()

	// Act
	pin, err := AllocatePin(DefaultConfig(), deps)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, pin)
	gameRepo.AssertNumberOfCalls(t, "GetJoinableByPin", 2)
}

func TestAllocatePin_GivesUpAfterMaxAttempts(t *testing.T) {
	// Arrange: все кандидаты заняты
	gameRepo := new(MockGameRepo)
	cacheRepo := new(MockCacheRepo)
	deps := newTestDeps(gameRepo, new(MockQuizRepo), new(MockPlayerRepo), new(MockAnswerRepo), cacheRepo)

	config := DefaultConfig()
	config.PinMaxAttempts = 3
	cacheRepo.On("SetNX", mock.Anything, "1", mock.Anything).Return(false, nil)

	// Act & Assert
	_, err := AllocatePin(config, deps)
	assert.Error(t, err)
	cacheRepo.AssertNumberOfCalls(t, "SetNX", 3)
}
