package gamesession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	"github.com/yourusername/livequiz-api/internal/domain/repository"
	"github.com/yourusername/livequiz-api/internal/websocket"
)

// Константы значений по умолчанию
const (
	DefaultPinLength      = 6
	DefaultTickIntervalMs = 1000
)

// Config содержит настройки компонентов игровой сессии
type Config struct {
	// Длина PIN-кода игры (десятичные цифры)
	PinLength int

	// Сколько попыток генерации уникального PIN до отказа
	PinMaxAttempts int

	// TTL резервирования PIN в Redis: пока игра не завершена и ключ жив,
	// второй хост не получит тот же PIN
	PinReserveTTL time.Duration

	// Интервал рассылки question:tick во время вопроса
	TickInterval time.Duration

	// TTL ключей текущего вопроса (дедлайн, счётчик ответов)
	QuestionKeyTTL time.Duration

	// TTL кешированного снимка таблицы лидеров
	LeaderboardCacheTTL time.Duration

	// Повторные попытки отправки событий
	MaxRetries    int
	RetryInterval time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		PinLength:           DefaultPinLength,
		PinMaxAttempts:      10,
		PinReserveTTL:       12 * time.Hour,
		TickInterval:        time.Duration(DefaultTickIntervalMs) * time.Millisecond,
		QuestionKeyTTL:      time.Hour,
		LeaderboardCacheTTL: 30 * time.Second,
		MaxRetries:          3,
		RetryInterval:       500 * time.Millisecond,
	}
}

// Dependencies содержит зависимости компонентов игровой сессии
type Dependencies struct {
	GameRepo   repository.GameRepository
	QuizRepo   repository.QuizRepository
	PlayerRepo repository.PlayerRepository
	AnswerRepo repository.AnswerRepository
	CacheRepo  repository.CacheRepository
	WSManager  *websocket.Manager
	Config     *Config
}

// ActiveGameState хранит горячее состояние одной идущей игры.
// Является кешем поверх записи в БД: строка games — источник правды,
// сюда кладётся загруженная викторина и управление таймером вопроса.
type ActiveGameState struct {
	Game *entity.Game
	Quiz *entity.Quiz

	// Отмена таймера текущего вопроса (nil, если вопрос не идёт)
	timerCancel context.CancelFunc

	Mu sync.RWMutex
}

// NewActiveGameState создает состояние для идущей игры
func NewActiveGameState(game *entity.Game, quiz *entity.Quiz) *ActiveGameState {
	return &ActiveGameState{
		Game: game,
		Quiz: quiz,
	}
}

// Snapshot возвращает текущие state и current_question_index одним чтением
func (s *ActiveGameState) Snapshot() (string, int) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return s.Game.State, s.Game.CurrentQuestionIndex
}

// SetState обновляет state и current_question_index в горячем состоянии
func (s *ActiveGameState) SetState(state string, index int) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.Game.State = state
	s.Game.CurrentQuestionIndex = index
	s.Game.Status = entity.StatusForState(state)
}

// SetTimerCancel сохраняет функцию отмены таймера текущего вопроса,
// отменяя предыдущий таймер, если он ещё жив
func (s *ActiveGameState) SetTimerCancel(cancel context.CancelFunc) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.timerCancel != nil {
		s.timerCancel()
	}
	s.timerCancel = cancel
}

// CancelTimer отменяет таймер текущего вопроса, если он запущен
func (s *ActiveGameState) CancelTimer() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.timerCancel != nil {
		s.timerCancel()
		s.timerCancel = nil
	}
}

// QuestionCount возвращает число вопросов викторины
func (s *ActiveGameState) QuestionCount() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	if s.Quiz == nil {
		return 0
	}
	return len(s.Quiz.Questions)
}

// QuestionAt возвращает вопрос с данным order_index из загруженной викторины
func (s *ActiveGameState) QuestionAt(orderIndex int) *entity.Question {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	if s.Quiz == nil {
		return nil
	}
	for i := range s.Quiz.Questions {
		if s.Quiz.Questions[i].OrderIndex == orderIndex {
			return &s.Quiz.Questions[i]
		}
	}
	return nil
}

// Ключи Redis текущего вопроса

// answerCountKey — счётчик зафиксированных ответов на вопрос
func answerCountKey(gameID uint, questionID uint) string {
	return fmt.Sprintf("game:%d:question:%d:answers", gameID, questionID)
}

// questionDeadlineKey — дедлайн текущего вопроса (Unix ms).
// По нему восстановленный после рестарта хост-контроллер продолжает
// отсчёт с оставшегося времени вместо полного.
func questionDeadlineKey(gameID uint, questionIndex int) string {
	return fmt.Sprintf("game:%d:question_index:%d:deadline", gameID, questionIndex)
}

// pinReserveKey — резервирование PIN-кода за игрой
func pinReserveKey(pin string) string {
	return fmt.Sprintf("game:pin:%s", pin)
}

// leaderboardCacheKey — кеш собранной таблицы лидеров
func leaderboardCacheKey(gameID uint) string {
	return fmt.Sprintf("game:%d:leaderboard", gameID)
}
