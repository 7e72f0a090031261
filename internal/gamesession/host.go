package gamesession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/yourusername/livequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
	"github.com/yourusername/livequiz-api/internal/websocket"
)

// HostController управляет жизненным циклом идущих игр: переходами состояний,
// таймером вопроса и подведением итогов. Все переходы выполняются условными
// UPDATE в БД, поэтому гонящиеся команды (таймер против ручного пропуска,
// двойной клик хоста) схлопываются в ровно один переход.
type HostController struct {
	config *Config
	deps   *Dependencies

	// Горячее состояние идущих игр: map[uint]*ActiveGameState
	sessions sync.Map

	// Защищает создание сессии от дублей: одновременные StartGame
	// и Rehydrate не должны затирать друг другу горячее состояние
	mu sync.Mutex
}

// NewHostController создает контроллер идущих игр
func NewHostController(config *Config, deps *Dependencies) *HostController {
	return &HostController{
		config: config,
		deps:   deps,
	}
}

// Session возвращает горячее состояние игры, если она идёт на этом экземпляре
func (hc *HostController) Session(gameID uint) (*ActiveGameState, bool) {
	value, ok := hc.sessions.Load(gameID)
	if !ok {
		return nil, false
	}
	return value.(*ActiveGameState), true
}

// StartGame запускает игру: lobby -> question с первым вопросом.
// Требует хотя бы одного зарегистрированного игрока.
// Сессия публикуется в sessions только после выигранного условного
// UPDATE: проигравший двойного клика получает ErrInvalidTransition
// и не затирает горячее состояние победителя устаревшей копией.
func (hc *HostController) StartGame(ctx context.Context, gameID uint, hostID uint) error {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if _, ok := hc.Session(gameID); ok {
		return fmt.Errorf("%w: game #%d is already running", apperrors.ErrInvalidTransition, gameID)
	}

	game, err := hc.deps.GameRepo.GetByID(gameID)
	if err != nil {
		return err
	}
	if game.HostID != hostID {
		return apperrors.ErrForbidden
	}
	if game.State != entity.GameStateLobby {
		return fmt.Errorf("%w: game #%d is in state %s", apperrors.ErrInvalidTransition, gameID, game.State)
	}

	playerCount, err := hc.deps.PlayerRepo.CountByGame(gameID)
	if err != nil {
		return err
	}
	if playerCount == 0 {
		return apperrors.ErrNoPlayers
	}

	quiz, err := hc.deps.QuizRepo.GetWithQuestions(game.QuizID)
	if err != nil {
		return err
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("%w: quiz #%d has no questions", apperrors.ErrValidation, quiz.ID)
	}

	// Время старта пишется, пока строка ещё в lobby: после перехода
	// полная запись Save могла бы затереть состояние гонящейся команды
	now := time.Now()
	game.StartedAt = &now
	if err := hc.deps.GameRepo.Update(game); err != nil {
		return err
	}

	state := NewActiveGameState(game, quiz)
	if err := hc.startQuestion(state, entity.GameStateLobby, entity.NoQuestionIndex, 0); err != nil {
		return err
	}
	hc.sessions.Store(gameID, state)

	log.Printf("[HostController] Игра #%d (PIN %s) запущена хостом #%d, игроков: %d, вопросов: %d",
		gameID, game.PinCode, hostID, playerCount, len(quiz.Questions))
	return nil
}

// SkipQuestion досрочно закрывает текущий вопрос по команде хоста.
// Гонка с истекающим таймером безопасна: переход question -> results
// выполняется условным UPDATE, проигравший не делает ничего.
func (hc *HostController) SkipQuestion(ctx context.Context, gameID uint, hostID uint) error {
	state, ok := hc.Session(gameID)
	if !ok {
		return apperrors.ErrNotFound
	}
	if state.Game.HostID != hostID {
		return apperrors.ErrForbidden
	}

	currentState, currentIndex := state.Snapshot()
	if currentState != entity.GameStateQuestion {
		return fmt.Errorf("%w: game #%d is in state %s, nothing to skip",
			apperrors.ErrInvalidTransition, gameID, currentState)
	}

	log.Printf("[HostController] Игра #%d: хост досрочно закрывает вопрос %d", gameID, currentIndex)
	return hc.finishQuestion(state, currentIndex, "host_skip")
}

// NextQuestion переводит игру с экрана результатов дальше:
// к следующему вопросу либо, если вопросы кончились, к таблице лидеров.
func (hc *HostController) NextQuestion(ctx context.Context, gameID uint, hostID uint) error {
	state, ok := hc.Session(gameID)
	if !ok {
		return apperrors.ErrNotFound
	}
	if state.Game.HostID != hostID {
		return apperrors.ErrForbidden
	}

	currentState, currentIndex := state.Snapshot()
	if currentState != entity.GameStateResults {
		return fmt.Errorf("%w: game #%d is in state %s", apperrors.ErrInvalidTransition, gameID, currentState)
	}

	if currentIndex+1 < state.QuestionCount() {
		return hc.startQuestion(state, entity.GameStateResults, currentIndex, currentIndex+1)
	}

	// Вопросы кончились — показываем таблицу лидеров
	if err := hc.deps.GameRepo.AdvanceState(gameID,
		entity.GameStateResults, currentIndex,
		entity.GameStateLeaderboard, currentIndex); err != nil {
		return err
	}
	state.SetState(entity.GameStateLeaderboard, currentIndex)

	log.Printf("[HostController] Игра #%d: все вопросы пройдены, показана таблица лидеров", gameID)
	hc.broadcastState(state)
	return nil
}

// EndGame завершает игру: leaderboard -> finished.
// PIN-код освобождается и может быть выдан новой игре.
func (hc *HostController) EndGame(ctx context.Context, gameID uint, hostID uint) error {
	state, ok := hc.Session(gameID)
	if !ok {
		return apperrors.ErrNotFound
	}
	if state.Game.HostID != hostID {
		return apperrors.ErrForbidden
	}

	currentState, currentIndex := state.Snapshot()
	if currentState != entity.GameStateLeaderboard {
		return fmt.Errorf("%w: game #%d is in state %s", apperrors.ErrInvalidTransition, gameID, currentState)
	}

	if err := hc.deps.GameRepo.AdvanceState(gameID,
		entity.GameStateLeaderboard, currentIndex,
		entity.GameStateFinished, currentIndex); err != nil {
		return err
	}
	state.SetState(entity.GameStateFinished, currentIndex)

	now := time.Now()
	state.Game.EndedAt = &now
	if err := hc.deps.GameRepo.Update(state.Game); err != nil {
		log.Printf("[HostController] WARNING: не удалось сохранить время завершения игры #%d: %v", gameID, err)
	}

	if err := hc.deps.CacheRepo.Delete(pinReserveKey(state.Game.PinCode)); err != nil {
		log.Printf("[HostController] WARNING: не удалось освободить PIN %s игры #%d: %v",
			state.Game.PinCode, gameID, err)
	}

	hc.broadcastEvent(state, websocket.GAME_FINISHED, hc.statePayload(state))
	hc.sessions.Delete(gameID)

	log.Printf("[HostController] Игра #%d завершена", gameID)
	return nil
}

// Rehydrate восстанавливает горячее состояние игры из БД после рестарта
// процесса. Если таймер вопроса должен был уже истечь, вопрос закрывается
// немедленно; иначе отсчёт продолжается с оставшегося времени.
func (hc *HostController) Rehydrate(ctx context.Context, gameID uint) (*ActiveGameState, error) {
	if state, ok := hc.Session(gameID); ok {
		return state, nil
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	if state, ok := hc.Session(gameID); ok {
		return state, nil
	}

	game, err := hc.deps.GameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.IsFinished() {
		return nil, fmt.Errorf("%w: game #%d is finished", apperrors.ErrInvalidTransition, gameID)
	}

	quiz, err := hc.deps.QuizRepo.GetWithQuestions(game.QuizID)
	if err != nil {
		return nil, err
	}

	state := NewActiveGameState(game, quiz)
	hc.sessions.Store(gameID, state)
	log.Printf("[HostController] Игра #%d восстановлена из БД в состоянии %s/%d",
		gameID, game.State, game.CurrentQuestionIndex)

	if game.State != entity.GameStateQuestion {
		return state, nil
	}

	// Вопрос шёл в момент рестарта — восстанавливаем таймер по дедлайну из Redis
	question := state.QuestionAt(game.CurrentQuestionIndex)
	if question == nil {
		return nil, fmt.Errorf("question with index %d not found in quiz #%d",
			game.CurrentQuestionIndex, quiz.ID)
	}

	deadline, ok := hc.storedDeadline(gameID, game.CurrentQuestionIndex)
	if !ok || !deadline.After(time.Now()) {
		log.Printf("[HostController] Игра #%d: дедлайн вопроса %d истёк за время рестарта, закрываем",
			gameID, game.CurrentQuestionIndex)
		if err := hc.finishQuestion(state, game.CurrentQuestionIndex, "rehydrate_expired"); err != nil {
			return nil, err
		}
		return state, nil
	}

	hc.launchTimer(state, question, game.CurrentQuestionIndex, deadline)
	return state, nil
}

// startQuestion выполняет переход к вопросу с индексом idx и запускает таймер
func (hc *HostController) startQuestion(state *ActiveGameState, fromState string, fromIndex, idx int) error {
	question := state.QuestionAt(idx)
	if question == nil {
		return fmt.Errorf("question with index %d not found in quiz #%d", idx, state.Quiz.ID)
	}

	gameID := state.Game.ID
	if err := hc.deps.GameRepo.AdvanceState(gameID, fromState, fromIndex, entity.GameStateQuestion, idx); err != nil {
		return err
	}
	state.SetState(entity.GameStateQuestion, idx)

	deadline := time.Now().Add(question.TimeLimit())
	deadlineKey := questionDeadlineKey(gameID, idx)
	if err := hc.deps.CacheRepo.Set(deadlineKey,
		strconv.FormatInt(deadline.UnixMilli(), 10), hc.config.QuestionKeyTTL); err != nil {
		log.Printf("[HostController] WARNING: не удалось сохранить дедлайн вопроса %d игры #%d: %v",
			idx, gameID, err)
	}

	log.Printf("[HostController] Игра #%d: запущен вопрос %d (лимит %v)", gameID, idx, question.TimeLimit())
	hc.broadcastState(state)
	hc.launchTimer(state, question, idx, deadline)
	return nil
}

// launchTimer запускает горутину отсчёта для вопроса
func (hc *HostController) launchTimer(state *ActiveGameState, question *entity.Question, idx int, deadline time.Time) {
	timerCtx, cancel := context.WithCancel(context.Background())
	state.SetTimerCancel(cancel)
	go hc.runQuestionTimer(timerCtx, state, question, idx, deadline)
}

// runQuestionTimer тикает каждую секунду и закрывает вопрос по дедлайну.
// Отмена контекста означает, что вопрос уже закрыт другим путём.
func (hc *HostController) runQuestionTimer(ctx context.Context, state *ActiveGameState, question *entity.Question, idx int, deadline time.Time) {
	ticker := time.NewTicker(hc.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			remaining := time.Until(deadline)
			if remaining <= 0 {
				log.Printf("[HostController] Игра #%d: время вопроса %d истекло", state.Game.ID, idx)
				if err := hc.finishQuestion(state, idx, "timeout"); err != nil {
					log.Printf("[HostController] ОШИБКА закрытия вопроса %d игры #%d по таймеру: %v",
						idx, state.Game.ID, err)
				}
				return
			}
			hc.broadcastEvent(state, websocket.QUESTION_TICK, map[string]interface{}{
				"game_id":                state.Game.ID,
				"current_question_index": idx,
				"remaining_sec":          int(remaining.Round(time.Second) / time.Second),
			})
		case <-ctx.Done():
			return
		}
	}
}

// finishQuestion закрывает вопрос idx и ровно один раз подводит его итоги.
// Идемпотентность двухслойная: переход question -> results — условный UPDATE
// (из гонящихся вызовов выигрывает один), начисление очков защищено
// отдельным CAS по scored_through_index.
func (hc *HostController) finishQuestion(state *ActiveGameState, idx int, reason string) error {
	gameID := state.Game.ID

	err := hc.deps.GameRepo.AdvanceState(gameID,
		entity.GameStateQuestion, idx,
		entity.GameStateResults, idx)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			// Вопрос уже закрыт конкурирующим вызовом
			log.Printf("[HostController] Игра #%d: вопрос %d уже закрыт (причина вызова: %s)",
				gameID, idx, reason)
			return nil
		}
		return err
	}

	state.CancelTimer()
	state.SetState(entity.GameStateResults, idx)
	log.Printf("[HostController] Игра #%d: вопрос %d закрыт (%s)", gameID, idx, reason)

	if err := hc.scoreQuestion(state, idx); err != nil {
		return err
	}

	if err := hc.deps.CacheRepo.Delete(questionDeadlineKey(gameID, idx)); err != nil {
		log.Printf("[HostController] WARNING: не удалось удалить дедлайн вопроса %d игры #%d: %v",
			idx, gameID, err)
	}

	hc.broadcastState(state)
	return nil
}

// scoreQuestion начисляет очки за вопрос idx ровно один раз.
// CAS по scored_through_index выбирает единственного исполнителя;
// остальные видят won == false и выходят. Очки считаются сравнением
// option_id ответа с правильным вариантом вопроса.
func (hc *HostController) scoreQuestion(state *ActiveGameState, idx int) error {
	gameID := state.Game.ID

	won, err := hc.deps.GameRepo.MarkQuestionScored(gameID, idx)
	if err != nil {
		return err
	}
	if !won {
		log.Printf("[HostController] Игра #%d: очки за вопрос %d уже начислены", gameID, idx)
		return nil
	}

	question := state.QuestionAt(idx)
	if question == nil {
		return fmt.Errorf("question with index %d not found in quiz #%d", idx, state.Quiz.ID)
	}

	correct := question.CorrectOption()
	if correct == nil {
		return fmt.Errorf("question #%d in quiz #%d has no correct option", question.ID, state.Quiz.ID)
	}

	answers, err := hc.deps.AnswerRepo.ListByGameAndQuestion(gameID, question.ID)
	if err != nil {
		return err
	}

	// Правильность пересчитывается от канонического правильного варианта,
	// а не от снимка, записанного при приёме ответа
	awarded := 0
	for _, answer := range answers {
		if answer.OptionID != correct.ID {
			continue
		}
		if err := hc.deps.PlayerRepo.AddScore(answer.PlayerID, question.PointValue); err != nil {
			log.Printf("[HostController] ОШИБКА начисления %d очков игроку #%d в игре #%d: %v",
				question.PointValue, answer.PlayerID, gameID, err)
			continue
		}
		awarded++
	}

	log.Printf("[HostController] Игра #%d: вопрос %d оценён, ответов: %d, правильных: %d",
		gameID, idx, len(answers), awarded)
	return nil
}

// statePayload собирает полезную нагрузку события смены состояния.
// Намеренно без содержимого вопроса: обе стороны загружают вопрос
// самостоятельно по индексу.
func (hc *HostController) statePayload(state *ActiveGameState) map[string]interface{} {
	currentState, currentIndex := state.Snapshot()
	return map[string]interface{}{
		"game_id":                state.Game.ID,
		"state":                  currentState,
		"current_question_index": currentIndex,
	}
}

// broadcastState рассылает событие смены состояния всем подписчикам игры
func (hc *HostController) broadcastState(state *ActiveGameState) {
	hc.broadcastEvent(state, websocket.GAME_STATE_CHANGED, hc.statePayload(state))
}

// broadcastEvent отправляет событие с повторными попытками
func (hc *HostController) broadcastEvent(state *ActiveGameState, eventType string, data interface{}) {
	var sendErr error
	for attempt := 0; attempt < hc.config.MaxRetries; attempt++ {
		sendErr = hc.deps.WSManager.BroadcastEventToGame(state.Game.ID, eventType, data)
		if sendErr == nil {
			return
		}
		log.Printf("[HostController] ОШИБКА отправки события %s для игры #%d (попытка %d): %v",
			eventType, state.Game.ID, attempt+1, sendErr)
		time.Sleep(hc.config.RetryInterval)
	}
}

// storedDeadline читает сохранённый дедлайн вопроса из Redis
func (hc *HostController) storedDeadline(gameID uint, idx int) (time.Time, bool) {
	raw, err := hc.deps.CacheRepo.Get(questionDeadlineKey(gameID, idx))
	if err != nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
