package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, повторный
	// запуск уже идущей игры).
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки игровой сессии
var (
	// ErrGameNotJoinable возвращается, когда PIN не разрешается в игру со статусом
	// waiting или active. Для игрока это выглядит как "game not found".
	ErrGameNotJoinable = errors.New("game not found")

	// ErrNameTaken возвращается при попытке зарегистрировать имя, уже занятое
	// в этой игре. Отличается от прочих ошибок записи, чтобы клиент мог
	// предложить ввести другое имя.
	ErrNameTaken = errors.New("player name already taken")

	// ErrDuplicateAnswer возвращается при повторной попытке ответить на тот же
	// вопрос. Первый ответ остаётся, повторный игнорируется.
	ErrDuplicateAnswer = errors.New("answer already submitted for this question")

	// ErrNoPlayers возвращается при попытке запустить игру без зарегистрированных игроков.
	ErrNoPlayers = errors.New("game has no registered players")

	// ErrInvalidTransition возвращается при недопустимом переходе состояния сессии.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrPinTaken возвращается, когда PIN создаваемой игры уже занят
	// незавершённой игрой. Вызывающий генерирует новый PIN и повторяет.
	ErrPinTaken = errors.New("pin code already in use")
)
