package websocket

// Типы событий игровой сессии.
// События game:* несут только смену состояния (state + current_question_index),
// никогда — содержимое вопроса: обе стороны самостоятельно загружают вопрос
// по индексу, чтобы у хоста и игроков был один источник правды.
const (
	// GAME_STATE_CHANGED сообщает о смене состояния сессии хостом или таймером
	GAME_STATE_CHANGED = "game:state_changed"

	// GAME_FINISHED сообщает о завершении игры
	GAME_FINISHED = "game:finished"

	// PLAYER_JOINED сообщает о регистрации нового игрока в лобби
	PLAYER_JOINED = "player:joined"

	// QUESTION_TICK сообщает оставшиеся секунды текущего вопроса
	QUESTION_TICK = "question:tick"

	// ANSWER_COUNT сообщает хосту число зафиксированных ответов на вопрос
	ANSWER_COUNT = "answer:count"

	// SERVER_ERROR стандартизированное сообщение об ошибке
	SERVER_ERROR = "server:error"
)
