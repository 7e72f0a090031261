package websocket

// HubInterface объединяет возможности хаба, нужные Manager.
// Это каноническое определение интерфейса хаба.
type HubInterface interface {
	// BroadcastToGame отправляет байтовое сообщение всем подписчикам игры
	BroadcastToGame(gameID uint, message []byte)

	// SendToClient отправляет байтовое сообщение конкретному соединению.
	// Возвращает true, если клиент найден и сообщение поставлено в очередь.
	SendToClient(connectionID string, message []byte) bool

	// GameClientCount возвращает число подключённых к игре клиентов
	GameClientCount(gameID uint) int

	// ClientCount возвращает общее количество подключенных клиентов
	ClientCount() int
}
