package websocket

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	// 30 секунд — быстрое обнаружение отключений телефонов игроков.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения. Клиенты игры ничего
	// содержательного не присылают (все операции идут через HTTP),
	// поэтому лимит маленький.
	maxMessageSize = 512

	// Размер буфера канала исходящих сообщений клиенту
	defaultClientBufferSize = 128
)

// Роли подключённых клиентов
const (
	RoleHost   = "host"
	RolePlayer = "player"
)

// Client является посредником между WebSocket соединением и хабом.
// Одно соединение привязано ровно к одной игре; после обрыва клиент
// создаёт новое соединение и восстанавливает состояние через снимок.
type Client struct {
	// Уникальный ID для каждого соединения
	ConnectionID string

	// ID игры, события которой получает клиент
	GameID uint

	// Роль клиента: host или player
	Role string

	// ID игрока (0 для хоста)
	PlayerID uint

	hub *Hub

	conn *websocket.Conn

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// Флаг закрытия канала send: защищает от повторного close
	sendClosed atomic.Bool
}

// NewClient создает нового клиента игры
func NewClient(hub *Hub, conn *websocket.Conn, gameID uint, role string, playerID uint) *Client {
	return &Client{
		ConnectionID: uuid.New().String(),
		GameID:       gameID,
		Role:         role,
		PlayerID:     playerID,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, defaultClientBufferSize),
	}
}

// CloseSend закрывает канал send ровно один раз.
// Возвращает true, если канал закрыт этим вызовом.
func (c *Client) CloseSend() bool {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
		return true
	}
	return false
}

// IsSendClosed сообщает, закрыт ли канал send
func (c *Client) IsSendClosed() bool {
	return c.sendClosed.Load()
}

// ReadPump читает сообщения из WebSocket соединения.
// Клиенты игры не присылают команд, но pump обязателен: он обрабатывает
// pong-ответы и обнаруживает закрытие соединения.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[WebSocket] Ошибка установки read deadline для %s: %v", c.ConnectionID, err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Неожиданное закрытие соединения %s (игра #%d): %v",
					c.ConnectionID, c.GameID, err)
			}
			return
		}
	}
}

// WritePump пишет сообщения из канала send в WebSocket соединение
// и периодически отправляет ping.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Хаб закрыл канал — прощаемся с клиентом
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
