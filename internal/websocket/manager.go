package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager отвечает за сериализацию и доставку событий игры через хаб
type Manager struct {
	hub HubInterface
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub HubInterface) *Manager {
	return &Manager{hub: hub}
}

// BroadcastEventToGame отправляет событие всем подписчикам игры
func (m *Manager) BroadcastEventToGame(gameID uint, eventType string, data interface{}) error {
	event := Event{
		Type: eventType,
		Data: data,
	}
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
	}
	m.hub.BroadcastToGame(gameID, message)
	return nil
}

// SendEventToClient отправляет событие конкретному соединению
func (m *Manager) SendEventToClient(connectionID string, eventType string, data interface{}) error {
	event := Event{
		Type: eventType,
		Data: data,
	}
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
	}
	if !m.hub.SendToClient(connectionID, message) {
		return fmt.Errorf("client %s not connected", connectionID)
	}
	return nil
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке клиенту.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(connectionID string, code string, message string) {
	err := m.SendEventToClient(connectionID, SERVER_ERROR, map[string]string{
		"code":    code,
		"message": message,
	})
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка отправки server:error клиенту %s: %v", connectionID, err)
	}
}
