package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// instanceEventsChannel — канал Pub/Sub, через который экземпляры хаба
// обмениваются событиями игр при горизонтальном масштабировании.
const instanceEventsChannel = "livequiz:events"

// fanoutMessage — обёртка события для пересылки между экземплярами хаба
type fanoutMessage struct {
	GameID     uint            `json:"game_id"`
	InstanceID string          `json:"instance_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Hub держит активные WebSocket соединения, сгруппированные по играм.
// События игры доставляются каждому подписчику независимо от роли;
// клиент, чей буфер переполнен, отключается — после реконнекта он
// восстановит состояние через снимок, поэтому потеря сообщений не фатальна.
type Hub struct {
	mu    sync.RWMutex
	games map[uint]map[*Client]struct{}
	byID  map[string]*Client

	instanceID string
	pubsub     PubSubProvider

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый хаб соединений.
// provider используется для обмена событиями между экземплярами;
// в одиночном режиме передаётся NoOpPubSub.
func NewHub(provider PubSubProvider) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		games:      make(map[uint]map[*Client]struct{}),
		byID:       make(map[string]*Client),
		instanceID: generateInstanceID(),
		pubsub:     provider,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start подписывает хаб на события других экземпляров.
func (h *Hub) Start() error {
	msgCh, err := h.pubsub.Subscribe(h.ctx, instanceEventsChannel)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case raw, ok := <-msgCh:
				if !ok {
					return
				}
				var msg fanoutMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					log.Printf("[Hub] Некорректное кластерное сообщение: %v", err)
					continue
				}
				// Своё же сообщение приходит обратно из Pub/Sub — пропускаем,
				// локальным клиентам оно уже доставлено
				if msg.InstanceID == h.instanceID {
					continue
				}
				h.broadcastLocal(msg.GameID, msg.Payload)
			case <-h.ctx.Done():
				return
			}
		}
	}()

	log.Printf("[Hub] Запущен, instance_id=%s", h.instanceID)
	return nil
}

// Stop останавливает хаб и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.games {
		for client := range clients {
			client.CloseSend()
		}
	}
	h.games = make(map[uint]map[*Client]struct{})
	h.byID = make(map[string]*Client)
	log.Printf("[Hub] Остановлен, instance_id=%s", h.instanceID)
}

// Register подписывает клиента на события его игры
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.games[client.GameID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.games[client.GameID] = clients
	}
	clients[client] = struct{}{}
	h.byID[client.ConnectionID] = client

	log.Printf("[Hub] Клиент %s (%s) подключён к игре #%d, всего в игре: %d",
		client.ConnectionID, client.Role, client.GameID, len(clients))
}

// Unregister отписывает клиента и закрывает его канал отправки
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.games[client.GameID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	delete(h.byID, client.ConnectionID)
	client.CloseSend()
	if len(clients) == 0 {
		delete(h.games, client.GameID)
	}

	log.Printf("[Hub] Клиент %s отключён от игры #%d", client.ConnectionID, client.GameID)
}

// BroadcastToGame отправляет сообщение всем подписчикам игры на всех
// экземплярах: локальным клиентам напрямую, остальным через Pub/Sub.
func (h *Hub) BroadcastToGame(gameID uint, message []byte) {
	h.broadcastLocal(gameID, message)

	msg := fanoutMessage{
		GameID:     gameID,
		InstanceID: h.instanceID,
		Payload:    message,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Hub] Ошибка сериализации кластерного сообщения: %v", err)
		return
	}
	if err := h.pubsub.Publish(instanceEventsChannel, data); err != nil {
		log.Printf("[Hub] Ошибка публикации события игры #%d в кластер: %v", gameID, err)
	}
}

// broadcastLocal доставляет сообщение локальным подписчикам игры.
// Отправка в каналы выполняется под RLock: каналы закрываются только
// под write-lock (Unregister, Stop), поэтому запись в закрытый канал
// невозможна. Переполненные клиенты отключаются уже после снятия блокировки.
func (h *Hub) broadcastLocal(gameID uint, message []byte) {
	h.mu.RLock()
	var overflowed []*Client
	for client := range h.games[gameID] {
		select {
		case client.send <- message:
		default:
			overflowed = append(overflowed, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range overflowed {
		// Переполненный буфер означает мёртвое или безнадёжно отставшее
		// соединение; клиент переподключится и возьмёт снимок
		log.Printf("[Hub] Буфер клиента %s переполнен, отключаем", client.ConnectionID)
		h.Unregister(client)
	}
}

// SendToClient отправляет сообщение конкретному соединению.
// Как и broadcastLocal, пишет в канал только под RLock.
func (h *Hub) SendToClient(connectionID string, message []byte) bool {
	h.mu.RLock()
	client, ok := h.byID[connectionID]
	sent := false
	if ok {
		select {
		case client.send <- message:
			sent = true
		default:
		}
	}
	h.mu.RUnlock()

	if !ok {
		return false
	}
	if !sent {
		log.Printf("[Hub] Буфер клиента %s переполнен, отключаем", connectionID)
		h.Unregister(client)
	}
	return sent
}

// GameClientCount возвращает число подключённых к игре клиентов
func (h *Hub) GameClientCount(gameID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// ClientCount возвращает общее количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byID)
}
