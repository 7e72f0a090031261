package websocket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// PubSubProvider определяет интерфейс для провайдеров публикации/подписки
type PubSubProvider interface {
	// Publish публикует сообщение в указанный канал
	Publish(channel string, message []byte) error

	// Subscribe подписывается на указанный канал и возвращает канал для сообщений
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)

	// Close закрывает все соединения и освобождает ресурсы
	Close() error
}

// NoOpPubSub реализует PubSubProvider для одиночного режима работы.
// Этот провайдер не выполняет реальных действий и используется, когда
// горизонтальное масштабирование отключено.
type NoOpPubSub struct{}

// Publish реализует метод PubSubProvider.Publish для NoOpPubSub
func (p *NoOpPubSub) Publish(channel string, message []byte) error {
	return nil
}

// Subscribe реализует метод PubSubProvider.Subscribe для NoOpPubSub.
// Возвращает пустой канал, который закрывается при отмене контекста.
func (p *NoOpPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	msgCh := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(msgCh)
	}()
	return msgCh, nil
}

// Close реализует метод PubSubProvider.Close для NoOpPubSub
func (p *NoOpPubSub) Close() error {
	return nil
}

// RedisPubSub реализует PubSubProvider поверх Redis Pub/Sub
type RedisPubSub struct {
	client        redis.UniversalClient
	ctx           context.Context
	cancel        context.CancelFunc
	subscriptions sync.Map // channel -> *redis.PubSub
	mu            sync.Mutex
}

// NewRedisPubSub создает новый Redis Pub/Sub провайдер, используя существующий UniversalClient.
func NewRedisPubSub(client redis.UniversalClient) (*RedisPubSub, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil for RedisPubSub")
	}

	// Проверяем соединение клиента перед использованием
	ctx, cancelCheck := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCheck()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("provided redis client failed ping check: %w", err)
	}

	ctxPubSub, cancelPubSub := context.WithCancel(context.Background())

	rp := &RedisPubSub{
		client: client,
		ctx:    ctxPubSub,
		cancel: cancelPubSub,
	}

	log.Println("[RedisPubSub] Провайдер создан на существующем клиенте.")
	return rp, nil
}

// Publish публикует сообщение в указанный канал
func (p *RedisPubSub) Publish(channel string, message []byte) error {
	cmd := p.client.Publish(p.ctx, channel, message)
	if err := cmd.Err(); err != nil {
		log.Printf("[RedisPubSub] Ошибка публикации в канал '%s': %v", channel, err)
		return fmt.Errorf("failed to publish to Redis channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe подписывается на указанный канал Redis
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subscriptions.Load(channel); ok {
		return nil, fmt.Errorf("already subscribed to Redis channel %s", channel)
	}

	log.Printf("[RedisPubSub] Подписка на канал '%s'", channel)

	pubsub := p.client.Subscribe(p.ctx, channel)

	// Ждем подтверждения подписки
	if _, err := pubsub.Receive(p.ctx); err != nil {
		pubsub.Close()
		log.Printf("[RedisPubSub] Ошибка подтверждения подписки на канал '%s': %v", channel, err)
		return nil, fmt.Errorf("failed to subscribe to Redis channel %s: %w", channel, err)
	}

	p.subscriptions.Store(channel, pubsub)

	msgCh := make(chan []byte, 100)

	go func() {
		defer func() {
			p.subscriptions.Delete(channel)
			pubsub.Close()
			close(msgCh)
			log.Printf("[RedisPubSub] Подписка на канал '%s' закрыта", channel)
		}()

		redisCh := pubsub.Channel()
		for {
			select {
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case msgCh <- []byte(msg.Payload):
				default:
					// Подписчик безнадёжно отстал, сообщение теряется;
					// клиенты восстановятся через снимок
					log.Printf("[RedisPubSub] Канал '%s' переполнен, сообщение отброшено", channel)
				}
			case <-p.ctx.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgCh, nil
}

// Close закрывает все активные подписки
func (p *RedisPubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Println("[RedisPubSub] Закрытие всех подписок...")
	p.cancel()

	var lastErr error
	p.subscriptions.Range(func(key, value interface{}) bool {
		channel := key.(string)
		if pubsub, ok := value.(*redis.PubSub); ok {
			if err := pubsub.Close(); err != nil {
				log.Printf("[RedisPubSub] Ошибка закрытия подписки на канал '%s': %v", channel, err)
				lastErr = err
			}
		}
		return true
	})

	return lastErr
}

// generateInstanceID создает уникальный ID для экземпляра хаба
func generateInstanceID() string {
	return "instance_" + uuid.New().String()
}
