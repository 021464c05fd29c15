package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// rabbitMQEventPublisher публикует события игры в fanout-обменник.
type rabbitMQEventPublisher struct {
	mu       sync.Mutex // amqp.Channel не безопасен для конкурентной публикации
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewRabbitMQEventPublisher открывает канал и объявляет обменник.
func NewRabbitMQEventPublisher(conn *amqp.Connection, exchange string, logger *zap.Logger) (interfaces.GameEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: не удалось открыть канал: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("event publisher: не удалось объявить обменник '%s': %w", exchange, err)
	}
	logger.Info("Game event exchange declared", zap.String("exchange", exchange))
	return &rabbitMQEventPublisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger.Named("EventPublisher"),
	}, nil
}

func (p *rabbitMQEventPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event publisher: ошибка маршалинга события: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(publishCtx,
		p.exchange, // exchange
		"",         // routing key (fanout)
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("event publisher: ошибка публикации '%s': %w", event.Type, err)
	}
	p.logger.Debug("Game event published",
		zap.String("sessionID", event.SessionID),
		zap.String("eventType", string(event.Type)),
	)
	return nil
}

func (p *rabbitMQEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Close()
}

// nopPublisher используется, когда RabbitMQ не настроен.
type nopPublisher struct{}

// NewNopPublisher возвращает публикатор, который ничего не делает.
func NewNopPublisher() interfaces.GameEventPublisher { return nopPublisher{} }

func (nopPublisher) PublishGameEvent(context.Context, models.GameEvent) error { return nil }
func (nopPublisher) Close() error                                             { return nil }

// ConnectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func ConnectRabbitMQ(url string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}
