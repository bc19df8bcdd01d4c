package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/avelichko/storefront/internal/model"
	"github.com/avelichko/storefront/internal/service"
)

const (
	restockQueueName = service.RestockQueueName
	dlxExchange      = "restock.dlx"
	dlqQueueName     = "restock.dlq"
	idempotencyTTL   = 24 * time.Hour
)

// NotifyWorker consumes restock events and mails the subscribers of the
// products that just became available.
type NotifyWorker struct {
	channel     *amqp.Channel
	notifier    *service.NotificationService
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewNotifyWorker(
	ch *amqp.Channel,
	notifier *service.NotificationService,
	redisClient *redis.Client,
	log *slog.Logger,
) *NotifyWorker {
	return &NotifyWorker{
		channel:     ch,
		notifier:    notifier,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, restockQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(restockQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": restockQueueName,
	}); err != nil {
		return fmt.Errorf("declare restock queue: %w", err)
	}

	if err := ch.ExchangeDeclare(orderDlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare order DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(orderDlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare order DLQ: %w", err)
	}
	if err := ch.QueueBind(orderDlqQueueName, orderQueueName, orderDlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind order DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    orderDlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *NotifyWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(restockQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("notify worker started")
	return nil
}

func (w *NotifyWorker) Stop() { close(w.done) }

func (w *NotifyWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var restockMsg model.RestockMessage
	if err := json.Unmarshal(msg.Body, &restockMsg); err != nil {
		w.log.Error("unmarshal restock message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("event_id", restockMsg.EventID, "products", len(restockMsg.ProductIDs))

	// Idempotency check via Redis: a redelivered event must not double-mail
	// subscribers that were already drained.
	idempotencyKey := "restock_notified:" + restockMsg.EventID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("restock event already handled, skipping")
		_ = msg.Ack(false)
		return
	}

	sent, err := w.notifier.NotifyForProducts(ctx, restockMsg.ProductIDs)
	if err != nil {
		log.Error("notify subscribers failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("restock subscribers notified", "sent", sent)
}
