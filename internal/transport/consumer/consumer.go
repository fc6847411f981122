package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/inbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// acknowledger is the part of amqp.Delivery the handler needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, source string, payload []byte) error
}

type subscription struct {
	source     string
	queue      string
	routingKey string
}

// Consumer reads saga responses from RabbitMQ, records them in the inbox
// and hands them to the dispatcher.
type Consumer struct {
	client        *rabbitmq.Client
	inboxRepo     iinboxrepo.IInboxRepository
	dispatcher    dispatcher
	subscriptions []subscription
	maxRetries    int
	retryInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
}

// NewConsumer creates a new Consumer and declares its exchange, queues and bindings.
func NewConsumer(client *rabbitmq.Client, inboxRepo iinboxrepo.IInboxRepository, d dispatcher) *Consumer {
	c := newConsumer(inboxRepo, d)
	c.client = client

	exchange := viper.GetString("rabbitmq.exchange")
	if exchange == "" {
		exchange = "food-ordering"
	}
	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Durable: true,
	}); err != nil {
		panic(err)
	}

	for _, sub := range c.subscriptions {
		if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
			Name:    sub.queue,
			Durable: true,
		}); err != nil {
			panic(err)
		}
		if err := client.BindQueue(sub.queue, sub.routingKey, exchange); err != nil {
			panic(err)
		}
	}

	return c
}

func newConsumer(inboxRepo iinboxrepo.IInboxRepository, d dispatcher) *Consumer {
	paymentQueue := viper.GetString("rabbitmq.queues.payment_response")
	if paymentQueue == "" {
		paymentQueue = "order.payment-response"
	}
	restaurantQueue := viper.GetString("rabbitmq.queues.restaurant_response")
	if restaurantQueue == "" {
		restaurantQueue = "order.restaurant-approval-response"
	}

	maxRetries := viper.GetInt("inbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}
	retryIntervalSeconds := viper.GetInt("inbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Consumer{
		inboxRepo:  inboxRepo,
		dispatcher: d,
		subscriptions: []subscription{
			{source: SourcePaymentResponse, queue: paymentQueue, routingKey: "payment.response"},
			{source: SourceRestaurantResponse, queue: restaurantQueue, routingKey: "restaurant.approval.response"},
		},
		maxRetries:    maxRetries,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

type delivery struct {
	source string
	msg    amqp.Delivery
}

// Run consumes every subscribed queue until Shutdown or until a channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "food-ordering"
	}

	deliveries := make(chan delivery)
	for _, sub := range c.subscriptions {
		msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
			Queue:    sub.queue,
			Consumer: consumerTag + "-" + sub.source,
		})
		if err != nil {
			return err
		}

		slog.Info("Consumer started", "queue", sub.queue, "source", sub.source)

		go func(source string, msgs <-chan amqp.Delivery) {
			for msg := range msgs {
				select {
				case deliveries <- delivery{source: source, msg: msg}:
				case <-c.stop:
					return
				}
			}
			slog.Info("Message channel closed", "source", source)
		}(sub.source, msgs)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(50)

	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.stop:
				slog.Info("Stopping consumer")

				return
			case <-ctx.Done():
				return
			case d := <-deliveries:
				g.Go(func() error {
					c.process(gctx, d.source, d.msg.Body, d.msg)

					return nil
				})
			}
		}
	}()

	<-c.done

	return g.Wait()
}

// process records one delivery in the inbox and handles it. Malformed
// payloads are dropped, duplicates are acked, and handling failures are
// acked too because the inbox worker owns their retries.
func (c *Consumer) process(ctx context.Context, source string, body []byte, ack acknowledger) {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.process")
	defer span.End()
	span.SetAttributes(attribute.String("message.source", source))

	messageID, err := MessageID(source, body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode message", "source", source, "error", err)
		if err := ack.Nack(false, false); err != nil {
			slog.ErrorContext(ctx, "Failed to nack message", "error", err)
		}

		return
	}

	now := time.Now()
	id, inserted, err := c.inboxRepo.Insert(ctx, inbox.Message{
		MessageID:   messageID,
		Source:      source,
		Payload:     body,
		ContentType: "application/json",
		MaxRetries:  c.maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now.Add(c.retryInterval),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record message in inbox", "message_id", messageID, "error", err)
		if err := ack.Nack(false, true); err != nil {
			slog.ErrorContext(ctx, "Failed to nack message", "error", err)
		}

		return
	}
	if !inserted {
		slog.InfoContext(ctx, "Duplicate message skipped", "message_id", messageID)
		c.ack(ctx, ack)

		return
	}

	if err := c.dispatcher.Dispatch(ctx, source, body); err != nil {
		retryCount := 1
		if errors.Is(err, ErrMalformed) || errors.Is(err, ErrUnknownSource) {
			retryCount = c.maxRetries
		}
		slog.WarnContext(ctx, "Failed to handle message, left to inbox worker",
			"message_id", messageID,
			"retry_count", retryCount,
			"error", err,
		)
		if err := c.inboxRepo.Reschedule(ctx, id, retryCount, err.Error(), now.Add(c.retryInterval)); err != nil {
			slog.ErrorContext(ctx, "Failed to reschedule inbox message", "inbox_id", id, "error", err)
		}
		c.ack(ctx, ack)

		return
	}

	if err := c.inboxRepo.MarkProcessed(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark inbox message processed", "inbox_id", id, "error", err)
	}
	c.ack(ctx, ack)

	slog.InfoContext(ctx, "Message processed successfully", "message_id", messageID, "source", source)
}

func (c *Consumer) ack(ctx context.Context, ack acknowledger) {
	if err := ack.Ack(false); err != nil {
		slog.ErrorContext(ctx, "Failed to ack message", "error", err)
	}
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
