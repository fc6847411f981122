package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// ErrNotConfirmed is returned when the broker nacks a publish or the
// confirm channel closes before the ack arrives.
var ErrNotConfirmed = errors.New("publish not confirmed by broker")

// Config holds the broker address and consumer prefetch.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
	Prefetch int
}

// ConfigFromViper reads the rabbitmq.* keys.
func ConfigFromViper() Config {
	cfg := Config{
		Host:     viper.GetString("rabbitmq.host"),
		Port:     viper.GetInt("rabbitmq.port"),
		User:     viper.GetString("rabbitmq.user"),
		Password: viper.GetString("rabbitmq.password"),
		Vhost:    viper.GetString("rabbitmq.vhost"),
		Prefetch: viper.GetInt("rabbitmq.prefetch"),
	}
	if cfg.Host == "" {
		cfg.Host = "rabbitmq"
	}
	if cfg.Port == 0 {
		cfg.Port = 5672
	}
	if cfg.Vhost == "" {
		cfg.Vhost = "/"
	}
	if cfg.Prefetch == 0 {
		cfg.Prefetch = 50
	}

	return cfg
}

// URL renders the AMQP URI.
func (c Config) URL() string {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.User,
		Password: c.Password,
		Vhost:    c.Vhost,
	}.String()
}

// Client holds one connection with a consuming channel and a publishing
// channel in confirm mode.
type Client struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	publishCh *amqp.Channel
	confirms  chan amqp.Confirmation

	// Guards publishCh and the delivery tag sequence.
	publishMu sync.Mutex
	lastTag   uint64
}

// MustNewClient connects with ConfigFromViper.
func MustNewClient() *Client {
	cfg := ConfigFromViper()

	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}

	slog.Info("RabbitMQ connected", "host", cfg.Host, "port", cfg.Port, "prefetch", cfg.Prefetch)

	return client
}

// NewClient dials the broker and opens both channels.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	c := &Client{conn: conn}
	if err := c.openChannels(cfg.Prefetch); err != nil {
		_ = conn.Close()

		return nil, err
	}

	return c, nil
}

func (r *Client) openChannels(prefetch int) error {
	var err error

	r.channel, err = r.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consume channel: %w", err)
	}
	if err := r.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch %d: %w", prefetch, err)
	}

	r.publishCh, err = r.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open publish channel: %w", err)
	}
	if err := r.publishCh.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	r.confirms = r.publishCh.NotifyPublish(make(chan amqp.Confirmation, 1))

	return nil
}

// Close closes both channels and the connection.
func (r *Client) Close() error {
	var errs []error
	for _, ch := range []*amqp.Channel{r.publishCh, r.channel} {
		if ch != nil {
			errs = append(errs, ch.Close())
		}
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}

	return errors.Join(errs...)
}

type DeclareExchangeConfig struct {
	Name       string
	Kind       string
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareExchange declares an exchange. Kind defaults to topic.
func (r *Client) DeclareExchange(cfg DeclareExchangeConfig) error {
	kind := cfg.Kind
	if kind == "" {
		kind = amqp.ExchangeTopic
	}

	if err := r.channel.ExchangeDeclare(cfg.Name, kind, cfg.Durable, cfg.AutoDelete, cfg.Internal, cfg.NoWait, cfg.Args); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", cfg.Name, err)
	}

	return nil
}

type DeclareQueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

func (r *Client) DeclareQueue(cfg DeclareQueueConfig) (amqp.Queue, error) {
	q, err := r.channel.QueueDeclare(cfg.Name, cfg.Durable, cfg.AutoDelete, cfg.Exclusive, cfg.NoWait, cfg.Args)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue %s: %w", cfg.Name, err)
	}

	return q, nil
}

// BindQueue routes messages with routingKey from exchange into queue.
func (r *Client) BindQueue(queue, routingKey, exchange string) error {
	if err := r.channel.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s to %s with %s: %w", queue, exchange, routingKey, err)
	}

	return nil
}

type ConsumeConfig struct {
	Queue     string
	Consumer  string
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
	Args      amqp.Table
}

func (r *Client) Consume(cfg ConsumeConfig) (<-chan amqp.Delivery, error) {
	return r.channel.Consume(cfg.Queue, cfg.Consumer, cfg.AutoAck, cfg.Exclusive, cfg.NoLocal, cfg.NoWait, cfg.Args)
}

// Publish sends an outbox message and waits for the broker confirm, so the
// relay only deletes rows the broker has taken responsibility for.
func (r *Client) Publish(ctx context.Context, msg outbox.Message) error {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	err := r.publishCh.Publish(msg.ExchangeName, msg.RoutingKey, false, false, Publishing(msg))
	if err != nil {
		return fmt.Errorf("failed to publish %s to exchange %s: %w", msg.EventType, msg.ExchangeName, err)
	}
	r.lastTag++
	tag := r.lastTag

	for {
		select {
		case c, ok := <-r.confirms:
			if !ok {
				return ErrNotConfirmed
			}
			// Confirms for earlier publishes abandoned on a cancelled ctx.
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return fmt.Errorf("%s %d: %w", msg.EventType, msg.ID, ErrNotConfirmed)
			}

			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Publishing maps an outbox row to an AMQP message. The saga id travels in the
// "key" header so consumers can partition by saga.
func Publishing(msg outbox.Message) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%s-%d", msg.EventType, msg.ID),
		Type:         msg.EventType,
		Timestamp:    msg.CreatedAt,
		Headers:      amqp.Table{"key": msg.MessageKey},
		Body:         msg.Payload,
	}
}
