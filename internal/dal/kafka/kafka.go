package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
)

// Client publishes outbox messages to Kafka. The topic is the routing key
// and the message key is the saga id, so one saga stays on one partition.
type Client struct {
	brokers []string
	writer  *kafka.Writer
}

// NewClient parses a comma separated broker list.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}

	return &Client{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// MustNewClient builds a client from kafka.brokers.
func MustNewClient() *Client {
	c := NewClient(viper.GetString("kafka.brokers"))
	if !c.Enabled() {
		panic("kafka.brokers is not set in config")
	}

	slog.Info("Kafka writer configured", "brokers", c.brokers)

	return c
}

func (c *Client) Enabled() bool {
	return len(c.brokers) > 0
}

// Publish writes msg to the topic named by its routing key.
func (c *Client) Publish(ctx context.Context, msg outbox.Message) error {
	err := c.writer.WriteMessages(ctx, kafka.Message{
		Topic: msg.RoutingKey,
		Key:   []byte(msg.MessageKey),
		Value: msg.Payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(msg.ContentType)},
			{Key: "event-type", Value: []byte(msg.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write to topic %s: %w", msg.RoutingKey, err)
	}

	return nil
}

func (c *Client) Close() error {
	return c.writer.Close()
}
