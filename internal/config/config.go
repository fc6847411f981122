package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/food-ordering/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/food-ordering")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("FOOD_ORDERING")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
	}

	SetupLogger()
}

// SetDefaults registers a default for every key the service reads.
func SetDefaults() {
	viper.SetDefault("logger.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.read_header_timeout", "5s")
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Content-Type", "X-Request-Id", "traceparent"})
	viper.SetDefault("server.http.cors.max_age", 300)

	viper.SetDefault("server.grpc.port", "9090")
	viper.SetDefault("server.grpc.keepalive.max_connection_idle", 15)
	viper.SetDefault("server.grpc.keepalive.max_connection_age", 30)
	viper.SetDefault("server.grpc.keepalive.max_connection_age_grace", 5)
	viper.SetDefault("server.grpc.keepalive.time", 5)
	viper.SetDefault("server.grpc.keepalive.timeout", 1)
	viper.SetDefault("server.grpc.keepalive.min_time", 5)
	viper.SetDefault("server.grpc.keepalive.permit_without_stream", true)

	viper.SetDefault("postgres.max_conns", 10)
	viper.SetDefault("postgres.migrations_path", "./migrations")

	viper.SetDefault("rabbitmq.host", "rabbitmq")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.vhost", "/")
	viper.SetDefault("rabbitmq.prefetch", 50)
	viper.SetDefault("rabbitmq.exchange", "food-ordering")
	viper.SetDefault("rabbitmq.consumer_tag", "food-ordering")
	viper.SetDefault("rabbitmq.queues.payment_response", "order.payment-response")
	viper.SetDefault("rabbitmq.queues.restaurant_response", "order.restaurant-approval-response")

	viper.SetDefault("kafka.brokers", "")

	viper.SetDefault("outbox.broker", "rabbitmq")
	viper.SetDefault("outbox.poll_interval_seconds", 5)
	viper.SetDefault("outbox.batch_size", 100)
	viper.SetDefault("outbox.retry_interval_seconds", 30)
	viper.SetDefault("outbox.lease_seconds", 60)
	viper.SetDefault("outbox.max_retries", 5)

	viper.SetDefault("inbox.poll_interval_seconds", 10)
	viper.SetDefault("inbox.batch_size", 100)
	viper.SetDefault("inbox.retry_interval_seconds", 30)
	viper.SetDefault("inbox.lease_seconds", 60)
	viper.SetDefault("inbox.max_retries", 5)

	viper.SetDefault("jaeger.endpoint", "http://jaeger:14268/api/traces")
	viper.SetDefault("otel.service_name", "food-ordering")
	viper.SetDefault("otel.sample_ratio", 1.0)
}

func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level: logger.ParseLevel(viper.GetString("logger.level")),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
