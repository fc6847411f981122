package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

// Conn is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories can
// run inside or outside a transaction.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds the connection settings. Credentials come from ORDER_PG_* env vars,
// pool and migration settings from viper.
type Config struct {
	Host           string
	Port           string
	User           string
	Password       string
	Database       string
	MaxConns       int32
	MigrationsPath string
}

// ConfigFromEnv reads ORDER_PG_HOST, ORDER_PG_PORT, ORDER_PG_USER,
// ORDER_PG_PASSWORD, ORDER_PG_DB, postgres.max_conns and postgres.migrations_path.
func ConfigFromEnv() Config {
	cfg := Config{
		Host:           os.Getenv("ORDER_PG_HOST"),
		Port:           os.Getenv("ORDER_PG_PORT"),
		User:           os.Getenv("ORDER_PG_USER"),
		Password:       os.Getenv("ORDER_PG_PASSWORD"),
		Database:       os.Getenv("ORDER_PG_DB"),
		MaxConns:       viper.GetInt32("postgres.max_conns"),
		MigrationsPath: viper.GetString("postgres.migrations_path"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "./migrations"
	}

	return cfg
}

// DSN renders the keyword/value connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database,
	)
}

// Client owns the connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the pool.
func (p *Client) Close() {
	p.pool.Close()
}

// MustNewClient connects using ConfigFromEnv and applies pending migrations.
func MustNewClient() *Client {
	cfg := ConfigFromEnv()

	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		panic(err)
	}

	if err := client.Migrate(cfg.MigrationsPath); err != nil {
		panic(err)
	}

	return client
}

// NewClient opens and pings a pool.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("failed to ping postgres at %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	slog.Info("Postgres connected", "host", cfg.Host, "database", cfg.Database, "max_conns", poolConfig.MaxConns)

	return &Client{pool: pool}, nil
}

// Migrate runs the goose migrations in dir through a database/sql view of the pool.
func (p *Client) Migrate(dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations from %s: %w", dir, err)
	}

	return nil
}
