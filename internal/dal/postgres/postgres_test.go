package postgres

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnv(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("ORDER_PG_HOST", "db")
	t.Setenv("ORDER_PG_PORT", "")
	t.Setenv("ORDER_PG_USER", "orders")
	t.Setenv("ORDER_PG_PASSWORD", "secret")
	t.Setenv("ORDER_PG_DB", "food")
	viper.Set("postgres.max_conns", 4)

	cfg := ConfigFromEnv()

	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, int32(4), cfg.MaxConns)
	assert.Equal(t, "./migrations", cfg.MigrationsPath)
	assert.Equal(t, "host=db port=5432 user=orders password=secret dbname=food sslmode=disable", cfg.DSN())
}
