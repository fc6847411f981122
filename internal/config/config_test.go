package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()

	assert.Equal(t, "8080", viper.GetString("server.http.port"))
	assert.Equal(t, "rabbitmq", viper.GetString("outbox.broker"))
	assert.Equal(t, 5, viper.GetInt("outbox.max_retries"))
	assert.Equal(t, "./migrations", viper.GetString("postgres.migrations_path"))
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, viper.GetStringSlice("server.http.cors.allowed_methods"))
}

func TestDefaultsYieldToEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("FOOD_ORDERING_OUTBOX_BROKER", "kafka")

	SetDefaults()
	viper.SetEnvPrefix("FOOD_ORDERING")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	assert.Equal(t, "kafka", viper.GetString("outbox.broker"))
}
