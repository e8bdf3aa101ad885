package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("RELAY_URL", "")
	t.Setenv("DB_DRIVER", "")

	cfg := FromEnv()

	assert.Equal(t, "http://localhost:3001", cfg.Relay.URL)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Relay.PublishTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("RELAY_TICKET_TTL", "3s")
	t.Setenv("SWEEPER_IDLE_AFTER", "not-a-duration")
	t.Setenv("REDIS_DB", "2")

	cfg := FromEnv()

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Relay.TicketTTL)
	assert.Equal(t, 12*time.Hour, cfg.Sweeper.IdleAfter)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestAuthSecretHasNoDefault(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	cfg := FromEnv()
	assert.Empty(t, cfg.Auth.Secret)
	assert.ErrorIs(t, cfg.Auth.Validate(), ErrMissingSecret)

	t.Setenv("AUTH_SECRET", "s3cret")
	cfg = FromEnv()
	assert.NoError(t, cfg.Auth.Validate())
}
