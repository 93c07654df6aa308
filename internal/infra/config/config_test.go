package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "abc")
	t.Setenv("DATABASE_URL", "sqlite://dev.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.VouchCooldown())
	assert.Equal(t, 2*time.Second, cfg.CommandCooldown())
	assert.Equal(t, 5*time.Minute, cfg.StickyInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.AllowedChannelIDs)
	assert.Equal(t, "Bot abc", cfg.BotToken())
}

func TestLoad_ListsAreCleaned(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "Bot abc")
	t.Setenv("DATABASE_URL", "sqlite://dev.db")
	t.Setenv("ALLOWED_CHANNEL_IDS", " 111, ,222,")
	t.Setenv("OWNER_IDS", "9")
	t.Setenv("VOUCH_COOLDOWN_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, cfg.AllowedChannelIDs)
	assert.Equal(t, []string{"9"}, cfg.OwnerIDs)
	assert.Equal(t, time.Minute, cfg.VouchCooldown())
	assert.Equal(t, "Bot abc", cfg.BotToken())
}

func TestLoad_RequiredAndInvalid(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DISCORD_BOT_TOKEN", "abc")
	t.Setenv("DATABASE_URL", "sqlite://dev.db")
	t.Setenv("VOUCH_COOLDOWN_SECONDS", "-5")
	_, err = Load()
	require.Error(t, err)
}
