package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
)

// required: lo que cambia entre entornos (token, DB).
// default: lo demás.
type Config struct {
	DiscordToken string `envconfig:"DISCORD_BOT_TOKEN" required:"true"`
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`

	NotificationChannelID string   `envconfig:"NOTIFICATION_CHANNEL_ID"`
	LogChannelID          string   `envconfig:"LOG_CHANNEL_ID"`
	AllowedChannelIDs     []string `envconfig:"ALLOWED_CHANNEL_IDS"`
	OwnerIDs              []string `envconfig:"OWNER_IDS"`

	VouchCooldownSeconds   int `envconfig:"VOUCH_COOLDOWN_SECONDS" default:"86400"`
	CommandCooldownSeconds int `envconfig:"COMMAND_COOLDOWN_SECONDS" default:"2"`

	ThumbnailURL   string        `envconfig:"THUMBNAIL_URL"`
	StickyInterval time.Duration `envconfig:"STICKY_INTERVAL" default:"5m"`
	MirrorRPS      float64       `envconfig:"MIRROR_RPS" default:"1"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	Log LogConfig
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

func (c Config) VouchCooldown() time.Duration {
	return time.Duration(c.VouchCooldownSeconds) * time.Second
}

func (c Config) CommandCooldown() time.Duration {
	return time.Duration(c.CommandCooldownSeconds) * time.Second
}

// BotToken agrega el prefijo "Bot " si falta.
func (c Config) BotToken() string {
	if strings.HasPrefix(c.DiscordToken, "Bot ") {
		return c.DiscordToken
	}
	return "Bot " + c.DiscordToken
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to process env config")
	}
	cfg.AllowedChannelIDs = cleanIDs(cfg.AllowedChannelIDs)
	cfg.OwnerIDs = cleanIDs(cfg.OwnerIDs)
	cfg.DiscordToken = strings.TrimSpace(cfg.DiscordToken)

	// envconfig acepta una variable definida pero vacía
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_BOT_TOKEN is required")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}

	if cfg.VouchCooldownSeconds < 0 {
		return Config{}, errors.Newf("VOUCH_COOLDOWN_SECONDS must be >= 0, got %d", cfg.VouchCooldownSeconds)
	}
	if cfg.CommandCooldownSeconds < 0 {
		return Config{}, errors.Newf("COMMAND_COOLDOWN_SECONDS must be >= 0, got %d", cfg.CommandCooldownSeconds)
	}
	if cfg.MirrorRPS <= 0 {
		cfg.MirrorRPS = 1
	}
	return cfg, nil
}

// CSV con espacios o comas sobrantes: " 1, ,2" -> [1 2]
func cleanIDs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
