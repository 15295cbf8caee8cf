package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken       string        `envconfig:"BOT_TOKEN" required:"true"`
	UserbotURL     string        `envconfig:"USERBOT_URL" default:""`                  // publish bridge endpoint; empty → loopback via the bot
	DBPath         string        `envconfig:"DB_PATH" default:"./data/historybot.db"`  // empty → in-memory store
	ReferenceTZ    string        `envconfig:"REFERENCE_TZ" default:"Europe/Moscow"`    // all schedule arithmetic happens here
	WarningLead    time.Duration `envconfig:"WARNING_LEAD" default:"15m"`              // grace period between warning and publish
	PublishTimeout time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"1m"`            // upper bound on fetch+publish
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`                // debug|info|warn|error
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`               // healthz
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
