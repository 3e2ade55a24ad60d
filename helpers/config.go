package helpers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/caarlos0/env/v11"
	"github.com/karrick/tparse/v2"
	"github.com/pkg/errors"
)

// BotConfig is the typed view of config.json after environment overrides.
type BotConfig struct {
	Debug bool

	DiscordToken string
	OwnerID      string
	Prefix       string

	DataDir        string
	StorageBackend string // "file" or "redis"
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	AutosaveInterval time.Duration
	AutosaveCheck    time.Duration

	LevelsCooldown time.Duration
	LevelsMinGain  int64
	LevelsMaxGain  int64
	LevelsAnnounce bool

	ReactionRolesDMConfirmation bool

	OperatorChannelID string
	NotifyCommands    bool

	LogJSONFile       string
	LogDiscordWebhook string
	SentryDSN         string

	MetricsAddress     string
	RestAddress        string
	RestAllowedOrigins []string
}

// EnvOverrides holds the settings that may come from the environment
// instead of config.json, mostly secrets.
type EnvOverrides struct {
	DiscordToken      string `env:"PEBBLE_DISCORD_TOKEN"`
	OwnerID           string `env:"PEBBLE_OWNER_ID"`
	DataDir           string `env:"PEBBLE_DATA_DIR"`
	RedisAddress      string `env:"PEBBLE_REDIS_ADDRESS"`
	RedisPassword     string `env:"PEBBLE_REDIS_PASSWORD"`
	SentryDSN         string `env:"PEBBLE_SENTRY_DSN"`
	LogDiscordWebhook string `env:"PEBBLE_LOG_WEBHOOK"`
}

// config Saves the raw bot-config
var config *gabs.Container

// LoadConfig loads the config from $path into $config
func LoadConfig(path string) (*BotConfig, error) {
	json, err := gabs.ParseJSONFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	config = json

	return ParseConfig(json)
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	return config
}

// ParseConfig reads container into a BotConfig, applying defaults and
// environment overrides.
func ParseConfig(container *gabs.Container) (*BotConfig, error) {
	var err error
	c := &BotConfig{
		Debug:                       configBool(container, "debug", false),
		DiscordToken:                configString(container, "discord.token", ""),
		OwnerID:                     configString(container, "discord.owner_id", ""),
		Prefix:                      configString(container, "discord.prefix", ","),
		DataDir:                     configString(container, "storage.data_dir", "."),
		StorageBackend:              strings.ToLower(configString(container, "storage.backend", "file")),
		RedisAddress:                configString(container, "redis.address", "localhost:6379"),
		RedisPassword:               configString(container, "redis.password", ""),
		RedisDB:                     int(configNumber(container, "redis.db", 0)),
		RedisKeyPrefix:              configString(container, "redis.key_prefix", "pebble:"),
		LevelsMinGain:               int64(configNumber(container, "levels.min_gain", 15)),
		LevelsMaxGain:               int64(configNumber(container, "levels.max_gain", 25)),
		LevelsAnnounce:              configBool(container, "levels.announce", true),
		ReactionRolesDMConfirmation: configBool(container, "reactionroles.dm_confirmation", false),
		OperatorChannelID:           configString(container, "logging.operator_channel", ""),
		NotifyCommands:              configBool(container, "logging.notify_commands", false),
		LogJSONFile:                 configString(container, "logging.jsonfile", ""),
		LogDiscordWebhook:           configString(container, "logging.discord_webhook", ""),
		SentryDSN:                   configString(container, "sentry", ""),
		MetricsAddress:              configString(container, "metrics_address", ""),
		RestAddress:                 configString(container, "rest_address", ""),
		RestAllowedOrigins:          configStrings(container, "rest_allowed_origins"),
	}

	if c.AutosaveInterval, err = configDuration(container, "autosave.interval", "5m"); err != nil {
		return nil, err
	}
	if c.AutosaveCheck, err = configDuration(container, "autosave.check", "1m"); err != nil {
		return nil, err
	}
	if c.LevelsCooldown, err = configDuration(container, "levels.cooldown", "60s"); err != nil {
		return nil, err
	}

	var overrides EnvOverrides
	if err = env.Parse(&overrides); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	overrides.apply(c)

	return c, c.validate()
}

func (o EnvOverrides) apply(c *BotConfig) {
	set := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	set(&c.DiscordToken, o.DiscordToken)
	set(&c.OwnerID, o.OwnerID)
	set(&c.DataDir, o.DataDir)
	set(&c.RedisAddress, o.RedisAddress)
	set(&c.RedisPassword, o.RedisPassword)
	set(&c.SentryDSN, o.SentryDSN)
	set(&c.LogDiscordWebhook, o.LogDiscordWebhook)
}

func (c *BotConfig) validate() error {
	switch c.StorageBackend {
	case "file", "redis":
	default:
		return InvalidArgument("config", "unknown storage.backend %q", c.StorageBackend)
	}
	if c.LevelsMinGain <= 0 || c.LevelsMaxGain < c.LevelsMinGain {
		return InvalidArgument("config", "invalid levels gain range %d-%d", c.LevelsMinGain, c.LevelsMaxGain)
	}
	if c.AutosaveInterval <= 0 || c.AutosaveCheck <= 0 {
		return InvalidArgument("config", "autosave durations must be positive")
	}
	return nil
}

func configString(container *gabs.Container, path, fallback string) string {
	if !container.ExistsP(path) {
		return fallback
	}
	if value, ok := container.Path(path).Data().(string); ok {
		return value
	}
	return fallback
}

func configStrings(container *gabs.Container, path string) []string {
	if !container.ExistsP(path) {
		return nil
	}
	children, err := container.Path(path).Children()
	if err != nil {
		return nil
	}
	var values []string
	for _, child := range children {
		if value, ok := child.Data().(string); ok {
			values = append(values, value)
		}
	}
	return values
}

func configBool(container *gabs.Container, path string, fallback bool) bool {
	if !container.ExistsP(path) {
		return fallback
	}
	if value, ok := container.Path(path).Data().(bool); ok {
		return value
	}
	return fallback
}

func configNumber(container *gabs.Container, path string, fallback float64) float64 {
	if !container.ExistsP(path) {
		return fallback
	}
	switch value := container.Path(path).Data().(type) {
	case float64:
		return value
	case json.Number:
		if number, err := value.Float64(); err == nil {
			return number
		}
	}
	return fallback
}

// configDuration accepts tparse durations like "90s", "5m" or "1d"
func configDuration(container *gabs.Container, path, fallback string) (time.Duration, error) {
	text := configString(container, path, fallback)
	return ParseDuration(text)
}

// ParseDuration parses "1d", "1h30m", "45s"…
func ParseDuration(text string) (time.Duration, error) {
	base := time.Unix(0, 0).UTC()
	then, err := tparse.AddDuration(base, strings.TrimSpace(text))
	if err != nil {
		return 0, InvalidArgument("parse duration", "invalid duration %q", text)
	}
	return then.Sub(base), nil
}
