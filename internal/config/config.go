// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Gateway GatewayConfig `mapstructure:"gateway"`
	Comet   CometConfig   `mapstructure:"comet"`
	Bot     BotConfig     `mapstructure:"bot"`
	Poll    PollConfig    `mapstructure:"poll"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Greet   GreetConfig   `mapstructure:"greet"`
	State   StateConfig   `mapstructure:"state"`
	Games   GamesConfig   `mapstructure:"games"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Weather WeatherConfig `mapstructure:"weather"`
	Log     LogConfig     `mapstructure:"log"`
}

// GatewayConfig holds the upstream gateway used for token exchange.
type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// CometConfig holds the chat backend connection configuration.
// BaseURL wins when both are set; otherwise the URL is derived from the
// API key's regional host.
type CometConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// BotConfig holds the bot's identity and chat behavior.
type BotConfig struct {
	UserToken   string `mapstructure:"user_token"`
	HangoutID   string `mapstructure:"hangout_id"`
	CmdPrefix   string `mapstructure:"cmd_prefix"`
	MaxMsgChars int    `mapstructure:"max_msg_chars"`
}

// PollConfig holds the message poll loop configuration.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Limit    int           `mapstructure:"limit"`
}

// AdminConfig holds the admin user allow-list.
type AdminConfig struct {
	UIDs []string `mapstructure:"uids"`
}

// GreetConfig holds join-greeting configuration.
type GreetConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Message      string        `mapstructure:"message"`
	BootSuppress time.Duration `mapstructure:"boot_suppress"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
}

// StateConfig holds persistence configuration.
type StateConfig struct {
	File string `mapstructure:"file"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Poker PokerConfig `mapstructure:"poker"`
	Slots SlotsConfig `mapstructure:"slots"`
}

// PokerConfig holds the poker round configuration.
type PokerConfig struct {
	Title         string        `mapstructure:"title"`
	BettingWindow time.Duration `mapstructure:"betting_window"`
	DealerDelay   time.Duration `mapstructure:"dealer_delay"`
}

// SlotsConfig holds the slot machine configuration.
type SlotsConfig struct {
	Title      string `mapstructure:"title"`
	DefaultBet int64  `mapstructure:"default_bet"`
}

// OpenAIConfig holds the LLM fallback configuration.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// WeatherConfig holds the OpenWeather configuration.
type WeatherConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CometBaseURL resolves the chat backend base URL, deriving it from the
// API key's regional host when no explicit URL is configured.
func (c *CometConfig) CometBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if c.APIKey != "" {
		return fmt.Sprintf("https://%s.apiclient-us.cometchat.io", c.APIKey)
	}
	return ""
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_USER_TOKEN, BOT_HANGOUT_ID, COMET_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks that the required identity fields are present.
func (c *Config) validate() error {
	if c.Bot.UserToken == "" {
		return fmt.Errorf("bot.user_token is required")
	}
	if c.Bot.HangoutID == "" {
		return fmt.Errorf("bot.hangout_id is required")
	}
	if c.Comet.CometBaseURL() == "" {
		return fmt.Errorf("comet.base_url or comet.api_key is required")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.base_url", "https://gateway.prod.tt.fm")

	v.SetDefault("bot.cmd_prefix", "/")
	v.SetDefault("bot.max_msg_chars", 900)

	v.SetDefault("poll.interval", "600ms")
	v.SetDefault("poll.limit", 100)

	v.SetDefault("greet.enabled", true)
	v.SetDefault("greet.message", "👋 Welcome, {name}! Type /commands to see what I can do.")
	v.SetDefault("greet.boot_suppress", "3s")
	v.SetDefault("greet.cooldown", "10m")

	v.SetDefault("state.file", "./bot-state.json")

	v.SetDefault("games.poker.title", "jirf poker")
	v.SetDefault("games.poker.betting_window", "15s")
	v.SetDefault("games.poker.dealer_delay", "5s")
	v.SetDefault("games.slots.title", "Karens Club Casino")
	v.SetDefault("games.slots.default_bet", 10)

	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("log.level", "info")
}

// IsAdmin checks if a user UID is in the admin list.
func (c *Config) IsAdmin(uid string) bool {
	for _, id := range c.Admin.UIDs {
		if id == uid {
			return true
		}
	}
	return false
}
