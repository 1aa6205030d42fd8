package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Telegram Telegram `mapstructure:"telegram"`
	Parser   Parser   `mapstructure:"parser"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
}

// Telegram holds the configuration for the Bot API transport.
type Telegram struct {
	BotToken       string  `mapstructure:"bot_token"`
	PollTimeout    int     `mapstructure:"poll_timeout"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Parser holds the configuration for signal extraction.
type Parser struct {
	MatchTimeoutMS int `mapstructure:"match_timeout_ms"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("telegram.poll_timeout", 25)    // long-poll seconds
	viper.SetDefault("telegram.rate_limit", 1)       // requests per second
	viper.SetDefault("telegram.rate_limit_burst", 3) // burst size
	viper.SetDefault("parser.match_timeout_ms", 250)
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("database.dsn", "copier.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
