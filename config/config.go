// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig is returned when environment variables cannot be parsed.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

// Config holds binding defaults and tool settings.
type Config struct {
	TypingTimeout time.Duration `env:"FURRY_TYPING_TIMEOUT" envDefault:"1s"`

	QueryKeepLoadingOnNull bool `env:"FURRY_QUERY_KEEP_LOADING_ON_NULL"`
	QueryClearDataOnNull   bool `env:"FURRY_QUERY_CLEAR_DATA_ON_NULL"`

	CursorZIndex   int           `env:"FURRY_CURSOR_Z_INDEX" envDefault:"99999"`
	CursorClamp    bool          `env:"FURRY_CURSOR_CLAMP"`
	CursorThrottle time.Duration `env:"FURRY_CURSOR_THROTTLE" envDefault:"0s"`

	LogLevel  string `env:"FURRY_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FURRY_LOG_FORMAT" envDefault:"text"`

	RoomType string `env:"FURRY_ROOM_TYPE" envDefault:"demo"`
	RoomID   string `env:"FURRY_ROOM_ID" envDefault:"lobby"`
}

// Load reads the given .env files, or .env when none are named, then parses
// the environment. Missing files are ignored. Every call returns a fresh value.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else {
		for _, f := range files {
			_ = godotenv.Load(f)
		}
	}
	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// Default returns the configuration with every default applied.
func Default() Config {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	if err != nil {
		panic(err)
	}
	return cfg
}
