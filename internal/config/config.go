package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crawlwatch/internal/dirs"
	"crawlwatch/internal/model"
)

const (
	DefaultAPIBase        = "http://localhost:8080/api"
	DefaultPollInterval   = 2 * time.Second
	DefaultTickInterval   = 100 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second

	// AutoLogPath asks for the debug log in the state directory.
	AutoLogPath = "auto"
)

// flag name -> viper key
var flagKeys = map[string]string{
	"api-base":        "api_base",
	"poll-interval":   "poll_interval",
	"tick-interval":   "tick_interval",
	"max-seconds":     "max_seconds",
	"request-timeout": "request_timeout",
	"verbose":         "verbose",
	"debug-log":       "debug_log",
	"no-ui":           "no_ui",
}

// Init wires Viper with config paths, env, defaults, and flag bindings.
// A missing config file is not an error; a malformed one is.
func Init(root *cobra.Command) error {
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: CRAWLWATCH_*
	viper.SetEnvPrefix("CRAWLWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api_base", DefaultAPIBase)
	viper.SetDefault("poll_interval", DefaultPollInterval)
	viper.SetDefault("tick_interval", DefaultTickInterval)
	viper.SetDefault("max_seconds", model.DefaultMaxSeconds)
	viper.SetDefault("request_timeout", DefaultRequestTimeout)
	viper.SetDefault("verbose", false)
	viper.SetDefault("debug_log", "")
	viper.SetDefault("no_ui", false)

	for name, key := range flagKeys {
		if f := root.PersistentFlags().Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load resolves the effective options and validates them.
func Load() (model.Options, error) {
	opts := model.Options{
		APIBase:        strings.TrimSpace(viper.GetString("api_base")),
		PollInterval:   viper.GetDuration("poll_interval"),
		TickInterval:   viper.GetDuration("tick_interval"),
		MaxSeconds:     viper.GetInt("max_seconds"),
		RequestTimeout: viper.GetDuration("request_timeout"),
		Verbose:        viper.GetBool("verbose"),
		DebugLog:       strings.TrimSpace(viper.GetString("debug_log")),
		NoUI:           viper.GetBool("no_ui"),
	}

	if opts.DebugLog == AutoLogPath {
		state, err := dirs.StateDir()
		if err != nil {
			return opts, fmt.Errorf("locate state dir: %w", err)
		}
		if err := dirs.Ensure(state); err != nil {
			return opts, fmt.Errorf("create state dir: %w", err)
		}
		opts.DebugLog = filepath.Join(state, "debug.log")
	}

	if err := Validate(opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// Validate reports the first invalid setting, wrapping model.ErrInvalidOptions.
func Validate(o model.Options) error {
	switch {
	case o.APIBase == "":
		return fmt.Errorf("%w: api_base is empty", model.ErrInvalidOptions)
	case o.TickInterval <= 0:
		return fmt.Errorf("%w: tick_interval must be > 0, got %s", model.ErrInvalidOptions, o.TickInterval)
	case o.PollInterval <= 0:
		return fmt.Errorf("%w: poll_interval must be > 0, got %s", model.ErrInvalidOptions, o.PollInterval)
	case o.PollInterval < o.TickInterval:
		return fmt.Errorf("%w: poll_interval (%s) must not be shorter than tick_interval (%s)", model.ErrInvalidOptions, o.PollInterval, o.TickInterval)
	case o.MaxSeconds < 1:
		return fmt.Errorf("%w: max_seconds must be >= 1, got %d", model.ErrInvalidOptions, o.MaxSeconds)
	case o.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be > 0, got %s", model.ErrInvalidOptions, o.RequestTimeout)
	}
	return nil
}
