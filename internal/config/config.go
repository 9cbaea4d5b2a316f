package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/marches/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	Quiet    bool

	// Portal
	BaseURL   string
	UserAgent string
	Proxies   []string

	// Crawl
	Workers      int
	MaxAttempts  int
	Timeout      time.Duration // overrides the per-mode timeouts when > 0
	FullTimeout  time.Duration
	DailyTimeout time.Duration
	MaxPage      int // overrides the per-mode page range when > 0
	FullMaxPage  int
	DailyMaxPage int

	// Pacing
	MinDelay       time.Duration
	MaxDelay       time.Duration
	MinBackoff     time.Duration
	MaxBackoff     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	// Storage
	DatasetPath     string
	FailedPagesPath string
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		BaseURL:         DefaultBaseURL,
		UserAgent:       DefaultUserAgent,
		Workers:         DefaultWorkers,
		MaxAttempts:     DefaultMaxAttempts,
		FullTimeout:     DefaultFullTimeout,
		DailyTimeout:    DefaultDailyTimeout,
		FullMaxPage:     DefaultFullMaxPage,
		DailyMaxPage:    DefaultDailyMaxPage,
		MinDelay:        DefaultMinDelay,
		MaxDelay:        DefaultMaxDelay,
		MinBackoff:      DefaultMinBackoff,
		MaxBackoff:      DefaultMaxBackoff,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		DatasetPath:     DefaultDatasetPath,
		FailedPagesPath: DefaultFailedPagesPath,
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// MARCHES_WORKERS, MARCHES_FAILED_PAGES, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	verbose := false
	if cmd != nil {
		flags := cmd.Flags()
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}

		if path, err := flags.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
		}

		verbose, _ = flags.GetBool("verbose")
	}

	cfg := &Config{
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		JSONLog:         v.GetBool("json"),
		Quiet:           v.GetBool("quiet"),
		BaseURL:         v.GetString("base_url"),
		UserAgent:       v.GetString("user_agent"),
		Proxies:         v.GetStringSlice("proxy"),
		Workers:         v.GetInt("workers"),
		MaxAttempts:     v.GetInt("attempts"),
		Timeout:         v.GetDuration("timeout"),
		FullTimeout:     v.GetDuration("full_timeout"),
		DailyTimeout:    v.GetDuration("daily_timeout"),
		MaxPage:         v.GetInt("max_page"),
		FullMaxPage:     v.GetInt("full_max_page"),
		DailyMaxPage:    v.GetInt("daily_max_page"),
		MinDelay:        v.GetDuration("min_delay"),
		MaxDelay:        v.GetDuration("max_delay"),
		MinBackoff:      v.GetDuration("min_backoff"),
		MaxBackoff:      v.GetDuration("max_backoff"),
		RateLimitRPS:    v.GetFloat64("rps"),
		RateLimitBurst:  v.GetInt("burst"),
		DatasetPath:     v.GetString("dataset"),
		FailedPagesPath: v.GetString("failed_pages"),
	}

	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case cfg.Quiet:
		cfg.LogLevel = "error"
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// bindFlags binds every registered flag present in flags to its config key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("json", d.JSONLog)
	v.SetDefault("quiet", false)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("proxy", []string{})
	v.SetDefault("workers", d.Workers)
	v.SetDefault("attempts", d.MaxAttempts)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("full_timeout", d.FullTimeout)
	v.SetDefault("daily_timeout", d.DailyTimeout)
	v.SetDefault("max_page", 0)
	v.SetDefault("full_max_page", d.FullMaxPage)
	v.SetDefault("daily_max_page", d.DailyMaxPage)
	v.SetDefault("min_delay", d.MinDelay)
	v.SetDefault("max_delay", d.MaxDelay)
	v.SetDefault("min_backoff", d.MinBackoff)
	v.SetDefault("max_backoff", d.MaxBackoff)
	v.SetDefault("rps", d.RateLimitRPS)
	v.SetDefault("burst", d.RateLimitBurst)
	v.SetDefault("dataset", d.DatasetPath)
	v.SetDefault("failed_pages", d.FailedPagesPath)
}

// MaxPageFor returns the last page crawled in mode.
func (c *Config) MaxPageFor(mode models.Mode) int {
	if c.MaxPage > 0 {
		return c.MaxPage
	}
	if mode == models.ModeDaily {
		return c.DailyMaxPage
	}
	return c.FullMaxPage
}

// TimeoutFor returns the per-attempt timeout used in mode.
func (c *Config) TimeoutFor(mode models.Mode) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	if mode == models.ModeDaily {
		return c.DailyTimeout
	}
	return c.FullTimeout
}
