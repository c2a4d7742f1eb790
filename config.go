package mdpresent

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Environment variables overriding the config file.
const (
	EnvAddr          = "MDP_ADDR"
	EnvMarkdown      = "MDP_MARKDOWN"
	EnvTargetSeconds = "MDP_TARGET_SECONDS"
	EnvAutoStart     = "MDP_AUTO_START"
	EnvLogLevel      = "MDP_LOG_LEVEL"
	EnvLogFormat     = "MDP_LOG_FORMAT"
	EnvLogFile       = "MDP_LOG_FILE"
)

type TimerConfig struct {
	TargetSeconds int  `yaml:"target_seconds"`
	AutoStart     bool `yaml:"auto_start"`
}

// Target is the configured budget as a duration.
func (c TimerConfig) Target() time.Duration {
	return time.Duration(c.TargetSeconds) * time.Second
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	File   string `yaml:"file"`   // optional, rotated
}

type Config struct {
	Markdown      string        `yaml:"markdown"`
	Addr          string        `yaml:"addr"`
	Timer         TimerConfig   `yaml:"timer"`
	PresenterView PresenterView `yaml:"presenter_view"`
	Logging       LoggingConfig `yaml:"logging"`
}

func DefaultConfig() Config {
	return Config{
		Addr: ":8080",
		Timer: TimerConfig{
			TargetSeconds: int(DefaultTargetDuration / time.Second),
			AutoStart:     true,
		},
		PresenterView: DefaultPresenterView,
		Logging:       LoggingConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads a YAML config on top of the defaults and applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		buf, err := ioutil.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvAddr, &c.Addr)
	str(EnvMarkdown, &c.Markdown)
	str(EnvLogLevel, &c.Logging.Level)
	str(EnvLogFormat, &c.Logging.Format)
	str(EnvLogFile, &c.Logging.File)

	if v, ok := lookup(EnvTargetSeconds); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTargetSeconds, err)
		}
		c.Timer.TargetSeconds = secs
	}
	if v, ok := lookup(EnvAutoStart); ok && v != "" {
		auto, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAutoStart, err)
		}
		c.Timer.AutoStart = auto
	}
	return nil
}

// SessionOptions translates the config into session options.
func (c Config) SessionOptions() []SessionOption {
	return []SessionOption{
		WithTargetDuration(c.Timer.Target()),
		WithAutoStart(c.Timer.AutoStart),
		WithPresenterView(c.PresenterView),
	}
}
