package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrInvalidPort    = errors.New("invalid port")
	ErrInvalidICE     = errors.New("invalid ice server")
	ErrInvalidLimit   = errors.New("invalid limit")
	ErrInvalidTimeout = errors.New("invalid timeout")
)

const DefaultSTUN = "stun:stun.l.google.com:19302"

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type RateWindow struct {
	Events   int           `mapstructure:"events"`
	Interval time.Duration `mapstructure:"interval"`
}

// RateLimit is the default window plus per event kind overrides.
type RateLimit struct {
	Events   int                   `mapstructure:"events"`
	Interval time.Duration         `mapstructure:"interval"`
	Kinds    map[string]RateWindow `mapstructure:"kinds"`
}

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	StaticPath      string        `mapstructure:"static_path"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	Secret          string        `mapstructure:"secret"`
	LogLevel        string        `mapstructure:"log_level"`
	HistoryCapacity int           `mapstructure:"history_capacity"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
	ICE             []ICEServer   `mapstructure:"ice_servers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("history_capacity", 500)
	v.SetDefault("rate_limit.events", 20)
	v.SetDefault("rate_limit.interval", "10s")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{DefaultSTUN}},
	})
}

// Load reads config/config.<CONFIG_ENV>.yaml (or CONFIG_FILE) on top of the
// defaults. MEET_* environment variables override single keys,
// e.g. MEET_PORT or MEET_RATE_LIMIT_EVENTS.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("MEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Secret == "" {
		// Sessions will not survive a restart.
		cfg.Secret = uuid.NewString()
		log.Warn().Str("module", "config").Msg("no secret configured, generated one")
	}

	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.SendBuffer <= 0 || c.HistoryCapacity <= 0 || c.ReadLimit <= 0 {
		return fmt.Errorf("%w: send_buffer, history_capacity and read_limit must be positive", ErrInvalidLimit)
	}
	if c.RateLimit.Events <= 0 || c.RateLimit.Interval <= 0 {
		return fmt.Errorf("%w: rate_limit", ErrInvalidLimit)
	}
	for kind, w := range c.RateLimit.Kinds {
		if w.Events <= 0 || w.Interval <= 0 {
			return fmt.Errorf("%w: rate_limit.kinds.%s", ErrInvalidLimit, kind)
		}
	}
	if c.PingPeriod <= 0 || c.WriteWait <= 0 || c.PongWait <= c.PingPeriod {
		return fmt.Errorf("%w: pong_wait must exceed ping_period", ErrInvalidTimeout)
	}
	for _, s := range c.ICE {
		if len(s.URLs) == 0 {
			return fmt.Errorf("%w: no urls", ErrInvalidICE)
		}
		for _, raw := range s.URLs {
			if _, err := stun.ParseURI(raw); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidICE, raw, err)
			}
		}
	}
	return nil
}

// ICEServers converts the configured servers to the form handed to browsers.
func (c *Config) ICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.ICE))
	for _, s := range c.ICE {
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	return out
}
