package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// DefaultPath is used when ORIGIN_CONFIG is unset.
const DefaultPath = "config/origin.toml"

// PathEnv overrides the config path.
const PathEnv = "ORIGIN_CONFIG"

var ErrInvalid = errors.New("invalid config")

var validate = validator.New()

type Config struct {
	Runtime   RuntimeConfig   `toml:"runtime"`
	Frame     FrameConfig     `toml:"frame"`
	Timer     TimerConfig     `toml:"timer"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
	Debug     DebugConfig     `toml:"debug"`
}

type RuntimeConfig struct {
	Name      string `toml:"name" validate:"required"`
	StartTime int64  // set at boot, not from config
}

type FrameConfig struct {
	Rate          time.Duration `toml:"rate" validate:"gt=0"`
	GameSpeed     float64       `toml:"game_speed" validate:"gte=0,lte=100"` // live reloadable
	MaxDelta      time.Duration `toml:"max_delta" validate:"gte=0"`           // 0 = no clamp
	FixedStep     time.Duration `toml:"fixed_step" validate:"gte=0"`          // 0 = no fixed updates
	MaxFixedSteps int           `toml:"max_fixed_steps" validate:"gte=1"`
}

type TimerConfig struct {
	MaxCatchUp int `toml:"max_catch_up" validate:"gte=1"` // extra straggler passes per Advance
}

type ScriptingConfig struct {
	Dir      string `toml:"dir"`
	KeyFile  string `toml:"key_file"` // hex key for .lua.sealed; empty = sealed scripts rejected
	Manifest string `toml:"manifest"`
}

type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"` // live reloadable
	Format string `toml:"format" validate:"oneof=json console"`
}

type DebugConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address" validate:"omitempty,hostname_port"`
}

// Path returns the config path, honouring ORIGIN_CONFIG.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Runtime.StartTime = time.Now().Unix()
	return cfg, nil
}

// Validate checks struct tags plus the cross-field rules tags can't express.
func (c *Config) Validate() error {
	var msgs []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			msgs = append(msgs, formatFieldError(fe))
		}
	}
	if c.Debug.Enabled && c.Debug.BindAddress == "" {
		msgs = append(msgs, "debug.bind_address is required when debug is enabled")
	}
	if len(msgs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s (got %v)", field, fe.Tag(), fe.Value())
}

func defaults() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Name: "origin",
		},
		Frame: FrameConfig{
			Rate:          16 * time.Millisecond,
			GameSpeed:     1.0,
			MaxDelta:      250 * time.Millisecond,
			FixedStep:     20 * time.Millisecond,
			MaxFixedSteps: 8,
		},
		Timer: TimerConfig{
			MaxCatchUp: 1000,
		},
		Scripting: ScriptingConfig{
			Dir:      "scripts",
			Manifest: "data/bootstrap.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Debug: DebugConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1:6060",
		},
	}
}
