// Package config handles cwasm.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/interp"
	"github.com/wippyai/cwasm/wasm"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "cwasm.toml"

// Config represents a cwasm.toml file.
type Config struct {
	Decode Decode `toml:"decode"`
	Interp Interp `toml:"interp"`
	Log    Log    `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Decode configures module decoding.
type Decode struct {
	StrictVersion        bool `toml:"strict-version"`
	HaltOnUnknownSection bool `toml:"halt-on-unknown-section"`
	Validate             bool `toml:"validate"`
}

// Interp configures the interpreter.
type Interp struct {
	// Locals is "flat" or "typed".
	Locals string `toml:"locals"`
}

// Log configures the CLI logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Interp: Interp{Locals: "flat"},
		Log:    Log{Level: "warn"},
	}
}

// Load parses the configuration file at path. Unset fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).
			Cause(err).
			Detail("cannot read %s", path).
			Build()
	}
	return Parse(path, data)
}

// Parse decodes configuration from data; name is used in error messages.
func Parse(name string, data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).
			Cause(err).
			Detail("parse error in %s", name).
			Build()
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).
			Value(undecoded[0].String()).
			Detail("unknown key %q in %s", undecoded[0].String(), name).
			Build()
	}
	cfg.Path = name
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for FileName. It returns the
// defaults when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := c.LocalsEncoding(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).
			Value(c.Log.Level).
			Cause(err).
			Detail("invalid log level").
			Build()
	}
	return nil
}

// DecodeOptions converts the [decode] table.
func (c *Config) DecodeOptions() wasm.DecodeOptions {
	opts := wasm.DefaultDecodeOptions()
	opts.StrictVersion = c.Decode.StrictVersion
	opts.HaltOnUnknownSection = c.Decode.HaltOnUnknownSection
	opts.Validate = c.Decode.Validate
	return opts
}

// LocalsEncoding converts the [interp] locals setting.
func (c *Config) LocalsEncoding() (interp.LocalsEncoding, error) {
	switch c.Interp.Locals {
	case "", "flat":
		return interp.LocalsFlat, nil
	case "typed":
		return interp.LocalsTyped, nil
	default:
		return 0, werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).
			Value(c.Interp.Locals).
			Detail("locals must be %q or %q, got %q", "flat", "typed", c.Interp.Locals).
			Build()
	}
}

// Logger builds a zap logger from the [log] table.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var zc zap.Config
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
