// Package config holds the settings shared by the engine and the command
// line tools. Files are YAML.
package config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"github.com/example/jsexpr/errors"
)

// Config is the root of a configuration file.
type Config struct {
	Parser  Parser `yaml:"parser"`
	Cache   Cache  `yaml:"cache"`
	Log     Log    `yaml:"log"`
	Globals bool   `yaml:"globals"`
}

// Parser configures the parser.
type Parser struct {
	FoldConstants bool `yaml:"fold_constants"`
}

// Cache configures the parse cache. Size 0 disables it.
type Cache struct {
	Size int `yaml:"size"`
}

// Log configures the logger built by NewLogger.
type Log struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Parser:  Parser{FoldConstants: true},
		Cache:   Cache{Size: 512},
		Log:     Log{Level: "info", Encoding: "console"},
		Globals: true,
	}
}

// Load reads and validates the file at path. Fields the file leaves out keep
// their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Cache.Size < 0 {
		return errors.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Encoding {
	case "console", "json":
	default:
		return errors.Errorf("log.encoding must be console or json, got %q", c.Log.Encoding)
	}
	return nil
}

func (l Log) level() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return lvl, errors.Errorf("log.level %q is not a zap level", l.Level)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to stderr.
func (l Log) NewLogger() (*zap.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = l.Encoding
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger, nil
}
