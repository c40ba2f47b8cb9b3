package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Settings are application-wide options read from pendart.yaml, the
// environment (PENDART_*) and command-line flags, in rising precedence.
type Settings struct {
	DataDir string       `mapstructure:"data"`
	FPS     int          `mapstructure:"fps"`
	Palette string       `mapstructure:"palette"`
	Logger  LoggerConfig `mapstructure:"logger"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	AddCaller  bool   `mapstructure:"add_caller" yaml:"add_caller"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("data", ".pendart")
	v.SetDefault("fps", DefaultFPS)
	v.SetDefault("palette", "default")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.add_caller", false)
}

// NewViper returns a viper instance with defaults, env binding and the
// config search path set. cfgFile overrides the search path when set.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pendart")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PENDART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadSettings reads the config file if there is one and decodes settings.
// A missing file is not an error.
func ReadSettings(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.expandHome(); err != nil {
		return nil, err
	}
	return &s, nil
}

// expandHome resolves a leading ~ in path settings.
func (s *Settings) expandHome() error {
	dir, err := homedir.Expand(s.DataDir)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	s.DataDir = dir

	if s.Logger.LogFile != "" {
		file, err := homedir.Expand(s.Logger.LogFile)
		if err != nil {
			return fmt.Errorf("logger.log_file: %w", err)
		}
		s.Logger.LogFile = file
	}
	return nil
}

func (s *Settings) Validate() error {
	if s.FPS <= 0 || s.FPS > 1000 {
		return fmt.Errorf("fps must be in 1..1000, got %d", s.FPS)
	}
	if s.DataDir == "" {
		return fmt.Errorf("data directory must be set")
	}
	switch s.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", s.Logger.Format)
	}
	return nil
}
