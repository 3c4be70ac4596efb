// Package config loads the hub and agent settings through viper.
// Precedence: flags, then MEETING_* environment, then config/<name>.<env>.yaml, then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "MEETING"

// Config is the meeting hub configuration.
type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	Secret          string        `mapstructure:"secret"`
	WhisperLimit    int           `mapstructure:"whisper_limit"`
	WhisperInterval time.Duration `mapstructure:"whisper_interval"`
	LogLevel        string        `mapstructure:"log_level"`
}

func newViper(name string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v.SetConfigFile(fmt.Sprintf("config/%s.%s.yaml", name, env))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func read(v *viper.Viper, fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", v.ConfigFileUsed(), err)
		}
		log.Warn().Str("module", "config").Str("file", v.ConfigFileUsed()).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", v.ConfigFileUsed()).Msg("loaded config")
	}
	return nil
}

// Load reads the hub configuration. args are the command-line arguments
// without the program name.
func Load(args []string) (*Config, error) {
	v := newViper("meetingd")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "dev-secret")
	v.SetDefault("whisper_limit", 50)
	v.SetDefault("whisper_interval", "1s")
	v.SetDefault("log_level", "info")

	fs := pflag.NewFlagSet("meetingd", pflag.ContinueOnError)
	fs.String("mode", "release", "gin mode: debug or release")
	fs.Int("port", 8080, "listen port")
	fs.String("log_level", "info", "zerolog level")

	if err := read(v, fs, args); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.WhisperLimit <= 0 || cfg.WhisperInterval <= 0 {
		return nil, errors.New("whisper_limit and whisper_interval must be positive")
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("hub config")
	return &cfg, nil
}
