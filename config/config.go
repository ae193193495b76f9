package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type PipelineConfig struct {
	MinRecordingMs  int `mapstructure:"min_recording_ms"`
	MaxRecordingSec int `mapstructure:"max_recording_sec"`
	ErrorRecoveryMs int `mapstructure:"error_recovery_ms"`
	HistoryLimit    int `mapstructure:"history_limit"`
}

type AudioConfig struct {
	SampleRate int    `mapstructure:"sample_rate"`
	Language   string `mapstructure:"language"`
	Encoding   string `mapstructure:"encoding"`
}

type AuthConfig struct {
	ClientSecret string `mapstructure:"client_secret"`
}

type MongoConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	viper.SetDefault("server.port", "8080")

	viper.SetDefault("pipeline.min_recording_ms", 500)
	viper.SetDefault("pipeline.max_recording_sec", 60)
	viper.SetDefault("pipeline.error_recovery_ms", 2000)
	viper.SetDefault("pipeline.history_limit", 10)

	viper.SetDefault("audio.sample_rate", 16000)
	viper.SetDefault("audio.language", "en-US")
	viper.SetDefault("audio.encoding", "LINEAR16")

	viper.SetDefault("auth.client_secret", "")
	viper.SetDefault("mongo.enabled", false)

	// Allow environment variables, e.g. LYRA_SERVER_PORT
	viper.SetEnvPrefix("LYRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// MinRecording converts the configured floor to a duration
func (p PipelineConfig) MinRecording() time.Duration {
	return time.Duration(p.MinRecordingMs) * time.Millisecond
}

// MaxRecording converts the configured ceiling to a duration
func (p PipelineConfig) MaxRecording() time.Duration {
	return time.Duration(p.MaxRecordingSec) * time.Second
}

// ErrorRecovery converts the configured recovery delay to a duration
func (p PipelineConfig) ErrorRecovery() time.Duration {
	return time.Duration(p.ErrorRecoveryMs) * time.Millisecond
}
