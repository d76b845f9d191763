// Package config loads application configuration with viper: defaults,
// optional YAML file, and VOIP_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sip_call_diagnoser_go/internal/store"
)

type Config struct {
	Tshark   TsharkConfig   `mapstructure:"tshark"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Server   ServerConfig   `mapstructure:"server"`
	Database store.Config   `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Log      LogConfig      `mapstructure:"log"`
}

type TsharkConfig struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AnalysisConfig struct {
	Workers       int    `mapstructure:"workers"`
	OutputDir     string `mapstructure:"output_dir"`
	ExportFailing bool   `mapstructure:"export_failing"`
}

type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type S3Config struct {
	URI    string `mapstructure:"uri"`
	Region string `mapstructure:"region"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration from path (optional; "" skips the file) on top
// of defaults and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tshark.binary", "tshark")
	v.SetDefault("tshark.timeout", 2*time.Minute)

	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.output_dir", "output")
	v.SetDefault("analysis.export_failing", true)

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	})

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "require")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_lifetime", 30*time.Minute)

	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
}
