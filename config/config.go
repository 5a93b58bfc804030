// Package config loads eventdesk settings. EVENTDESK_* environment variables
// beat the optional YAML file, which beats the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "EVENTDESK"

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	UI      UIConfig      `mapstructure:"ui"`
	DevAPI  DevAPIConfig  `mapstructure:"devapi"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	Dir string `mapstructure:"dir"`
	Key string `mapstructure:"key"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	ToastDuration time.Duration `mapstructure:"toast_duration"`
}

type DevAPIConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	DataFile       string        `mapstructure:"data_file"`
	AdminEmail     string        `mapstructure:"admin_email"`
	AdminPassword  string        `mapstructure:"admin_password"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Addr is host:port for the dev backend listener.
func (c DevAPIConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("session.dir", defaultSessionDir())
	v.SetDefault("session.key", "user")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join("logs", "eventdesk.log"))

	v.SetDefault("ui.toast_duration", 4*time.Second)

	v.SetDefault("devapi.host", "localhost")
	v.SetDefault("devapi.port", "8080")
	v.SetDefault("devapi.jwt_secret", "eventdesk-dev-secret")
	v.SetDefault("devapi.token_ttl", 24*time.Hour)
	v.SetDefault("devapi.data_file", "")
	v.SetDefault("devapi.admin_email", "admin@college.edu")
	v.SetDefault("devapi.admin_password", "admin123")
	v.SetDefault("devapi.allowed_origins", []string{"http://localhost:5173"})
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".eventdesk"
	}
	return filepath.Join(dir, "eventdesk")
}

// Load reads path if given, else looks for eventdesk.yaml in the working
// directory and ./config. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("eventdesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	return &c, nil
}
