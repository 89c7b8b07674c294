package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Server  ServerConfig
	API     APIConfig
	CORS    CORSConfig
	Screens ScreensConfig
	Export  ExportConfig
	Log     LogConfig
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RefreshOnStart fetches every screen once before serving.
	RefreshOnStart bool
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type ScreensConfig struct {
	// File overrides the built-in screen definitions when set.
	File string
}

type ExportConfig struct {
	Dir string
}

type LogConfig struct {
	Level       string
	Development bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		API: APIConfig{
			BaseURL: "http://localhost:5000/api/v1/",
			Timeout: 30 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Export: ExportConfig{
			Dir: filepath.Join(os.TempDir(), "trackgrid-exports"),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads config.yaml from configPath (when present) on top of the
// defaults, then applies TRACKGRID_* environment overrides such as
// TRACKGRID_API_BASE_URL.
func Load(configPath string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if strings.TrimSpace(configPath) != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix("TRACKGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := []string{
		"server.addr", "server.read_timeout", "server.write_timeout", "server.shutdown_timeout", "server.refresh_on_start",
		"api.base_url", "api.timeout",
		"cors.allowed_origins",
		"screens.file",
		"export.dir",
		"log.level", "log.development",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if strings.TrimSpace(configPath) != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.read_timeout") {
		cfg.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	}
	if v.IsSet("server.write_timeout") {
		cfg.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	}
	if v.IsSet("server.shutdown_timeout") {
		cfg.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	}
	if v.IsSet("server.refresh_on_start") {
		cfg.Server.RefreshOnStart = v.GetBool("server.refresh_on_start")
	}
	if v.IsSet("api.base_url") {
		cfg.API.BaseURL = v.GetString("api.base_url")
	}
	if v.IsSet("api.timeout") {
		cfg.API.Timeout = v.GetDuration("api.timeout")
	}
	if v.IsSet("cors.allowed_origins") {
		cfg.CORS.AllowedOrigins = splitList(v.GetStringSlice("cors.allowed_origins"))
	}
	if v.IsSet("screens.file") {
		cfg.Screens.File = v.GetString("screens.file")
	}
	if v.IsSet("export.dir") {
		cfg.Export.Dir = v.GetString("export.dir")
	}
	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.development") {
		cfg.Log.Development = v.GetBool("log.development")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks for values that would break startup.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
