// Package config handles configuration loading, validation, and persistence
// for the gobancho server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir  = "config"
	DefaultConfigFile = "config.json"

	DefaultBanchoPort  = 8080
	DefaultMonitorPort = 5000

	// DefaultProtocolVersion is the protocol revision advertised to
	// clients on login.
	DefaultProtocolVersion = 19
)

// Config is the root configuration structure for gobancho.
type Config struct {
	mu   sync.RWMutex
	path string

	Server   ServerConfig   `json:"server"`
	Bancho   BanchoConfig   `json:"bancho"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	GeoIP    GeoIPConfig    `json:"geoip"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig holds the listener settings for the two HTTP surfaces.
type ServerConfig struct {
	// BanchoAddr is the listen address of the game protocol endpoint.
	BanchoAddr string `json:"bancho_addr"`

	// MonitorAddr is the listen address of the status API. Empty
	// disables it.
	MonitorAddr string `json:"monitor_addr"`
}

// BanchoConfig holds protocol-facing identity settings.
type BanchoConfig struct {
	ServerName      string `json:"server_name"`
	ProtocolVersion int32  `json:"protocol_version"`

	// MenuIcon and MenuIconURL fill the main menu banner packet. Both
	// empty sends an empty banner.
	MenuIcon    string `json:"menu_icon"`
	MenuIconURL string `json:"menu_icon_url"`

	// PasswordCacheMinutes bounds how long a verified credential stays
	// cached before bcrypt runs again.
	PasswordCacheMinutes int `json:"password_cache_minutes"`

	// VerifyPoolSize caps concurrent bcrypt verifications.
	VerifyPoolSize int `json:"verify_pool_size"`
}

// DatabaseConfig holds the account store settings.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// RedisConfig holds the control-plane connection settings.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// GeoIPConfig holds the MaxMind database settings. Disabled means all
// sessions resolve to the zero location.
type GeoIPConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"`
}

// MQTTConfig holds MQTT presence telemetry settings.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
}

// SecurityConfig holds settings for the status API surface.
type SecurityConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BanchoAddr:  fmt.Sprintf(":%d", DefaultBanchoPort),
			MonitorAddr: fmt.Sprintf(":%d", DefaultMonitorPort),
		},
		Bancho: BanchoConfig{
			ServerName:           "gobancho",
			ProtocolVersion:      DefaultProtocolVersion,
			PasswordCacheMinutes: 15,
			VerifyPoolSize:       8,
		},
		Database: DatabaseConfig{
			Path: "gobancho.db",
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "127.0.0.1:6379",
		},
		GeoIP: GeoIPConfig{
			DatabasePath: "GeoLite2-City.mmdb",
		},
		MQTT: MQTTConfig{
			Port:   8883,
			UseTLS: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Directory:  "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Load reads configuration from a JSON file.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig() // Start with defaults, then overlay
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Msg("configuration loaded")

	// Re-save config to persist any new default fields added in code updates.
	// This ensures config.json always reflects the complete set of options.
	if saveErr := cfg.Save(); saveErr != nil {
		log.Warn().Err(saveErr).Msg("failed to re-save config with updated defaults")
	}

	return cfg, nil
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}
