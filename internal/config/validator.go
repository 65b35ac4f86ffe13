package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: message})
}

// Validate performs comprehensive validation of the configuration.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	validateServer(&cfg.Server, result)
	validateBancho(&cfg.Bancho, result)
	validateDatabase(&cfg.Database, result)
	validateRedis(&cfg.Redis, result)
	validateGeoIP(&cfg.GeoIP, result)
	validateMQTT(&cfg.MQTT, result)
	validateLogging(&cfg.Logging, result)

	return result
}

func validateServer(cfg *ServerConfig, result *ValidationResult) {
	if cfg.BanchoAddr == "" {
		result.AddError("server.bancho_addr", "listen address is required")
	} else if _, _, err := net.SplitHostPort(cfg.BanchoAddr); err != nil {
		result.AddError("server.bancho_addr", fmt.Sprintf("invalid listen address: %v", err))
	}

	if cfg.MonitorAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MonitorAddr); err != nil {
			result.AddError("server.monitor_addr", fmt.Sprintf("invalid listen address: %v", err))
		}
		if cfg.MonitorAddr == cfg.BanchoAddr {
			result.AddError("server.monitor_addr", "monitor and bancho listeners cannot share an address")
		}
	}
}

func validateBancho(cfg *BanchoConfig, result *ValidationResult) {
	if cfg.ServerName == "" {
		result.AddError("bancho.server_name", "server name is required")
	}
	if cfg.ProtocolVersion <= 0 {
		result.AddError("bancho.protocol_version", "protocol version must be positive")
	}
	if cfg.PasswordCacheMinutes < 0 {
		result.AddError("bancho.password_cache_minutes", "cache lifetime cannot be negative")
	}
	if cfg.PasswordCacheMinutes > 120 {
		result.AddWarning("bancho.password_cache_minutes", "credentials cached longer than two hours")
	}
	if cfg.VerifyPoolSize <= 0 {
		result.AddError("bancho.verify_pool_size", "verify pool size must be positive")
	}
}

func validateDatabase(cfg *DatabaseConfig, result *ValidationResult) {
	if cfg.Path == "" {
		result.AddError("database.path", "database path is required")
	}
}

func validateRedis(cfg *RedisConfig, result *ValidationResult) {
	if !cfg.Enabled {
		result.AddWarning("redis.enabled", "control plane disabled, moderation commands will not reach live sessions")
		return
	}
	if cfg.Addr == "" {
		result.AddError("redis.addr", "redis address is required when enabled")
	} else if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		result.AddError("redis.addr", fmt.Sprintf("invalid redis address: %v", err))
	}
	if cfg.DB < 0 {
		result.AddError("redis.db", "database index cannot be negative")
	}
}

func validateGeoIP(cfg *GeoIPConfig, result *ValidationResult) {
	if !cfg.Enabled {
		return
	}
	if cfg.DatabasePath == "" {
		result.AddError("geoip.database_path", "database path is required when enabled")
		return
	}
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		result.AddWarning("geoip.database_path", fmt.Sprintf("database not readable: %v", err))
	}
}

func validateMQTT(cfg *MQTTConfig, result *ValidationResult) {
	if !cfg.Enabled {
		return
	}
	if cfg.BrokerURL == "" {
		result.AddError("mqtt.broker_url", "broker URL is required when enabled")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		result.AddError("mqtt.port", "broker port out of range")
	}
	if cfg.UseTLS && (cfg.CertFile == "") != (cfg.KeyFile == "") {
		result.AddError("mqtt.cert_file", "cert_file and key_file must be set together")
	}
}

func validateLogging(cfg *LoggingConfig, result *ValidationResult) {
	switch strings.ToLower(cfg.Level) {
	case "trace", "debug", "info", "warn", "error", "":
	default:
		result.AddError("logging.level", fmt.Sprintf("unknown log level %q", cfg.Level))
	}
	if cfg.MaxSizeMB <= 0 {
		result.AddWarning("logging.max_size_mb", "log rotation size not set, using default")
	}
}
