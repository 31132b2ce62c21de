// Package config provides configuration management for stemkeeper commands.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable viper reads.
const EnvPrefix = "SK"

// Config is the full configuration for all commands.
type Config struct {
	Assembly AssemblyConfig
	Server   ServerConfig
	Log      LogConfig
	DB       DBConfig
}

// AssemblyConfig holds settings for the batch assemble command.
type AssemblyConfig struct {
	Input       string // "-" for stdin
	Output      string // "-" for stdout
	Reclip      string // numeric or ceiling
	MetricsFile string // empty disables the textfile export
}

// ServerConfig holds settings for the gRPC warehouse service.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	DesignsFile    string
	MetricsAddr    string // empty disables /metrics
	RequireAuth    bool
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// DBConfig points at the optional audit journal.
type DBConfig struct {
	URL string // empty disables the journal
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Assembly: AssemblyConfig{
			Input:  "-",
			Output: "-",
			Reclip: "numeric",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			RequestTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Addr is the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports SK_HMAC_SECRET (single) and SK_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check %s_HMAC_SECRET and %s_HMAC_SECRET_* for conflicts)", secretID, EnvPrefix, EnvPrefix)
		}
		secrets[secretID] = decoded
		return nil
	}

	single := EnvPrefix + "_HMAC_SECRET"
	if val := os.Getenv(single); val != "" {
		if err := add(single, val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old keys valid during rotation.
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s_HMAC_SECRET_%d", EnvPrefix, i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lowercase hex chars.
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return secretID, secret, nil
}

// FormatHMACSecret renders a secret in the form HMACSecrets accepts.
func FormatHMACSecret(secretID string, secret []byte) string {
	return secretID + ":" + base64.StdEncoding.EncodeToString(secret)
}
