package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/stemkeeper/internal/core/logging"
	"github.com/solatis/stemkeeper/internal/stock"
)

// LoadConfig loads configuration using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the caller on top of the returned value.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("assembly.input", def.Assembly.Input)
	v.SetDefault("assembly.output", def.Assembly.Output)
	v.SetDefault("assembly.reclip", def.Assembly.Reclip)
	v.SetDefault("assembly.metrics_file", def.Assembly.MetricsFile)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.designs_file", def.Server.DesignsFile)
	v.SetDefault("server.metrics_addr", def.Server.MetricsAddr)
	v.SetDefault("server.require_auth", def.Server.RequireAuth)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("db.url", def.DB.URL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Assembly: AssemblyConfig{
			Input:       v.GetString("assembly.input"),
			Output:      v.GetString("assembly.output"),
			Reclip:      v.GetString("assembly.reclip"),
			MetricsFile: v.GetString("assembly.metrics_file"),
		},
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			DesignsFile:    v.GetString("server.designs_file"),
			MetricsAddr:    v.GetString("server.metrics_addr"),
			RequireAuth:    v.GetBool("server.require_auth"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DBConfig{
			URL: v.GetString("db.url"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations. Commands call it again
// after applying flag overrides.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if _, err := stock.ParseReclipMode(cfg.Assembly.Reclip); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", cfg.Log.Format)
	}
	return nil
}

func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use %s_HMAC_SECRET environment variable)", EnvPrefix)
	}
	return nil
}
