package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when the config file is absent or a key is missing.
const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 65530
	DefaultTimeout       = 5 * time.Second
	DefaultClientTimeout = 5 * time.Second
	DefaultLogFile       = "logs/bank.log"
)

// Config is the process-wide configuration, loaded once at startup and
// passed to the components that need it. Host is the address the node both
// binds to and announces as its bank code; routing compares account
// references against it literally.
type Config struct {
	Host          string
	Port          int
	Timeout       time.Duration
	ClientTimeout time.Duration
	LogFile       string
	Database      DatabaseConfig
}

// DatabaseConfig selects and parameterizes the account store. Driver is
// "memory" or "postgres". The postgres password is stored encrypted; the key
// file decrypts it at startup.
type DatabaseConfig struct {
	Driver            string
	Host              string
	Port              int
	User              string
	Name              string
	EncryptedPassword string
	KeyFile           string
}

// DSN builds the lib/pq connection string with the decrypted password.
func (d DatabaseConfig) DSN(password string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, password, d.Name)
}

// Load reads the JSON config file at path, or config.json from the working
// directory when path is empty. A missing file is not an error: every key
// has a default.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("timeout", int(DefaultTimeout/time.Second))
	v.SetDefault("client_timeout", int(DefaultClientTimeout/time.Second))
	v.SetDefault("log_file", DefaultLogFile)
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bank")
	v.SetDefault("database.name", "bank")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Host:          v.GetString("host"),
		Port:          v.GetInt("port"),
		Timeout:       time.Duration(v.GetInt("timeout")) * time.Second,
		ClientTimeout: time.Duration(v.GetInt("client_timeout")) * time.Second,
		LogFile:       v.GetString("log_file"),
		Database: DatabaseConfig{
			Driver:            v.GetString("database.driver"),
			Host:              v.GetString("database.host"),
			Port:              v.GetInt("database.port"),
			User:              v.GetString("database.user"),
			Name:              v.GetString("database.name"),
			EncryptedPassword: v.GetString("database.encrypted_password"),
			KeyFile:           v.GetString("database.key_file"),
		},
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Timeout <= 0 || cfg.ClientTimeout <= 0 {
		return Config{}, fmt.Errorf("timeouts must be positive")
	}

	return cfg, nil
}
