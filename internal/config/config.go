package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string        `mapstructure:"PORT"`
	DBUrl        string        `mapstructure:"DB_URL"`
	RedisUrl     string        `mapstructure:"REDIS_URL"`
	SweepWindow  time.Duration `mapstructure:"SWEEP_WINDOW"`
	ScanThrottle time.Duration `mapstructure:"SCAN_THROTTLE"`
}

// HistoryEnabled reports whether observations are recorded to PostgreSQL
func (c Config) HistoryEnabled() bool {
	return c.DBUrl != ""
}

// SnapshotEnabled reports whether the seen-plot store is mirrored to Redis
func (c Config) SnapshotEnabled() bool {
	return c.RedisUrl != ""
}

func LoadConfig() (c Config, err error) {
	return loadConfig(viper.New(), ".")
}

func loadConfig(v *viper.Viper, path string) (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Set default values
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SWEEP_WINDOW", DefaultSweepWindow)
	v.SetDefault("SCAN_THROTTLE", DefaultScanThrottle)

	// Load environment file
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(path)

	// Environment variables take precedence over config file
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	if err = v.Unmarshal(&c); err != nil {
		return c, err
	}

	if c.SweepWindow <= 0 {
		return c, fmt.Errorf("SWEEP_WINDOW must be positive, got %s", c.SweepWindow)
	}
	if c.ScanThrottle < 0 {
		return c, fmt.Errorf("SCAN_THROTTLE must not be negative, got %s", c.ScanThrottle)
	}
	return c, nil
}
