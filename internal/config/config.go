package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver         string `yaml:"driver"`
		URL            string `yaml:"url"`
		MaxOpenConns   int    `yaml:"max_open_conns"`
		ConnectRetries uint64 `yaml:"connect_retries"`
	} `yaml:"database"`
	Classifier struct {
		ModelDir       string        `yaml:"model_dir"`
		Endpoint       string        `yaml:"endpoint"`
		LibraryPath    string        `yaml:"library_path"`
		Device         string        `yaml:"device"`
		MaxLength      int           `yaml:"max_length"`
		Timeout        time.Duration `yaml:"timeout"`
		IntraOpThreads int           `yaml:"intra_op_threads"`
	} `yaml:"classifier"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		FacetTTL      time.Duration `yaml:"facet_ttl"`
	} `yaml:"cache"`
	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// LoadConfig reads configuration from the specified YAML file. A .env file in
// the working directory is loaded first if present, and ${VAR} references in
// the YAML are expanded from the environment.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	config := &Config{}
	decoder := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(raw))))
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.ConnectRetries == 0 {
		c.Database.ConnectRetries = 5
	}
	if c.Classifier.ModelDir == "" {
		c.Classifier.ModelDir = "models/best_bert_model"
	}
	if c.Classifier.Device == "" {
		c.Classifier.Device = "auto"
	}
	if c.Classifier.MaxLength == 0 {
		c.Classifier.MaxLength = 128
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 10 * time.Second
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Cache.FacetTTL == 0 {
		c.Cache.FacetTTL = time.Hour
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required")
	}
	return nil
}
