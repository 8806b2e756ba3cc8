package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"daily-planner-bot/internal/db"
)

type Config struct {
	TelegramToken       string `yaml:"telegram_token"`
	TelegramAPIURL      string `yaml:"telegram_api_url"`
	TelegramPollTimeout int    `yaml:"telegram_poll_timeout"`

	DBDriver   string `yaml:"db_driver"`
	DBPath     string `yaml:"db_path"`
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`

	HTTPAddr  string `yaml:"http_addr"`
	JWTSecret string `yaml:"jwt_secret"`
}

func defaults() *Config {
	return &Config{
		TelegramPollTimeout: 30,
		DBDriver:            db.DriverSQLite,
		DBPath:              "tasks.db",
		DBPort:              5432,
		HTTPAddr:            ":8080",
	}
}

// Load reads the environment on top of the defaults.
func Load() *Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML file, then lets the environment override it.
// An empty path is the same as Load().
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.TelegramToken, "TOKEN")
	setString(&c.TelegramAPIURL, "TELEGRAM_API_URL")
	setInt(&c.TelegramPollTimeout, "TELEGRAM_POLL_TIMEOUT")

	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.DBHost, "DB_HOST")
	setInt(&c.DBPort, "DB_PORT")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")

	// HTTP_ADDR="" выключает HTTP API, поэтому смотрим именно на наличие переменной
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		c.HTTPAddr = v
	}
	setString(&c.JWTSecret, "JWT_SECRET")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return // fallback
	}
	*dst = n
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// DSN returns the driver name and the data source for db.Connect.
func (c *Config) DSN() (driver, dsn string) {
	if c.DBDriver == db.DriverPostgres {
		return db.DriverPostgres, c.ConnString()
	}
	return c.DBDriver, c.DBPath
}
