package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	BaseURL     string `yaml:"base_url"`     // public base URL used to build callback/webhook URLs
	FrontendURL string `yaml:"frontend_url"` // where payment success/cancel pages live
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"` // empty for AWS proper
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"` // base URL objects are served from
}

type NOWPaymentsConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	IPNSecret string        `yaml:"ipn_secret"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ImageEditConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type OTPConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	SendLimit   int           `yaml:"send_limit"`   // max OTP emails per window per address
	LimitWindow time.Duration `yaml:"limit_window"` // rate-limit window
	LoginLimit  int           `yaml:"login_limit"`  // max login attempts per window
	LoginWindow time.Duration `yaml:"login_window"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Storage     StorageConfig     `yaml:"storage"`
	NOWPayments NOWPaymentsConfig `yaml:"nowpayments"`
	ImageEdit   ImageEditConfig   `yaml:"image_edit"`
	OTP         OTPConfig         `yaml:"otp"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Secrets may come from the environment (.env in dev, real env in prod).
	overrideFromEnv(&cfg.Database.URL, "DATABASE_URL")
	overrideFromEnv(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideFromEnv(&cfg.SMTP.Password, "SMTP_PASSWORD")
	overrideFromEnv(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	overrideFromEnv(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	overrideFromEnv(&cfg.NOWPayments.APIKey, "NOWPAYMENTS_API_KEY")
	overrideFromEnv(&cfg.NOWPayments.IPNSecret, "NOWPAYMENTS_IPN_SECRET")
	overrideFromEnv(&cfg.ImageEdit.APIKey, "MODELSLAB_API_KEY")

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.NOWPayments.BaseURL == "" {
		cfg.NOWPayments.BaseURL = "https://api.nowpayments.io"
	}
	if cfg.NOWPayments.Timeout <= 0 {
		cfg.NOWPayments.Timeout = 15 * time.Second
	}
	if cfg.ImageEdit.BaseURL == "" {
		cfg.ImageEdit.BaseURL = "https://modelslab.com/api/v6"
	}
	if cfg.OTP.TTL <= 0 {
		cfg.OTP.TTL = 10 * time.Minute
	}
	if cfg.OTP.SendLimit <= 0 {
		cfg.OTP.SendLimit = 5
	}
	if cfg.OTP.LimitWindow <= 0 {
		cfg.OTP.LimitWindow = 10 * time.Minute
	}
	if cfg.OTP.LoginLimit <= 0 {
		cfg.OTP.LoginLimit = 10
	}
	if cfg.OTP.LoginWindow <= 0 {
		cfg.OTP.LoginWindow = 5 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("server.base_url is required")
	}
	if cfg.NOWPayments.APIKey == "" || cfg.NOWPayments.IPNSecret == "" {
		return nil, errors.New("nowpayments.api_key and nowpayments.ipn_secret are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
