package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Google   GoogleConfig
	Notify   NotifyConfig
	Email    EmailConfig
	AMQP     AMQPConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Env     string
	Debug   bool
	LogPath string
}

// IsDevelopment reports whether detailed error text may be returned to clients.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == EnvDevelopment
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

// URL builds a postgres:// connection string for migrations.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	TokenTTL          time.Duration
	FederatedTokenTTL time.Duration
}

type AuthConfig struct {
	BcryptCost   int
	ResetCodeTTL time.Duration
}

type GoogleConfig struct {
	ClientID string
	JWKSURL  string
}

type NotifyConfig struct {
	Driver string // log, smtp or amqp
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "marketplace-auth")
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", EnvProduction)
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("JWT_ISSUER", "marketplace-auth")
	v.SetDefault("TOKEN_TTL_HOURS", 24)
	v.SetDefault("FEDERATED_TOKEN_TTL_HOURS", 24*7)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("RESET_CODE_TTL_MINUTES", 60)
	v.SetDefault("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs")
	v.SetDefault("NOTIFY_DRIVER", "log")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("AMQP_EXCHANGE", "marketplace.events")

	// .env is optional; the process environment always wins
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Port:    v.GetString("PORT"),
			Env:     v.GetString("APP_ENV"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:            v.GetString("JWT_SECRET"),
			Issuer:            v.GetString("JWT_ISSUER"),
			TokenTTL:          time.Duration(v.GetInt("TOKEN_TTL_HOURS")) * time.Hour,
			FederatedTokenTTL: time.Duration(v.GetInt("FEDERATED_TOKEN_TTL_HOURS")) * time.Hour,
		},
		Auth: AuthConfig{
			BcryptCost:   v.GetInt("BCRYPT_COST"),
			ResetCodeTTL: time.Duration(v.GetInt("RESET_CODE_TTL_MINUTES")) * time.Minute,
		},
		Google: GoogleConfig{
			ClientID: v.GetString("GOOGLE_CLIENT_ID"),
			JWKSURL:  v.GetString("GOOGLE_JWKS_URL"),
		},
		Notify: NotifyConfig{
			Driver: v.GetString("NOTIFY_DRIVER"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.TokenTTL <= 0 || c.JWT.FederatedTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Auth.ResetCodeTTL <= 0 {
		return errors.New("RESET_CODE_TTL_MINUTES must be positive")
	}
	switch c.Notify.Driver {
	case "log", "smtp", "amqp":
	default:
		return fmt.Errorf("unknown NOTIFY_DRIVER %q", c.Notify.Driver)
	}
	return nil
}
