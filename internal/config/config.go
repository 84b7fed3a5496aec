// Package config loads the worker's configuration from the environment and
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// SMTPConfig is the SMTP_* environment surface.
type SMTPConfig struct {
	Hostname   string
	Port       int
	Security   string // none | starttls | ssl
	Auth       string // plain | gmail | oauth2
	Username   string
	Password   string
	PrivateKey string
	AccessURL  string
	Pool       bool
}

// RedisConfig addresses the side-state store (dedup keys, attachment
// manifests, dead-letter list, and both streams).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FormStoreConfig is the PocketBase form-metadata store endpoint.
type FormStoreConfig struct {
	URL      string
	Email    string
	Password string
}

// ObjectStoreConfig is the MinIO-compatible attachment object store.
type ObjectStoreConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Config is the full, validated worker configuration.
type Config struct {
	Redis       RedisConfig
	FormStore   FormStoreConfig
	ObjectStore ObjectStoreConfig
	SMTP        SMTPConfig

	ConsumerBatchSize int
	ConsumerBlock     int // seconds
	RetryInterval     int // minutes
	MailerRetries     int
	APIURL            string
	Debug             bool

	Retrier bool
}

// LoadOptions lets tests point at a fixture .env file instead of the
// process environment.
type LoadOptions struct {
	EnvFile string
	Retrier bool
}

// Load reads configuration with default options (optional ".env" in cwd).
func Load(retrier bool) (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env", Retrier: retrier})
}

// LoadWithOptions builds a fresh viper instance, sets defaults for every
// optional key, reads an optional env file before AutomaticEnv, then runs a
// single aggregated Validate pass.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("CONSUMER_BATCH_SIZE", 5)
	v.SetDefault("CONSUMER_BLOCK", 10)
	v.SetDefault("RETRY_INTERVAL", 15)
	v.SetDefault("MAILER_RETRIES", 5)
	v.SetDefault("SMTP_SECURITY", "none")
	v.SetDefault("SMTP_AUTH", "plain")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_POOL", false)
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("MINIO_BUCKET", "attachments")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DEBUG", false)

	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}
		v.AddConfigPath(cwd)

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		FormStore: FormStoreConfig{
			URL:      v.GetString("POCKETBASE_URL"),
			Email:    v.GetString("POCKETBASE_EMAIL"),
			Password: v.GetString("POCKETBASE_PASS"),
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			AccessKey: v.GetString("MINIO_ROOT_USER"),
			SecretKey: v.GetString("MINIO_ROOT_PASSWORD"),
			Region:    v.GetString("MINIO_REGION"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		SMTP: SMTPConfig{
			Hostname:   v.GetString("SMTP_HOSTNAME"),
			Port:       v.GetInt("SMTP_PORT"),
			Security:   v.GetString("SMTP_SECURITY"),
			Auth:       v.GetString("SMTP_AUTH"),
			Username:   v.GetString("SMTP_USERNAME"),
			Password:   v.GetString("SMTP_PASSWORD"),
			PrivateKey: v.GetString("SMTP_PRIVATE_KEY"),
			AccessURL:  v.GetString("SMTP_ACCESS_URL"),
			Pool:       v.GetBool("SMTP_POOL"),
		},
		ConsumerBatchSize: v.GetInt("CONSUMER_BATCH_SIZE"),
		ConsumerBlock:     v.GetInt("CONSUMER_BLOCK"),
		RetryInterval:     v.GetInt("RETRY_INTERVAL"),
		MailerRetries:     v.GetInt("MAILER_RETRIES"),
		APIURL:            v.GetString("API_URL"),
		Debug:             v.GetBool("DEBUG"),
		Retrier:           opts.Retrier,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate turns every missing required key into one aggregated
// bootstrap-fatal error that lists all missing keys, rather than panicking
// per-field.
func (c *Config) Validate() error {
	var missing []string

	if c.FormStore.URL == "" {
		missing = append(missing, "POCKETBASE_URL")
	}
	if c.FormStore.Email == "" {
		missing = append(missing, "POCKETBASE_EMAIL")
	}
	if c.FormStore.Password == "" {
		missing = append(missing, "POCKETBASE_PASS")
	}
	if c.SMTP.Hostname == "" {
		missing = append(missing, "SMTP_HOSTNAME")
	}
	if c.SMTP.Username == "" {
		missing = append(missing, "SMTP_USERNAME")
	}
	if c.SMTP.Password == "" && c.SMTP.Auth != "oauth2" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if c.ObjectStore.AccessKey == "" {
		missing = append(missing, "MINIO_ROOT_USER")
	}
	if c.ObjectStore.SecretKey == "" {
		missing = append(missing, "MINIO_ROOT_PASSWORD")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
