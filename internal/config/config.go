package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Mail     MailConfig     `mapstructure:"mail"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Mode           string   `mapstructure:"mode"` // gin mode: debug, release, test
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	// PublicBaseURL prefixes object keys in stored file references.
	// Defaults to <endpoint>/<bucket>.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// ArchiveConfig configures signed ZIP export links.
type ArchiveConfig struct {
	Secret  string        `mapstructure:"secret"`
	BaseURL string        `mapstructure:"base_url"` // External origin of this API
	LinkTTL time.Duration `mapstructure:"link_ttl"`
}

// FetchConfig bounds outbound downloads made while serving submission files.
type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"` // 0 means the request context decides
	MaxBytes     int64         `mapstructure:"max_bytes"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
}

type MailConfig struct {
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromName       string `mapstructure:"from_name"`
	FromAddress    string `mapstructure:"from_address"`
	AppName        string `mapstructure:"app_name"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // development or production
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// No file; defaults and env vars only
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if config.Archive.Secret == "" {
		config.Archive.Secret = config.JWT.Secret
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "gradex")
	v.SetDefault("s3.use_ssl", true)
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "gradex-submissions")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("archive.secret", "")
	v.SetDefault("archive.base_url", "http://localhost:8080")
	v.SetDefault("archive.link_ttl", "1h")
	v.SetDefault("fetch.timeout", "0s")
	v.SetDefault("fetch.max_bytes", 64<<20)
	v.SetDefault("fetch.signed_url_ttl", "5m")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.from_name", "Gradex")
	v.SetDefault("mail.from_address", "no-reply@gradex.local")
	v.SetDefault("mail.app_name", "Gradex")
	v.SetDefault("log.mode", "development")
}
