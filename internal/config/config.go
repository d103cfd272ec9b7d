package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
}

type RedisConfig struct {
	Host     string
	Password string
}

type ElasticConfig struct {
	URL      string
	User     string
	Password string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type UPIConfig struct {
	VPA       string
	PayeeName string
}

// Config is read once at startup; handlers get the pieces they need.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	LogFormat   string
	BaseURL     string
	FrontendURL string

	JWTSecret     string
	SessionSecret string

	Scylla  ScyllaConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig
	OAuth   OAuthConfig
	SMTP    SMTPConfig
	UPI     UPIConfig

	StripeSecretKey     string
	StripeWebhookSecret string
	ShippingFee         float64

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// Load reads .env (if present) into the process environment, then builds the
// typed configuration from environment variables with defaults.
func Load() *Config {
	envErr := godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("SCYLLA_HOSTS", "127.0.0.1")
	v.SetDefault("SCYLLA_KEYSPACE", "agromarket")
	v.SetDefault("REDIS_HOST", "localhost:6379")
	v.SetDefault("MINIO_BUCKET", "crop-images")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "noreply@agromarket.in")
	v.SetDefault("UPI_PAYEE_NAME", "AgroMarket")
	v.SetDefault("SHIPPING_FEE", 40.0)

	return &Config{
		Port:          v.GetString("PORT"),
		Env:           v.GetString("APP_ENV"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		BaseURL:       strings.TrimRight(v.GetString("BASE_URL"), "/"),
		FrontendURL:   v.GetString("FRONTEND_URL"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		Scylla: ScyllaConfig{
			Hosts:    splitHosts(v.GetString("SCYLLA_HOSTS")),
			Keyspace: v.GetString("SCYLLA_KEYSPACE"),
			Username: v.GetString("SCYLLA_USERNAME"),
			Password: v.GetString("SCYLLA_PASSWORD"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Elastic: ElasticConfig{
			URL:      v.GetString("ELASTIC_URL"),
			User:     v.GetString("ELASTIC_USER"),
			Password: v.GetString("ELASTIC_PASSWORD"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
		UPI: UPIConfig{
			VPA:       v.GetString("UPI_VPA"),
			PayeeName: v.GetString("UPI_PAYEE_NAME"),
		},
		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		ShippingFee:         v.GetFloat64("SHIPPING_FEE"),
		EnvFileLoaded:       envErr == nil,
	}
}

func splitHosts(raw string) []string {
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
