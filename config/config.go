package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/polimarket/market-service/internal/postgres"
	"github.com/polimarket/market-service/internal/storage"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	// AllowedOrigins is shared by CORS and the websocket origin check.
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	MaxUploadBytes  int64         `yaml:"maxUploadBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // market-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

// Postgres with an empty DSN runs the service on the in-memory store.
type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
}

func (p Postgres) ToPGConfig() postgres.Config {
	return postgres.Config{
		DSN:               p.DSN,
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
		ApplicationName:   p.ApplicationName,
	}
}

type Password struct {
	MinLength  int `yaml:"minLength"`
	BcryptCost int `yaml:"bcryptCost"`
}

type JWT struct {
	Secret    string        `yaml:"secret"`
	Issuer    string        `yaml:"issuer"`
	AccessTTL time.Duration `yaml:"accessTTL"`
	ClockSkew time.Duration `yaml:"clockSkew"`
}

type Security struct {
	Password Password `yaml:"password"`
	JWT      JWT      `yaml:"jwt"`
	// EmailDomain restricts registration, e.g. "@espol.edu.ec".
	EmailDomain    string `yaml:"emailDomain"`
	DeliverySecret string `yaml:"deliverySecret"`
}

type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Redis is optional; without a URL the auth rate limiter is off.
type Redis struct {
	URL       string    `yaml:"url"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

type Storage struct {
	Backend string              `yaml:"backend"` // local|s3
	Local   storage.LocalConfig `yaml:"local"`
	S3      storage.S3Config    `yaml:"s3"`
}

type WS struct {
	PingInterval time.Duration `yaml:"pingInterval"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	ReadLimit    int64         `yaml:"readLimit"`
	SendQueue    int           `yaml:"sendQueue"`
}

type Chat struct {
	MaxMessageLength int `yaml:"maxMessageLength"`
}

type Delivery struct {
	DefaultFee float64            `yaml:"defaultFee"`
	Fees       map[string]float64 `yaml:"fees"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Security Security `yaml:"security"`
	Redis    Redis    `yaml:"redis"`
	Storage  Storage  `yaml:"storage"`
	WS       WS       `yaml:"ws"`
	Chat     Chat     `yaml:"chat"`
	Delivery Delivery `yaml:"delivery"`
}

// LoadConfig reads CONFIG_PATH (default ./config/config.yaml), applies
// environment overrides and validates the result. A .env file in the working
// directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	return Load(path)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.HTTP.Addr, "HTTP_ADDR")
	setString(&c.Postgres.DSN, "DATABASE_URL")
	setString(&c.Security.JWT.Secret, "JWT_SECRET_KEY")
	setString(&c.Security.DeliverySecret, "DELIVERY_JOIN_SECRET")
	setString(&c.Security.EmailDomain, "EMAIL_DOMAIN")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Logging.Env, "APP_ENV")

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.S3.Region, "S3_REGION")
	setString(&c.Storage.S3.Bucket, "S3_BUCKET")
	setString(&c.Storage.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.Storage.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&c.Storage.S3.PublicURL, "S3_PUBLIC_URL")
	if v, ok := os.LookupEnv("S3_USE_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("S3_USE_PATH_STYLE: %w", err)
		}
		c.Storage.S3.UsePathStyle = b
	}
	if v, ok := os.LookupEnv("HTTP_ALLOWED_ORIGINS"); ok {
		c.HTTP.AllowedOrigins = splitList(v)
	}

	return nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 5 << 20
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "market-service"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}

	if c.Postgres.ApplicationName == "" {
		c.Postgres.ApplicationName = c.Logging.Service
	}

	if c.Security.JWT.Secret == "" {
		return errors.New("security.jwt.secret is required (or JWT_SECRET_KEY)")
	}
	if c.Security.JWT.Issuer == "" {
		c.Security.JWT.Issuer = "polimarket"
	}
	if c.Security.JWT.AccessTTL <= 0 {
		c.Security.JWT.AccessTTL = 24 * time.Hour
	}
	if c.Security.JWT.ClockSkew < 0 || c.Security.JWT.ClockSkew > time.Minute {
		return errors.New("security.jwt.clockSkew must be in [0..1m]")
	}
	if c.Security.Password.MinLength == 0 {
		c.Security.Password.MinLength = 6
	}
	if c.Security.Password.MinLength < 6 {
		return errors.New("security.password.minLength must be >= 6")
	}
	if cost := c.Security.Password.BcryptCost; cost != 0 && (cost < 4 || cost > 18) {
		return errors.New("security.password.bcryptCost must be in [4..18]")
	}
	if c.Security.EmailDomain == "" {
		c.Security.EmailDomain = "@espol.edu.ec"
	}
	if c.Security.DeliverySecret == "" {
		return errors.New("security.deliverySecret is required (or DELIVERY_JOIN_SECRET)")
	}

	if c.Redis.RateLimit.Limit == 0 {
		c.Redis.RateLimit.Limit = 10
	}
	if c.Redis.RateLimit.Window <= 0 {
		c.Redis.RateLimit.Window = time.Minute
	}

	switch c.Storage.Backend {
	case "":
		c.Storage.Backend = "local"
		fallthrough
	case "local":
		if c.Storage.Local.BasePath == "" {
			c.Storage.Local.BasePath = "./uploads"
		}
		if c.Storage.Local.PublicURL == "" {
			c.Storage.Local.PublicURL = "/static"
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}

	if c.WS.PingInterval <= 0 {
		c.WS.PingInterval = 30 * time.Second
	}
	if c.WS.WriteTimeout <= 0 {
		c.WS.WriteTimeout = 5 * time.Second
	}
	if c.WS.SendQueue <= 0 {
		c.WS.SendQueue = 64
	}

	if c.Chat.MaxMessageLength <= 0 {
		c.Chat.MaxMessageLength = 4000
	}
	minRead := MinReadLimit(c.Chat.MaxMessageLength)
	if c.WS.ReadLimit <= 0 {
		c.WS.ReadLimit = minRead
	}
	if c.WS.ReadLimit < minRead {
		return fmt.Errorf("ws.readLimit %d cannot carry a %d-character message (need >= %d)",
			c.WS.ReadLimit, c.Chat.MaxMessageLength, minRead)
	}
	if c.Delivery.DefaultFee < 0 {
		return errors.New("delivery.defaultFee must be >= 0")
	}

	return nil
}

// MinReadLimit is the smallest websocket read limit that still admits a
// message of maxRunes characters. A rune outside the BMP escapes to a
// 12-byte surrogate pair in JSON; the rest covers the envelope.
func MinReadLimit(maxRunes int) int64 {
	return int64(maxRunes)*12 + 1024
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
