package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/pg"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

type GRPC struct {
	Addr string `yaml:"addr"` // пусто: gRPC health не поднимается
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // kcd-platform
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
	ConnectRetries    int           `yaml:"connectRetries"`
	Migrate           bool          `yaml:"migrate"`
}

func (p Postgres) Validate() error {
	if p.DSN == "" {
		return errors.New("postgres.dsn is required")
	}

	return nil
}

func (p Postgres) ToPGConfig() pg.Config {
	return pg.Config{
		DSN:               p.DSN,
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
		ApplicationName:   p.ApplicationName,
		ConnectRetries:    p.ConnectRetries,
	}
}

type Password struct {
	MinLength  int `yaml:"minLength"`
	BcryptCost int `yaml:"bcryptCost"`
}

func (p Password) Validate() error {
	if p.MinLength < 6 {
		return errors.New("security.password.minLength must be >= 6")
	}
	if p.BcryptCost != 0 && (p.BcryptCost < 4 || p.BcryptCost > 18) {
		return errors.New("security.password.bcryptCost must be in [4..18]")
	}

	return nil
}

type JWT struct {
	Alg            string        `yaml:"alg"`            // HS256|RS256
	Secret         string        `yaml:"secret"`         // для HS256
	PrivateKeyPath string        `yaml:"privateKeyPath"` // для RS256
	PublicKeyPath  string        `yaml:"publicKeyPath"`  // для RS256
	Issuer         string        `yaml:"issuer"`         // пусто: не проверяется
	Audience       string        `yaml:"audience"`       // пусто: не проверяется
	AccessTTL      time.Duration `yaml:"accessTTL"`      // напр. 30m
	ClockSkew      time.Duration `yaml:"clockSkew"`      // напр. 30s
}

func (j JWT) Validate() error {
	switch j.Alg {
	case "HS256":
		if j.Secret == "" {
			return errors.New("security.jwt.secret is required for HS256")
		}
	case "RS256":
		if j.PrivateKeyPath == "" || j.PublicKeyPath == "" {
			return errors.New("security.jwt.privateKeyPath and publicKeyPath are required for RS256")
		}
	default:
		return fmt.Errorf("security.jwt.alg %q is not supported", j.Alg)
	}
	if j.AccessTTL <= 0 {
		return errors.New("security.jwt.accessTTL must be > 0")
	}
	if j.ClockSkew < 0 || j.ClockSkew > time.Minute {
		return errors.New("security.jwt.clockSkew must be in [0..1m]")
	}

	return nil
}

type Security struct {
	Password Password `yaml:"password"`
	JWT      JWT      `yaml:"jwt"`
}

type Chat struct {
	HistoryLimit  int           `yaml:"historyLimit"`
	PingEvery     time.Duration `yaml:"pingEvery"`
	WriteWait     time.Duration `yaml:"writeWait"`
	SendBuffer    int           `yaml:"sendBuffer"`
	ReadLimit     int64         `yaml:"readLimit"`
	FrameRate     float64       `yaml:"frameRate"`  // кадров в секунду на сессию, 0: без лимита
	FrameBurst    int           `yaml:"frameBurst"` // размер всплеска
	CacheIdentity bool          `yaml:"cacheIdentity"`
}

type Storage struct {
	UploadDir      string `yaml:"uploadDir"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
	PublicPrefix   string `yaml:"publicPrefix"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Security Security `yaml:"security"`
	Chat     Chat     `yaml:"chat"`
	Storage  Storage  `yaml:"storage"`
}

// envOverrides: переменные KCD_*, перекрывающие значения из yaml
type envOverrides struct {
	HTTPAddr    string        `envconfig:"HTTP_ADDR"`
	GRPCAddr    string        `envconfig:"GRPC_ADDR"`
	PostgresDSN string        `envconfig:"POSTGRES_DSN"`
	JWTAlg      string        `envconfig:"JWT_ALG"`
	JWTSecret   string        `envconfig:"JWT_SECRET"`
	AccessTTL   time.Duration `envconfig:"ACCESS_TTL"`
	LogEnv      string        `envconfig:"LOG_ENV"`
	LogBackend  string        `envconfig:"LOG_BACKEND"`
	LogLevel    string        `envconfig:"LOG_LEVEL"`
	UploadDir   string        `envconfig:"UPLOAD_DIR"`
	CORSOrigins []string      `envconfig:"CORS_ORIGINS"`
}

const EnvPrefix = "KCD"

// LoadConfig читает CONFIG_PATH (по умолчанию ./config/config.yaml),
// перед этим подхватывает .env, после: KCD_* из окружения.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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
	var o envOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	setIf(&c.HTTP.Addr, o.HTTPAddr)
	setIf(&c.GRPC.Addr, o.GRPCAddr)
	setIf(&c.Postgres.DSN, o.PostgresDSN)
	setIf(&c.Security.JWT.Alg, o.JWTAlg)
	setIf(&c.Security.JWT.Secret, o.JWTSecret)
	setIf(&c.Logging.Env, o.LogEnv)
	setIf(&c.Logging.Backend, o.LogBackend)
	setIf(&c.Logging.Level, o.LogLevel)
	setIf(&c.Storage.UploadDir, o.UploadDir)
	if o.AccessTTL > 0 {
		c.Security.JWT.AccessTTL = o.AccessTTL
	}
	if len(o.CORSOrigins) > 0 {
		c.HTTP.CORSOrigins = o.CORSOrigins
	}
	return nil
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if err := c.Postgres.Validate(); err != nil {
		return err
	}

	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "kcd-platform"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	c.HTTP.ReadTimeout = durationOr(c.HTTP.ReadTimeout, 15*time.Second)
	c.HTTP.WriteTimeout = durationOr(c.HTTP.WriteTimeout, 30*time.Second)
	c.HTTP.RequestTimeout = durationOr(c.HTTP.RequestTimeout, 60*time.Second)
	c.HTTP.ShutdownTimeout = durationOr(c.HTTP.ShutdownTimeout, 10*time.Second)
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Postgres.ApplicationName == "" {
		c.Postgres.ApplicationName = c.Logging.Service
	}

	if c.Security.Password.MinLength == 0 {
		c.Security.Password.MinLength = 6
	}
	if c.Security.JWT.Alg == "" {
		c.Security.JWT.Alg = "HS256"
	}
	c.Security.JWT.AccessTTL = durationOr(c.Security.JWT.AccessTTL, 30*time.Minute)
	if err := c.Security.Password.Validate(); err != nil {
		return err
	}
	if err := c.Security.JWT.Validate(); err != nil {
		return err
	}

	if c.Chat.HistoryLimit <= 0 || c.Chat.HistoryLimit > 200 {
		c.Chat.HistoryLimit = 200
	}
	c.Chat.PingEvery = durationOr(c.Chat.PingEvery, 15*time.Second)
	c.Chat.WriteWait = durationOr(c.Chat.WriteWait, 5*time.Second)
	if c.Chat.SendBuffer <= 0 {
		c.Chat.SendBuffer = 256
	}
	if c.Chat.ReadLimit <= 0 {
		c.Chat.ReadLimit = 1 << 20
	}
	if c.Chat.FrameRate < 0 {
		return errors.New("chat.frameRate must be >= 0")
	}
	if c.Chat.FrameRate > 0 && c.Chat.FrameBurst <= 0 {
		c.Chat.FrameBurst = int(c.Chat.FrameRate) + 1
	}

	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "./uploads"
	}
	if c.Storage.MaxUploadBytes <= 0 {
		c.Storage.MaxUploadBytes = 50 << 20
	}
	if c.Storage.PublicPrefix == "" {
		c.Storage.PublicPrefix = "/uploads"
	}
	c.Storage.PublicPrefix = "/" + strings.Trim(c.Storage.PublicPrefix, "/")

	return nil
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
