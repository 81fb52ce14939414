package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/bookstore-storefront/pkg/circuit_breaker"
	"github.com/Astemirdum/bookstore-storefront/pkg/kafka"
	"github.com/Astemirdum/bookstore-storefront/pkg/logger"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"STOREFRONT_HTTP_HOST" default:"localhost"`
	Port         string        `yaml:"port" envconfig:"STOREFRONT_HTTP_PORT" default:"8090"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE" default:"30s"`
}

type API struct {
	BaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8080/api/v1"`
	Timeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite3"
	DriverPgx    = "pgx"
)

type Session struct {
	Driver string `envconfig:"SESSION_DRIVER" default:"file"`
	// Path is the JSON file for the file driver and the database file for sqlite3.
	Path string `envconfig:"SESSION_PATH" default:"auth-info.json"`
	DSN  string `envconfig:"SESSION_DSN"`
}

type Cache struct {
	StaleTime time.Duration `envconfig:"CACHE_STALE_TIME" default:"1m"`
	GCTime    time.Duration `envconfig:"CACHE_GC_TIME" default:"1m"`
	Retry     int           `envconfig:"CACHE_RETRY" default:"1"`
	SweepSpec string        `envconfig:"CACHE_SWEEP_SPEC" default:"@every 30s"`
}

type Events struct {
	Kafka kafka.Config
	WSURL string `envconfig:"EVENTS_WS_URL"`
}

type Config struct {
	Server  HTTPServer `yaml:"server"`
	API     API
	Session Session
	Cache   Cache
	Breaker circuit_breaker.Config
	Events  Events
	Log     logger.Log `yaml:"log"`

	quiet bool
}

type Option func(*Config)

func WithAPIBaseURL(url string) Option {
	return func(c *Config) {
		c.API.BaseURL = url
	}
}

func WithSessionPath(path string) Option {
	return func(c *Config) {
		c.Session.Path = path
	}
}

// Quiet suppresses printing the resolved config; the CLI uses it.
func Quiet() Option {
	return func(c *Config) {
		c.quiet = true
	}
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment. Options run after the
// environment so that explicit flags win.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		config, err := Load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		if !cfg.quiet {
			printConfig(cfg)
		}
	})

	return cfg
}

// Load is NewConfig without the process-wide memoization.
func Load(ops ...Option) (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	for _, op := range ops {
		op(&config)
	}
	return config, nil
}

func printConfig(cfg Config) {
	fmt.Println(cfg.String())
}

// String renders the config as indented JSON with credentials masked.
func (c Config) String() string {
	c.Session.DSN = redactDSN(c.Session.DSN)
	jscfg, _ := json.MarshalIndent(c, "", "	") //nolint:errcheck
	return string(jscfg)
}

// redactDSN hides the password of a URL DSN and the whole of any other
// non-empty DSN.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Redacted()
	}
	return "xxxxx"
}
