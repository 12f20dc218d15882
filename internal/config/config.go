package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreSqlite   = "sqlite"
	StoreMongo    = "mongo"

	envPrefix = "COURIER"

	defaultAddr              = "localhost:5001"
	defaultStore             = StorePostgres
	defaultDSN               = "host=localhost user=postgres password=postgres dbname=campus_courier sslmode=disable"
	defaultMongoDatabase     = "campus_courier"
	defaultSigningKey        = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="
	defaultLogLevel          = "info"
	defaultNotificationLimit = 20
	defaultTokenTTL          = 30 * 24 * time.Hour
)

type Config struct {
	ServerAddr        string
	Store             string
	DatabaseDSN       string
	MongoDatabase     string
	SigningKey        []byte
	AllowedOrigins    []string
	LogLevel          string
	NotificationLimit int
	TokenTTL          time.Duration
}

// Options are the raw settings as read from flags, environment and config
// file, before validation.
type Options struct {
	Addr              string        `mapstructure:"addr"`
	Store             string        `mapstructure:"store"`
	DSN               string        `mapstructure:"dsn"`
	MongoDatabase     string        `mapstructure:"mongo-database"`
	SigningKey        string        `mapstructure:"signing-key"`
	AllowedOrigins    []string      `mapstructure:"allowed-origins"`
	LogLevel          string        `mapstructure:"log-level"`
	NotificationLimit int           `mapstructure:"notification-limit"`
	TokenTTL          time.Duration `mapstructure:"token-ttl"`
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, errors.New("empty secret")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(opts Options) (*Config, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if opts.SigningKey == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if !slices.Contains([]string{StorePostgres, StoreSqlite, StoreMongo}, opts.Store) {
		return nil, fmt.Errorf("unknown store %q", opts.Store)
	}
	if opts.Store == StoreMongo && opts.MongoDatabase == "" {
		return nil, fmt.Errorf("mongo database cannot be empty")
	}
	if opts.NotificationLimit <= 0 {
		return nil, fmt.Errorf("notification limit must be positive")
	}
	if opts.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}

	signingKey, err := decodeSigningSecret(opts.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	logLevel := opts.LogLevel
	if logLevel == "" {
		logLevel = defaultLogLevel
	}

	return &Config{
		ServerAddr:        opts.Addr,
		Store:             opts.Store,
		DatabaseDSN:       opts.DSN,
		MongoDatabase:     opts.MongoDatabase,
		SigningKey:        signingKey,
		AllowedOrigins:    opts.AllowedOrigins,
		LogLevel:          logLevel,
		NotificationLimit: opts.NotificationLimit,
		TokenTTL:          opts.TokenTTL,
	}, nil
}

// Load builds the configuration from command line arguments, COURIER_*
// environment variables and an optional YAML file named by --config, in
// that order of precedence.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("campus-courier", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	fs.String("addr", defaultAddr, "server address")
	fs.String("store", defaultStore, "storage backend: postgres, sqlite or mongo")
	fs.String("dsn", defaultDSN, "database connection string")
	fs.String("mongo-database", defaultMongoDatabase, "database name when store is mongo")
	fs.String("signing-key", defaultSigningKey, "base64 encoded signing key")
	fs.StringSlice("allowed-origins", nil, "comma-separated list of allowed origins for CORS")
	fs.String("log-level", defaultLogLevel, "log level: debug, info, warn or error")
	fs.Int("notification-limit", defaultNotificationLimit, "maximum notifications returned per listing")
	fs.Duration("token-ttl", defaultTokenTTL, "lifetime of issued session tokens")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", *configFile, err)
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return NewConfig(opts)
}
