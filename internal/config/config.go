// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Duration is a time.Duration that reads "10s"-style strings from flags
// and JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	return d.Set(s)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Options holds the configuration values of both binaries.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`
	// DatabaseDSN switches the development server from in-memory users and
	// orders to PostgreSQL.
	DatabaseDSN string `json:"database_dsn"`
	// JWTSecret signs development server tokens.
	JWTSecret string `json:"jwt_secret"`
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL Duration `json:"token_ttl"`

	// BaseURL is the backend root the client talks to.
	BaseURL string `json:"base_url"`
	// StoreDriver selects the local store backend (memory, file, sqlite,
	// postgres, redis).
	StoreDriver string `json:"store_driver"`
	// StoreDSN is the store path or connection string.
	StoreDSN string `json:"store_dsn"`
	// StoreNamespace partitions shared store backends.
	StoreNamespace string `json:"store_namespace"`
	// SealKeyFile enables encryption of stored values.
	SealKeyFile string `json:"seal_key_file"`
	// Convention is how backend responses are judged ("code" or "status").
	Convention string `json:"convention"`
	// Timeout bounds a single HTTP request.
	Timeout Duration `json:"timeout"`
	// RateLimit caps client requests per second; 0 disables it.
	RateLimit float64 `json:"rate_limit"`
	// RateBurst is the client rate limiter burst.
	RateBurst int `json:"rate_burst"`
	// CAFile, CertFile and KeyFile configure TLS towards the backend.
	CAFile   string `json:"ca_file"`
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// options holds the current configuration values.
var options = Default()

// init initializes command-line flags and sets default values.
func init() {
	Register(flag.CommandLine, options)
}

// Default returns the built-in defaults.
func Default() *Options {
	return &Options{
		Port:        "localhost:8080",
		JWTSecret:   "gophmall-dev-secret",
		TokenTTL:    Duration{24 * time.Hour},
		BaseURL:     "http://localhost:8080",
		StoreDriver: "sqlite",
		Convention:  "code",
		Timeout:     Duration{10 * time.Second},
		RateBurst:   1,
		LogLevel:    "info",
		Config:      "config.json",
	}
}

// Register defines the flags of o on fs. Flag defaults are o's current
// values.
func Register(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address")
	fs.StringVar(&o.JWTSecret, "jwt-secret", o.JWTSecret, "secret used to sign tokens")
	fs.Var(&o.TokenTTL, "token-ttl", "lifetime of issued tokens")

	fs.StringVar(&o.BaseURL, "url", o.BaseURL, "backend base URL")
	fs.StringVar(&o.StoreDriver, "store", o.StoreDriver, "local store: memory | file | sqlite | postgres | redis")
	fs.StringVar(&o.StoreDSN, "store-dsn", o.StoreDSN, "local store path or connection string")
	fs.StringVar(&o.StoreNamespace, "store-ns", o.StoreNamespace, "local store namespace")
	fs.StringVar(&o.SealKeyFile, "seal-key", o.SealKeyFile, "file whose contents encrypt stored values")
	fs.StringVar(&o.Convention, "convention", o.Convention, "response convention: code | status")
	fs.Var(&o.Timeout, "timeout", "HTTP request timeout")
	fs.Float64Var(&o.RateLimit, "rps", o.RateLimit, "client request rate limit, 0 disables")
	fs.IntVar(&o.RateBurst, "burst", o.RateBurst, "client request burst")
	fs.StringVar(&o.CAFile, "ca", o.CAFile, "path to CA cert")
	fs.StringVar(&o.CertFile, "cert", o.CertFile, "path to client cert")
	fs.StringVar(&o.KeyFile, "key", o.KeyFile, "path to client key")

	fs.StringVar(&o.LogLevel, "l", o.LogLevel, "log level")
	fs.StringVar(&o.Config, "config", o.Config, "path to config file")
	fs.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	if err := Resolve(options, os.LookupEnv); err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}

// Resolve applies the config file and then environment overrides to o.
// Values set in the file replace flag values; environment wins over both.
func Resolve(o *Options, lookup func(string) (string, bool)) error {
	if configPath, ok := lookup("CONFIG"); ok && configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		data, err := os.ReadFile(o.Config)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("error while reading config file: %w", err)
		default:
			if err := json.Unmarshal(data, o); err != nil {
				return fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	return applyEnv(o, lookup)
}

func applyEnv(o *Options, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":      &o.Port,
		"DATABASE_DSN":        &o.DatabaseDSN,
		"JWT_SECRET":          &o.JWTSecret,
		"BASE_URL":            &o.BaseURL,
		"STORE_DRIVER":        &o.StoreDriver,
		"STORE_DSN":           &o.StoreDSN,
		"STORE_NAMESPACE":     &o.StoreNamespace,
		"SEAL_KEY_FILE":       &o.SealKeyFile,
		"RESPONSE_CONVENTION": &o.Convention,
		"CA_FILE":             &o.CAFile,
		"CERT_FILE":           &o.CertFile,
		"KEY_FILE":            &o.KeyFile,
		"LOG_LEVEL":           &o.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"HTTP_TIMEOUT": &o.Timeout,
		"TOKEN_TTL":    &o.TokenTTL,
	}
	for name, dst := range durations {
		if v, ok := lookup(name); ok && v != "" {
			if err := dst.Set(v); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT: %w", err)
		}
		o.RateLimit = rps
	}
	if v, ok := lookup("RATE_BURST"); ok && v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_BURST: %w", err)
		}
		o.RateBurst = burst
	}
	return nil
}
