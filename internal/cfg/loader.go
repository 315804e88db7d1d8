package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port" validate:"required,numeric"`
	MaxBodyBytes int64  `long:"max-body-bytes" env:"MAX_BODY_BYTES" default:"10485760" description:"Largest accepted request body in bytes" validate:"gt=0"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key protecting the /feeds endpoints (optional)"`

	WorkerCount     int      `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of parse workers" validate:"min=1,max=256"`
	QueueSize       int      `long:"queue-size" env:"QUEUE_SIZE" default:"64" description:"Parse jobs that may wait for a worker" validate:"min=0"`
	ParseTimeout    int      `long:"parse-timeout" env:"PARSE_TIMEOUT" default:"30" description:"Parse timeout in seconds" validate:"min=1"`
	MinimumLength   int      `long:"min-length" env:"MIN_LENGTH" default:"10" description:"Shortest document worth parsing, in bytes" validate:"min=1"`
	ProviderMarkers []string `long:"provider-marker" env:"PROVIDER_MARKERS" env-delim:"," description:"Extra text identifying provider error documents (repeatable)"`

	DBPath string `long:"db-path" env:"DB_PATH" description:"SQLite database file for parsed articles (optional)"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load reads .env (when present), environment variables and command line
// flags, in increasing order of precedence. It returns nil, nil when help
// was requested.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := load(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Cfg{
		Port:            raw.Port,
		MaxBodyBytes:    raw.MaxBodyBytes,
		APIAccessKey:    raw.APIAccessKey,
		WorkerCount:     raw.WorkerCount,
		QueueSize:       raw.QueueSize,
		ParseTimeout:    time.Duration(raw.ParseTimeout) * time.Second,
		MinimumLength:   raw.MinimumLength,
		ProviderMarkers: raw.ProviderMarkers,
		DBPath:          raw.DBPath,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
