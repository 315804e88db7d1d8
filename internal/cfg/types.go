package cfg

import "time"

type Cfg struct {
	// HTTP server
	Port         string
	MaxBodyBytes int64
	APIAccessKey string

	// Parsing
	WorkerCount     int
	QueueSize       int
	ParseTimeout    time.Duration
	MinimumLength   int
	ProviderMarkers []string

	// Storage; empty disables the article store
	DBPath string

	Debug   bool
	Version string
}
