package api

import (
	"time"

	"github.com/lysyi3m/rsxml/internal/dispatch"
	"github.com/lysyi3m/rsxml/internal/feed"
	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/rsxml"
)

type GeneratorInterface interface {
	Run(f *model.Feed) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type PoolInterface interface {
	rsxml.Executor
	Stats() dispatch.Stats
}

var _ PoolInterface = (*dispatch.Pool)(nil)

type Options struct {
	ParseTimeout time.Duration
	MaxBodyBytes int64
	ParseOptions []rsxml.Option
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Domain  string `json:"domain,omitempty"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

type parseResponse struct {
	Kind     string         `json:"kind"`
	Parser   string         `json:"parser"`
	Encoding string         `json:"encoding"`
	Document model.Document `json:"document"`
}

type detectResponse struct {
	Parser   string `json:"parser"`
	Kind     string `json:"kind"`
	Encoding string `json:"encoding"`
}
