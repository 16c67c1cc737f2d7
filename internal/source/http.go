package source

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// HTTPConfig holds HTTP loader settings
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// HTTPLoader downloads exports over HTTP(S)
type HTTPLoader struct {
	*BaseLoader
	client *resty.Client
}

// NewHTTPLoader creates a new HTTP loader
func NewHTTPLoader(cfg HTTPConfig) *HTTPLoader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetHeader("User-Agent", "catimport/1.0")

	return &HTTPLoader{
		BaseLoader: NewBaseLoader("http", SchemeHTTP, SchemeHTTPS),
		client:     client,
	}
}

// Load downloads uri
func (l *HTTPLoader) Load(ctx context.Context, uri string) (*Input, error) {
	resp, err := l.client.R().SetContext(ctx).Get(uri)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status())
	}

	data := resp.Bytes()
	log.WithFields(log.Fields{"uri": uri, "bytes": len(data)}).Debug("Downloaded export")

	return &Input{URI: uri, Name: baseName(uri), Data: data}, nil
}

// Close releases idle connections
func (l *HTTPLoader) Close() error {
	return l.client.Close()
}
