package source

import (
	"github.com/badno/catimport/internal/config"
)

// NewDefaultRegistry registers the file, HTTP and S3 loaders
func NewDefaultRegistry(cfg *config.Config) *Registry {
	r := NewRegistry()

	// Names and schemes are distinct, so registration cannot fail
	_ = r.Register(NewFileLoader())
	_ = r.Register(NewHTTPLoader(HTTPConfig{
		Timeout:    cfg.Catalog.Timeout(),
		MaxRetries: cfg.Catalog.MaxRetries,
		RetryWait:  cfg.Catalog.RetryWait(),
	}))
	_ = r.Register(NewS3Loader(S3Config{
		Region:   cfg.Sources.S3.Region,
		Endpoint: cfg.Sources.S3.Endpoint,
	}))

	return r
}
