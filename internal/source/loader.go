package source

import (
	"context"
	"path"
	"strings"
)

// Scheme names used to route input URIs to loaders
const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Input is a raw catalog export fetched from somewhere
type Input struct {
	URI  string
	Name string // base file name, used to pick the decoder
	Data []byte
}

// Size returns the input size in bytes
func (in *Input) Size() int {
	return len(in.Data)
}

// Rows decodes the input into a row grid
func (in *Input) Rows() ([][]string, error) {
	return Decode(in.Name, in.Data)
}

// Loader fetches raw inputs for one or more URI schemes
type Loader interface {
	// Name returns the loader's unique identifier
	Name() string

	// Schemes returns the URI schemes this loader handles
	Schemes() []string

	// Load fetches the input at uri
	Load(ctx context.Context, uri string) (*Input, error)

	// Close cleans up any resources
	Close() error
}

// BaseLoader provides common functionality for loaders
type BaseLoader struct {
	name    string
	schemes []string
}

// NewBaseLoader creates a new base loader with common fields
func NewBaseLoader(name string, schemes ...string) *BaseLoader {
	return &BaseLoader{
		name:    name,
		schemes: schemes,
	}
}

func (b *BaseLoader) Name() string {
	return b.name
}

func (b *BaseLoader) Schemes() []string {
	return b.schemes
}

func (b *BaseLoader) Close() error {
	return nil
}

// SchemeOf returns the lowercased scheme of uri; plain paths are files
func SchemeOf(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return SchemeFile
	}
	return strings.ToLower(uri[:i])
}

// baseName returns the last path element of a URI without query or fragment
func baseName(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	if i := strings.Index(uri, "://"); i >= 0 {
		uri = uri[i+3:]
	}
	return path.Base(strings.ReplaceAll(uri, "\\", "/"))
}
