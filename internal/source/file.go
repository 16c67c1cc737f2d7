package source

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileLoader reads exports from the local filesystem
type FileLoader struct {
	*BaseLoader
}

// NewFileLoader creates a new local file loader
func NewFileLoader() *FileLoader {
	return &FileLoader{BaseLoader: NewBaseLoader("file", SchemeFile)}
}

// Load reads a local path or file:// URI
func (l *FileLoader) Load(ctx context.Context, uri string) (*Input, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(uri, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &Input{URI: uri, Name: baseName(path), Data: data}, nil
}
