// Package fileprovider reads share content from the local filesystem.
package fileprovider

import (
	"context"
	"fmt"
	"os"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Local implements the interface.
var _ driven.FileContentProvider = (*Local)(nil)

// Local resolves files beneath their share's root path on the local disk.
type Local struct{}

// New creates a local file content provider.
func New() *Local {
	return &Local{}
}

// Read returns the file's full content. A file deleted between discovery
// and extraction maps to domain.ErrNotFound so the job fails cleanly.
func (l *Local) Read(_ context.Context, share *domain.Share, file *domain.File) ([]byte, error) {
	path := file.PathUnder(share)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return content, nil
}
