package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/trackify/internal/server/config"
)

// Factory picks the storage backend. Tests set Override to inject a
// prepared manager regardless of configuration.
type Factory struct {
	Override RepositoryManager
}

func (f *Factory) Open(ctx context.Context, backend, dsn string) (RepositoryManager, error) {
	if f != nil && f.Override != nil {
		return f.Override, nil
	}

	switch backend {
	case config.StorageBackendPostgres:
		return OpenPostgres(ctx, dsn)
	case config.StorageBackendMemory:
		return NewInMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
