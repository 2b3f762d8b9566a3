// Package storage persists extracted lead records.
package storage

import (
	"context"

	"github.com/quarrylabs/leadharvest/internal/extract"
)

// Sink consumes lead records. Save stages one record; Flush commits
// everything staged since the last flush as one batch.
type Sink interface {
	Save(ctx context.Context, lead extract.LeadRecord) error
	Flush(ctx context.Context) error
	Close()
}
