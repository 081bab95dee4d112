package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

// MultiLoader writes each batch to every loader in order and stops at the
// first failure. A retried batch is written again to all loaders, so
// destinations must tolerate duplicates.
type MultiLoader []RecordLoader

// LoadBatch implements RecordLoader.
func (m MultiLoader) LoadBatch(ctx context.Context, records []domain.Record) error {
	for i, l := range m {
		if err := l.LoadBatch(ctx, records); err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
	}
	return nil
}
