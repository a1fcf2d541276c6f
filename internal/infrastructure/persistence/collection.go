package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/infrastructure/store"
)

// maxSaveAttempts bounds how often an update is re-applied when another
// writer saved the same collection in between.
const maxSaveAttempts = 5

// collection is a typed view over one store collection
type collection[T any] struct {
	store store.CollectionStore
	key   string
}

func newCollection[T any](s store.CollectionStore, key string) collection[T] {
	return collection[T]{store: s, key: key}
}

// load decodes every record of the collection
func (c collection[T]) load(ctx context.Context) ([]T, int64, error) {
	coll, err := c.store.Load(ctx, c.key)
	if err != nil {
		return nil, 0, err
	}

	records := make([]T, 0, len(coll.Records))
	for i, raw := range coll.Records {
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, 0, fmt.Errorf("decode %s record %d: %w", c.key, i, err)
		}
		records = append(records, record)
	}
	return records, coll.Version, nil
}

// all is load without the version
func (c collection[T]) all(ctx context.Context) ([]T, error) {
	records, _, err := c.load(ctx)
	return records, err
}

// update applies fn to the latest records and saves the result. When the
// collection changed between load and save, fn runs again on fresh records;
// errors returned by fn itself are never retried.
func (c collection[T]) update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	var err error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		records, version, loadErr := c.load(ctx)
		if loadErr != nil {
			return loadErr
		}

		next, fnErr := fn(records)
		if fnErr != nil {
			return fnErr
		}

		raw := make([]json.RawMessage, 0, len(next))
		for _, record := range next {
			b, marshalErr := json.Marshal(record)
			if marshalErr != nil {
				return fmt.Errorf("encode %s record: %w", c.key, marshalErr)
			}
			raw = append(raw, b)
		}

		err = c.store.Save(ctx, c.key, raw, version)
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}
