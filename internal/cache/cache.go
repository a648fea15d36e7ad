// Package cache memoizes pipeline stages. A stage that has been stored once
// is trusted forever; nothing expires and nothing is invalidated.
package cache

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/fetcher"
)

// Backend stores encoded stage payloads by key.
type Backend interface {
	// Get returns the payload for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores payload under key, replacing any previous value.
	Put(ctx context.Context, key string, payload []byte) error
}

// FetchFunc produces the rows of a stage on a cache miss.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// LoadOrFetch returns the rows stored under key, or calls fetch, stores its
// rows under key and returns them. fetch is never called on a hit. Rows are
// encoded as comma-separated text with a header from T's csv tags.
func LoadOrFetch[T any](ctx context.Context, b Backend, key string, fetch FetchFunc[T]) ([]T, error) {
	log := zap.L().With(zap.String("stage", key))

	payload, ok, err := b.Get(ctx, key)
	if err != nil {
		return nil, eris.Wrapf(err, "cache: get %s", key)
	}
	if ok {
		rows, err := fetcher.ReadDelimited[T](bytes.NewReader(payload), fetcher.CSVOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "cache: decode %s", key)
		}
		log.Debug("cache hit", zap.Int("rows", len(rows)))
		return rows, nil
	}

	log.Debug("cache miss, fetching")
	rows, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fetcher.WriteDelimited(&buf, rows, fetcher.CSVOptions{}); err != nil {
		return nil, eris.Wrapf(err, "cache: encode %s", key)
	}
	if err := b.Put(ctx, key, buf.Bytes()); err != nil {
		return nil, eris.Wrapf(err, "cache: put %s", key)
	}
	log.Debug("cache stored", zap.Int("rows", len(rows)))
	return rows, nil
}
