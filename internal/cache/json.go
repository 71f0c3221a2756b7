package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// GetJSON decodes the value stored at key into v.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	r, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close cache entry", "key", key, "error", err)
		}
	}()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func PutJSON(ctx context.Context, c Cache, key string, v any, opts PutOptions) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Put(ctx, key, string(b), opts)
}
