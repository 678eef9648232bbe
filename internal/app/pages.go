package app

import (
	"context"
	"fmt"
)

const pageSize = 100

// collectPages fetches pages starting at 1 until one comes back short.
func collectPages[T any](ctx context.Context, perPage int, fetch func(ctx context.Context, page, perPage int) ([]T, error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		items, err := fetch(ctx, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, items...)
		if len(items) < perPage {
			return all, nil
		}
	}
}
