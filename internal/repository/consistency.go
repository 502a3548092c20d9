package repository

import "context"

type primaryReadKey struct{}

// ReadPrimary marks ctx so that lookups use the write handle and observe
// writes made earlier with the same ctx. Backends with a single handle
// ignore the mark.
func ReadPrimary(ctx context.Context) context.Context {
	return context.WithValue(ctx, primaryReadKey{}, true)
}

func ReadsPrimary(ctx context.Context) bool {
	v, _ := ctx.Value(primaryReadKey{}).(bool)
	return v
}

// Reader picks the handle a lookup should use.
func Reader[T any](ctx context.Context, read, write T) T {
	if ReadsPrimary(ctx) {
		return write
	}
	return read
}
