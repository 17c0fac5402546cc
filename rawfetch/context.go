package rawfetch

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const ctxKeyChainID ctxKey = iota

// WithChainID returns a new context carrying a chain ID. Fetch uses it
// instead of generating one, so callers can correlate logs.
func WithChainID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyChainID, id)
}

// ChainIDFrom extracts the chain ID from ctx.
func ChainIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyChainID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func chainID(ctx context.Context) string {
	if id, ok := ChainIDFrom(ctx); ok {
		return id
	}
	return uuid.NewString()
}
