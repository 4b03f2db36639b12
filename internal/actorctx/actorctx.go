// Package actorctx carries the authenticated user through request context.
// Authentication itself happens upstream; this service only consumes the
// resolved identity.
package actorctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey struct{}

// WithUserID stores the acting user id in the context.
func WithUserID(ctx context.Context, userID snowflake.ID) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the acting user id.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	userID, ok := ctx.Value(contextKey{}).(snowflake.ID)
	return userID, ok
}
