package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/meritup/internal/actorctx"
)

// HeaderUser carries the authenticated employee ID. Authentication itself
// lives at the gateway; this service trusts the header.
const HeaderUser = "X-User-ID"

// ActorContext resolves the acting employee from the request header and
// injects it into the request context. Requests without a valid actor still
// pass through; services reject the operations that need one.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUser))
		if raw != "" {
			if actorID, err := snowflake.ParseString(raw); err == nil && actorID != 0 {
				ctx := actorctx.WithUserID(c.Request.Context(), actorID)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}
