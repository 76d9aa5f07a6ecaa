package tenantctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// BusinessContextKey is the request context key for the authenticated business ID.
type BusinessContextKey struct{}

// WithBusinessID stores the business ID in the context.
func WithBusinessID(ctx context.Context, businessID int64) context.Context {
	return context.WithValue(ctx, BusinessContextKey{}, businessID)
}

// BusinessIDFromContext returns the business ID from context, if set.
func BusinessIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	value := ctx.Value(BusinessContextKey{})
	switch typed := value.(type) {
	case int64:
		return snowflake.ID(typed), true
	case snowflake.ID:
		return typed, true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
