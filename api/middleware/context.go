package middleware

import (
	"context"

	"github.com/angelmondragon/storefront/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxLanguage contextKey = "language"
	ctxClaimLng contextKey = "claim_language"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// LanguageFromContext returns the negotiated display language, or "" before Language ran.
func LanguageFromContext(ctx context.Context) enums.Language {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxLanguage).(enums.Language); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithLanguage injects the display language into the context.
func WithLanguage(ctx context.Context, lang enums.Language) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLanguage, lang)
}

func claimLanguage(ctx context.Context) enums.Language {
	if v, ok := ctx.Value(ctxClaimLng).(enums.Language); ok {
		return v
	}
	return ""
}
