package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys shared by every component, so log queries can join a match
// across the feed, the cache and the AI calls.
const (
	FieldSeeker   = "seeker_id"
	FieldListing  = "listing_id"
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
)

// Pairs turns alternating keys and values into string fields. Pairs with a
// blank key or value are skipped, as is a trailing key without a value.
func Pairs(kv ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := strings.TrimSpace(kv[i]), strings.TrimSpace(kv[i+1])
		if key != "" && value != "" {
			fields = append(fields, zap.String(key, value))
		}
	}
	return fields
}

// ForMatch scopes l to one seeker and one listing. Unknown ids are left out.
func ForMatch(l *zap.Logger, seekerID, listingID string) *zap.Logger {
	return with(l, Pairs(FieldSeeker, seekerID, FieldListing, listingID))
}

// WithAI scopes l to an AI provider and model.
func WithAI(l *zap.Logger, provider, model string) *zap.Logger {
	return with(l, Pairs(FieldProvider, provider, FieldModel, model))
}

func with(l *zap.Logger, fields []zap.Field) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
