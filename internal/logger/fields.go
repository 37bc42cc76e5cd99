package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys shared by the matching components.
const (
	FieldSpecialization = "specialization"
	FieldIndustry       = "industry"
	FieldOutlet         = "outlet"
	FieldFocus          = "focus"
	FieldScore          = "score"
	FieldBackend        = "semantic_backend"
	FieldModel          = "semantic_model"
)

// Pairs turns alternating keys and values into string fields. Pairs with a
// blank key or value are dropped, as is a trailing key without a value.
func Pairs(kv ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := strings.TrimSpace(kv[i]), strings.TrimSpace(kv[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// MatchFields describes one matching request.
func MatchFields(specialization, industry string) []zap.Field {
	return Pairs(FieldSpecialization, specialization, FieldIndustry, industry)
}

func WithMatchFields(logger *zap.Logger, specialization, industry string) *zap.Logger {
	return WithFields(logger, MatchFields(specialization, industry)...)
}

// ScoreFields describes a scored outlet. The focus is omitted when unknown.
func ScoreFields(outlet, focus string, score float64) []zap.Field {
	return append(Pairs(FieldOutlet, outlet, FieldFocus, focus), zap.Float64(FieldScore, score))
}

func SemanticFields(backend, model string) []zap.Field {
	return Pairs(FieldBackend, backend, FieldModel, model)
}
