package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldJudge is the structured log field key for the judge identifier.
	FieldJudge = "judge_id"
	// FieldProvider is the structured log field key for the provider name.
	FieldProvider = "provider"
	// FieldModel is the structured log field key for the model identifier.
	FieldModel = "model"
	// FieldRun is the structured log field key for the evaluation run id.
	FieldRun = "run_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// JudgeFields builds the standard structured fields for one judge.
func JudgeFields(judgeID, provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldJudge, Value: judgeID},
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithFields returns a logger enriched with the provided fields, falling back
// to a no-op logger when nil is given.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// WithJudgeFields returns a logger enriched with the standard judge fields.
func WithJudgeFields(logger *zap.Logger, judgeID, provider, model string) *zap.Logger {
	return WithFields(logger, JudgeFields(judgeID, provider, model)...)
}
