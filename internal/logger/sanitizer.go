package logger

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSensitiveFields are the column names whose statements have their
// parameters masked when no explicit list is configured.
var DefaultSensitiveFields = []string{
	"password", "passwd", "pwd",
	"token", "api_key", "apikey", "api_token",
	"secret", "auth", "authorization",
	"credit_card", "card_number", "cvv", "cvc",
	"ssn", "private_key",
}

// MaskValue replaces masked parameters.
const MaskValue = "***REDACTED***"

// Sanitizer masks the parameters of statements that touch sensitive columns.
// Parameters are positional, so once a sensitive column appears in the SQL
// text every parameter of that statement is masked.
type Sanitizer struct {
	pattern *regexp.Regexp
}

// NewSanitizer creates a sanitizer for the given column names, or for
// DefaultSensitiveFields when fields is empty.
func NewSanitizer(fields []string) *Sanitizer {
	if len(fields) == 0 {
		fields = DefaultSensitiveFields
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return &Sanitizer{
		pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`),
	}
}

// IsSensitive reports whether the SQL text references a sensitive column.
func (s *Sanitizer) IsSensitive(sql string) bool {
	return s.pattern.MatchString(sql)
}

// MaskParams returns params unchanged, or a masked copy when the statement is
// sensitive. The input slice is never modified.
func (s *Sanitizer) MaskParams(sql string, params []any) []any {
	if len(params) == 0 || !s.IsSensitive(sql) {
		return params
	}
	masked := make([]any, len(params))
	for i := range masked {
		masked[i] = MaskValue
	}
	return masked
}

// FormatParams renders parameters for a log line, truncating long values.
func (s *Sanitizer) FormatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Format masks then formats params in one step.
func (s *Sanitizer) Format(sql string, params []any) string {
	return s.FormatParams(s.MaskParams(sql, params))
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	str := fmt.Sprintf("%v", v)
	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
