// Package security validates the raw SQL fragments a caller places in a
// condition set (join, group by, having, order by, custom predicates) and
// screens bound string parameters for injection attempts in strict mode.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnsafeFragment is returned when a raw fragment matches a dangerous pattern.
	ErrUnsafeFragment = errors.New("unsafe SQL fragment")
	// ErrUnsafeParam is returned when a bound string carries injection markers.
	ErrUnsafeParam = errors.New("suspicious parameter value")
)

// Validator checks fragments against dangerous patterns.
type Validator struct {
	patterns []*regexp.Regexp
	strict   bool
}

// ValidatorOption configures the Validator.
type ValidatorOption func(*Validator)

// WithStrict enables strict validation mode, which also rejects statement
// keywords that never belong inside a predicate or join fragment.
func WithStrict(strict bool) ValidatorOption {
	return func(v *Validator) {
		v.strict = strict
	}
}

// NewValidator creates a validator with the default dangerous patterns.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		patterns: compilePatterns(dangerousPatterns),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.strict {
		v.patterns = append(v.patterns, compilePatterns(strictPatterns)...)
	}
	return v
}

// Strict reports whether strict mode is enabled.
func (v *Validator) Strict() bool { return v.strict }

// dangerousPatterns never appear in a legitimate fragment.
var dangerousPatterns = []string{
	// comments used to cut the rest of the statement
	`--`,
	`/\*`,
	`#\s`,

	// stacked statements
	`;`,

	// UNION-based exfiltration
	`\bUNION\s+(ALL\s+)?SELECT\b`,

	// timing and command execution functions
	`\bPG_SLEEP\s*\(`,
	`\bSLEEP\s*\(`,
	`\bBENCHMARK\s*\(`,
	`\bWAITFOR\s+DELAY\b`,
	`\bXP_CMDSHELL\b`,
	`\bEXEC(UTE)?\s*\(`,

	// metadata access
	`\bINFORMATION_SCHEMA\b`,

	// tautologies
	`\bOR\s+1\s*=\s*1\b`,
	`\bOR\s+'1'\s*=\s*'1'`,
}

// strictPatterns reject statement keywords inside fragments.
var strictPatterns = []string{
	`\b(DROP|DELETE|TRUNCATE|ALTER|CREATE|INSERT|UPDATE|GRANT)\b`,
	`\bUNION\b`,
	`'`,
}

// ValidateFragment checks a single raw fragment.
func (v *Validator) ValidateFragment(fragment string) error {
	if fragment == "" {
		return nil
	}
	normalized := strings.ToUpper(fragment)
	for _, pattern := range v.patterns {
		if pattern.MatchString(normalized) {
			return fmt.Errorf("%w: %q", ErrUnsafeFragment, fragment)
		}
	}
	return nil
}

// ValidateFragments checks every fragment and returns the first failure.
func (v *Validator) ValidateFragments(fragments []string) error {
	for _, f := range fragments {
		if err := v.ValidateFragment(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateParams checks string parameters for injection attempts that
// suggest the caller concatenated input somewhere upstream.
func (v *Validator) ValidateParams(params []any) error {
	for i, param := range params {
		str, ok := param.(string)
		if !ok {
			continue
		}
		if containsSQLInjection(str) {
			return fmt.Errorf("%w at index %d", ErrUnsafeParam, i)
		}
	}
	return nil
}

func containsSQLInjection(value string) bool {
	indicators := []string{
		"'--",
		"';",
		"' OR ",
		"' AND ",
		"/*",
		"*/",
		"' UNION ",
		"' DROP ",
	}

	upper := strings.ToUpper(value)
	for _, indicator := range indicators {
		if strings.Contains(upper, indicator) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
