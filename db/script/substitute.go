package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gear6io/airbus/pkg/errors"
)

// Context maps placeholder names to substitution values
type Context map[string]any

// {{ and }} are literal braces, {name} is a placeholder
var placeholderRegex = regexp.MustCompile(`\{\{|\}\}|\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Escape rewrites every "${" to "{" so shell-style placeholders become {name}
func Escape(text string) string {
	return strings.ReplaceAll(text, "${", "{")
}

// Substitute fills {name} placeholders from ctx.
// Placeholders without a value are left in place and returned as missing.
func Substitute(sql string, ctx Context) (string, []string) {
	var missing []string

	out := placeholderRegex.ReplaceAllStringFunc(sql, func(match string) string {
		switch match {
		case "{{":
			return "{"
		case "}}":
			return "}"
		}

		name := match[1 : len(match)-1]
		value, ok := ctx[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return formatValue(value)
	})

	return out, missing
}

// FormatSQL prepares a single statement: escape and substitute, only when ctx is non-empty
func FormatSQL(sql string, ctx Context) string {
	if len(ctx) == 0 {
		return sql
	}
	out, _ := Substitute(Escape(sql), ctx)
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// ParseAssignments turns ["k=v", ...] into a Context
func ParseAssignments(pairs []string) (Context, error) {
	ctx := make(Context, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf(ErrAssignmentInvalid, "invalid assignment %q: expected key=value", pair)
		}
		ctx[key] = value
	}
	return ctx, nil
}

// Merge returns a new context with the entries of each context applied in order
func Merge(contexts ...Context) Context {
	out := make(Context)
	for _, c := range contexts {
		for k, v := range c {
			out[k] = v
		}
	}
	return out
}
