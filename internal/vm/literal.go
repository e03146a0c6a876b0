package vm

import (
	"errors"
	"strconv"
	"strings"
)

// ParseConst interprets the literal of a const statement: integer, then
// float, then text. Quotes around text are removed and every `\n` escape
// becomes a newline. Text is always a string value, quoted or not.
func ParseConst(lit string) Value {
	lit = strings.TrimSpace(lit)
	if v, ok := parseNumber(lit); ok {
		return v
	}
	if s, ok := unquote(lit); ok {
		lit = s
	}
	return StringValue(strings.ReplaceAll(lit, `\n`, "\n"))
}

// ParseLiteral interprets an operand that is not a local: integer, then
// float, then a quoted string; anything else stays a raw identifier.
func ParseLiteral(text string) Value {
	if v, ok := parseNumber(text); ok {
		return v
	}
	if s, ok := unquote(text); ok {
		return StringValue(s)
	}
	return IdentValue(text)
}

func parseNumber(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return IntValue(n), true
	}
	if errors.Is(err, strconv.ErrRange) {
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return UintValue(u), true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return FloatValue(f), true
	}
	return Value{}, false
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}
