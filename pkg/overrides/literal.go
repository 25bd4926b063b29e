package overrides

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrMissingValue = errors.New("missing value")
	ErrInvalidJSON  = errors.New("invalid json")
)

var numericLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// LiteralError is returned by ParseLiteral. Message is shown to the user as is.
type LiteralError struct {
	Message string
	kind    error
	cause   error
}

func (e *LiteralError) Error() string {
	return e.Message
}

func (e *LiteralError) Is(target error) bool {
	return target == e.kind
}

func (e *LiteralError) Unwrap() error {
	return e.cause
}

// ParseLiteral converts one raw text fragment into a Value. Rules are tried in
// order and the first match wins:
//
//  1. empty or blank: error "Missing value."
//  2. leading '{' or '[': JSON object/array, error "Invalid JSON: ..." on failure
//  3. exactly true, false or null
//  4. decimal number such as -12 or 3.5 that fits in a finite float64
//  5. text wrapped in "..." or '...': JSON string, or the bare inner text when
//     it is not valid JSON
//  6. anything else: the trimmed text as a string
func ParseLiteral(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Value{}, &LiteralError{Message: "Missing value.", kind: ErrMissingValue}
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var data any
		if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
			return Value{}, &LiteralError{Message: "Invalid JSON: " + err.Error(), kind: ErrInvalidJSON, cause: err}
		}
		v, err := FromAny(data)
		if err != nil {
			return Value{}, &LiteralError{Message: "Invalid JSON: " + err.Error(), kind: ErrInvalidJSON, cause: err}
		}
		return v, nil
	}

	switch trimmed {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null(), nil
	}

	if numericLiteral.MatchString(trimmed) {
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(n, 0) {
			return Number(n), nil
		}
	}

	if isQuoted(trimmed) {
		if gjson.Valid(trimmed) {
			return String(gjson.Parse(trimmed).String()), nil
		}
		if len(trimmed) < 2 {
			return String(""), nil
		}
		return String(trimmed[1 : len(trimmed)-1]), nil
	}

	return String(trimmed), nil
}

func isQuoted(s string) bool {
	return (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
		(strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'"))
}
