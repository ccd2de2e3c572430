package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

// gte returns a ParamValidator that checks if the argument is greater than or equal to the value captured in the closure.
func gte(valToCompareAgainst int64) ParamValidator {
	return func(argValue int64) bool {
		return argValue >= valToCompareAgainst
	}
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return func(argValue int64) bool {
		return argValue > valToCompareAgainst
	}
}

// ParseOptionalGte parses an optional integer query parameter. Absent
// parameters fall back to def; present but invalid values produce a 400.
func ParseOptionalGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def, value int64) (int, bool) {
	return parseOptional(r, w, logger, key, def, gte(value))
}

// ParseOptionalGt parses an optional integer query parameter that must be
// strictly greater than value when present.
func ParseOptionalGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def, value int64) (int, bool) {
	return parseOptional(r, w, logger, key, def, gt(value))
}

func parseOptional(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int64, pValidator ParamValidator) (int, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return int(def), true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int(intValue), true
}
