package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var truthy = map[string]bool{"1": true, "true": true, "t": true, "yes": true, "y": true, "on": true}

// CoerceBoolean follows the client SDK rule: a fixed set of truthy spellings, everything else false.
func CoerceBoolean(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// CoerceNumber parses s as a float; anything unparsable (or NaN) is 0.
func CoerceNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

// CheckJSON reports whether s is a single well-formed JSON document.
func CheckJSON(s string) error {
	var v any
	return json.Unmarshal([]byte(s), &v)
}
