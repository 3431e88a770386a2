package consumer

import (
	"encoding/json"
	"strings"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// Source says where a Value came from.
type Source int

const (
	// SourceStatic is the fallback for keys neither fetched nor defaulted.
	SourceStatic Source = iota
	// SourceDefault marks an in-app default.
	SourceDefault
	// SourceRemote marks an activated remote value.
	SourceRemote
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceRemote:
		return "remote"
	default:
		return "static"
	}
}

// Value is a raw parameter string with typed accessors.
type Value struct {
	raw    string
	source Source
}

func newValue(raw string, src Source) Value { return Value{raw: raw, source: src} }

func (v Value) Source() Source { return v.source }

func (v Value) AsString() string { return v.raw }

// AsNumber returns 0 when the value does not parse.
func (v Value) AsNumber() float64 { return model.CoerceNumber(v.raw) }

// AsBoolean is true only for 1, true, t, yes, y and on (any case).
func (v Value) AsBoolean() bool { return model.CoerceBoolean(v.raw) }

// AsJSON decodes the value. An empty value decodes to nil.
func (v Value) AsJSON() (any, error) {
	if strings.TrimSpace(v.raw) == "" {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(v.raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// As coerces the value to vt. JSON decode failures yield nil and the error.
func (v Value) As(vt model.ValueType) (any, error) {
	switch vt {
	case model.ValueTypeNumber:
		return v.AsNumber(), nil
	case model.ValueTypeBoolean:
		return v.AsBoolean(), nil
	case model.ValueTypeJSON:
		return v.AsJSON()
	case model.ValueTypeString:
		return v.AsString(), nil
	default:
		return v.AsString(), nil
	}
}

// ZeroValue is what a binding holds for an absent key.
func ZeroValue(vt model.ValueType) any {
	switch vt {
	case model.ValueTypeNumber:
		return float64(0)
	case model.ValueTypeBoolean:
		return false
	case model.ValueTypeJSON:
		return nil
	default:
		return ""
	}
}
