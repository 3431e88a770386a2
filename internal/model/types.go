package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueType is the closed set of parameter value types understood by Remote Config.
type ValueType int

const (
	ValueTypeString ValueType = iota
	ValueTypeNumber
	ValueTypeBoolean
	ValueTypeJSON
)

// ValueTypes lists every ValueType in display order.
var ValueTypes = []ValueType{ValueTypeString, ValueTypeNumber, ValueTypeBoolean, ValueTypeJSON}

// ParseValueType accepts the tag in any case. An empty tag means STRING.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "STRING":
		return ValueTypeString, nil
	case "NUMBER":
		return ValueTypeNumber, nil
	case "BOOLEAN":
		return ValueTypeBoolean, nil
	case "JSON":
		return ValueTypeJSON, nil
	default:
		return ValueTypeString, fmt.Errorf("%w: unknown value type %q", ErrValidation, s)
	}
}

// String returns the upper-case vendor tag.
func (t ValueType) String() string {
	switch t {
	case ValueTypeString:
		return "STRING"
	case ValueTypeNumber:
		return "NUMBER"
	case ValueTypeBoolean:
		return "BOOLEAN"
	case ValueTypeJSON:
		return "JSON"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Lower returns the lower-case tag used by the admin form rows.
func (t ValueType) Lower() string { return strings.ToLower(t.String()) }

func (t ValueType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ValueType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	// The vendor reports PARAMETER_VALUE_TYPE_UNSPECIFIED for parameters created
	// before value types existed; those behave as strings.
	if strings.EqualFold(s, "PARAMETER_VALUE_TYPE_UNSPECIFIED") {
		*t = ValueTypeString
		return nil
	}
	v, err := ParseValueType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// VersionNumber is the template revision. The vendor encodes it as a decimal string.
type VersionNumber int64

func (v VersionNumber) String() string { return strconv.FormatInt(int64(v), 10) }

func (v VersionNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *VersionNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*v = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version number %q: %w", string(b), err)
	}
	*v = VersionNumber(n)
	return nil
}

// Revision is a VersionNumber as the relay exposes it: a plain JSON number.
// It decodes from either a number or a decimal string.
type Revision VersionNumber

func (r Revision) String() string { return VersionNumber(r).String() }

func (r Revision) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(r), 10), nil
}

func (r *Revision) UnmarshalJSON(b []byte) error {
	var v VersionNumber
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	*r = Revision(v)
	return nil
}

// DefaultValue is either a literal value or a marker deferring to the in-app default.
type DefaultValue struct {
	Value           string `json:"value"`
	UseInAppDefault bool   `json:"useInAppDefault,omitempty"`
}

// MarshalJSON emits exactly one of the two forms; the vendor treats them as a oneof.
func (d DefaultValue) MarshalJSON() ([]byte, error) {
	if d.UseInAppDefault {
		return []byte(`{"useInAppDefault":true}`), nil
	}
	return json.Marshal(struct {
		Value string `json:"value"`
	}{d.Value})
}

// Parameter is a single named entry of a template.
type Parameter struct {
	DefaultValue      *DefaultValue   `json:"defaultValue,omitempty"`
	ConditionalValues json.RawMessage `json:"conditionalValues,omitempty"`
	Description       string          `json:"description,omitempty"`
	ValueType         ValueType       `json:"valueType"`
}

// Literal returns the default value text, or "" when the parameter defers to the in-app default.
func (p Parameter) Literal() string {
	if p.DefaultValue == nil {
		return ""
	}
	return p.DefaultValue.Value
}

// User identifies who published a version.
type User struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Version is the metadata the vendor attaches to each published template.
type Version struct {
	VersionNumber  VersionNumber `json:"versionNumber,omitempty"`
	UpdateTime     *time.Time    `json:"updateTime,omitempty"`
	UpdateUser     *User         `json:"updateUser,omitempty"`
	UpdateOrigin   string        `json:"updateOrigin,omitempty"`
	UpdateType     string        `json:"updateType,omitempty"`
	Description    string        `json:"description,omitempty"`
	RollbackSource VersionNumber `json:"rollbackSource,omitempty"`
}

// Template is the full versioned parameter set. Conditions and parameter groups are
// carried through untouched so a republish never drops them.
type Template struct {
	Parameters      map[string]Parameter `json:"parameters"`
	Conditions      json.RawMessage      `json:"conditions,omitempty"`
	ParameterGroups json.RawMessage      `json:"parameterGroups,omitempty"`
	Version         *Version             `json:"version,omitempty"`

	// ETag travels in HTTP headers, never in the body.
	ETag string `json:"-"`
}

// VersionNumber returns the template revision, 0 when the template was never published.
func (t *Template) VersionNumber() VersionNumber {
	if t == nil || t.Version == nil {
		return 0
	}
	return t.Version.VersionNumber
}

// Clone returns a deep copy.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := &Template{
		Parameters:      make(map[string]Parameter, len(t.Parameters)),
		Conditions:      cloneRaw(t.Conditions),
		ParameterGroups: cloneRaw(t.ParameterGroups),
		ETag:            t.ETag,
	}
	for k, p := range t.Parameters {
		if p.DefaultValue != nil {
			dv := *p.DefaultValue
			p.DefaultValue = &dv
		}
		p.ConditionalValues = cloneRaw(p.ConditionalValues)
		out.Parameters[k] = p
	}
	if t.Version != nil {
		v := *t.Version
		if v.UpdateTime != nil {
			ts := *v.UpdateTime
			v.UpdateTime = &ts
		}
		if v.UpdateUser != nil {
			u := *v.UpdateUser
			v.UpdateUser = &u
		}
		out.Version = &v
	}
	return out
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	return append(json.RawMessage(nil), r...)
}

// ConfigEntry is one row of an update request.
type ConfigEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	ValueType string `json:"valueType"`

	// HasValue is false when the request omitted value or sent null.
	HasValue bool `json:"-"`
}

// Validate checks the entry in isolation and returns its parsed type.
func (e ConfigEntry) Validate(index int) (ValueType, error) {
	if e.Key == "" {
		return ValueTypeString, &EntryError{Index: index, Key: e.Key, Err: fmt.Errorf("%w: key is required", ErrValidation)}
	}
	if !e.HasValue {
		return ValueTypeString, &EntryError{Index: index, Key: e.Key, Err: fmt.Errorf("%w: value is required", ErrValidation)}
	}
	vt, err := ParseValueType(e.ValueType)
	if err != nil {
		return vt, &EntryError{Index: index, Key: e.Key, Err: err}
	}
	if vt == ValueTypeJSON {
		if err := CheckJSON(e.Value); err != nil {
			return vt, &EntryError{Index: index, Key: e.Key, Err: fmt.Errorf("%w: invalid JSON value: %v", ErrValidation, err)}
		}
	}
	return vt, nil
}

// Parameter converts the entry into a vendor parameter. Call Validate first.
func (e ConfigEntry) Parameter(vt ValueType) Parameter {
	return Parameter{
		DefaultValue: &DefaultValue{Value: e.Value},
		ValueType:    vt,
	}
}
