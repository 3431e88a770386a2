// Package form is the admin editing surface: an ordered list of parameter rows
// that can be loaded from, saved to and republished through the relay.
package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

var (
	// ErrBusy is returned when another load, submit or publish is still running.
	ErrBusy = errors.New("another form action is in progress")
	// ErrRowIndex is returned for an index outside the current rows.
	ErrRowIndex = errors.New("row index out of range")
)

// Relay is the subset of the relay SDK the form needs.
type Relay interface {
	GetTemplate(ctx context.Context) (*client.Template, error)
	UpdateConfigs(ctx context.Context, configs []client.ConfigEntry, etag string) (*client.MutationResult, error)
	PublishTemplate(ctx context.Context, etag string) (*client.MutationResult, error)
}

// Row is one editable entry. Nothing is validated until Validate or Submit.
type Row struct {
	Key       string `yaml:"key"`
	Value     string `yaml:"value"`
	ValueType string `yaml:"valueType"`
}

// Field names a Row column for Edit.
type Field int

const (
	FieldKey Field = iota
	FieldValue
	FieldType
)

// ParseField accepts key, value and type (or valueType).
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "key":
		return FieldKey, nil
	case "value":
		return FieldValue, nil
	case "type", "valuetype":
		return FieldType, nil
	default:
		return 0, fmt.Errorf("unknown field %q", s)
	}
}

// RowError reports a row that failed validation.
type RowError struct {
	Index int
	Key   string
	Err   error
}

func (e *RowError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("row %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("row %d (%s): %v", e.Index+1, e.Key, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// DefaultRows are the rows a new form starts with.
func DefaultRows() []Row {
	return []Row{
		{Key: "forceUpdate", Value: "false", ValueType: "boolean"},
		{Key: "versionName", Value: "1.0.0", ValueType: "string"},
		{Key: "versionCode", Value: "1", ValueType: "number"},
		{Key: "app_name_state", Value: "default", ValueType: "string"},
		{Key: "app_config", Value: "{}", ValueType: "json"},
	}
}

// Form holds the rows plus the etag and version of the last load.
// Row edits are local; only Load, Submit and Publish talk to the relay, and
// only one of them may run at a time.
type Form struct {
	relay Relay
	log   zerolog.Logger

	mu      sync.Mutex
	rows    []Row
	etag    string
	version model.Revision

	busy atomic.Bool
}

// Option configures a Form.
type Option func(*Form)

// WithLogger sets the logger used for background refresh failures.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Form) { f.log = l }
}

// New returns a form seeded with DefaultRows.
func New(relay Relay, opts ...Option) *Form {
	f := NewEmpty(relay, opts...)
	f.rows = DefaultRows()
	return f
}

// NewEmpty returns a form with no rows.
func NewEmpty(relay Relay, opts ...Option) *Form {
	f := &Form{relay: relay, log: zerolog.Nop(), rows: []Row{}}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Rows returns a copy of the current rows.
func (f *Form) Rows() []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Row(nil), f.rows...)
}

// SetRows replaces every row.
func (f *Form) SetRows(rows []Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append([]Row(nil), rows...)
}

// ETag is the etag of the last successful load, submit or publish.
func (f *Form) ETag() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.etag
}

// Version is the template version the form last saw.
func (f *Form) Version() model.Revision {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

// Busy reports whether a relay action is running.
func (f *Form) Busy() bool { return f.busy.Load() }

// Add appends an empty string row and returns its index.
func (f *Form) Add() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, Row{ValueType: "string"})
	return len(f.rows) - 1
}

// Remove deletes row i.
func (f *Form) Remove(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return nil
}

// Edit sets one field of row i. Values are stored as typed.
func (f *Form) Edit(i int, field Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	switch field {
	case FieldKey:
		f.rows[i].Key = value
	case FieldValue:
		f.rows[i].Value = value
	case FieldType:
		f.rows[i].ValueType = value
	default:
		return fmt.Errorf("unknown field %d", field)
	}
	return nil
}

// Validate checks every row and joins all failures.
func (f *Form) Validate() error {
	return validateRows(f.Rows())
}

func validateRows(rows []Row) error {
	var errs []error
	for i, r := range rows {
		if err := validateRow(r); err != nil {
			errs = append(errs, &RowError{Index: i, Key: strings.TrimSpace(r.Key), Err: err})
		}
	}
	return errors.Join(errs...)
}

func validateRow(r Row) error {
	if strings.TrimSpace(r.Key) == "" || strings.TrimSpace(r.Value) == "" {
		return fmt.Errorf("%w: key and value are required", model.ErrValidation)
	}
	vt, err := model.ParseValueType(r.ValueType)
	if err != nil {
		return err
	}
	if vt == model.ValueTypeJSON {
		if err := model.CheckJSON(r.Value); err != nil {
			return fmt.Errorf("%w: value is not valid JSON: %v", model.ErrValidation, err)
		}
	}
	return nil
}

func (f *Form) begin() error {
	if !f.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (f *Form) end() { f.busy.Store(false) }

// Load replaces the rows with the relay's active template, sorted by key.
func (f *Form) Load(ctx context.Context) (*client.Template, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	defer f.end()

	tpl, err := f.relay.GetTemplate(ctx)
	if err != nil {
		return nil, err
	}
	rows := RowsFromTemplate(tpl)

	f.mu.Lock()
	f.rows = rows
	f.etag = tpl.ETag
	f.version = tpl.VersionNumber
	f.mu.Unlock()
	return tpl, nil
}

// RowsFromTemplate converts template parameters into rows sorted by key with
// lower-case type tags.
func RowsFromTemplate(tpl *client.Template) []Row {
	keys := make([]string, 0, len(tpl.Parameters))
	for k := range tpl.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		p := tpl.Parameters[k]
		rows = append(rows, Row{Key: k, Value: p.Literal(), ValueType: p.ValueType.Lower()})
	}
	return rows
}

// Submit validates the rows and posts them guarded by the etag of the last load.
// Nothing is sent when any row is invalid.
func (f *Form) Submit(ctx context.Context) (*client.MutationResult, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	defer f.end()

	rows := f.Rows()
	if err := validateRows(rows); err != nil {
		return nil, err
	}
	entries := make([]client.ConfigEntry, 0, len(rows))
	for _, r := range rows {
		vt, _ := model.ParseValueType(r.ValueType)
		entries = append(entries, client.ConfigEntry{
			Key:       strings.TrimSpace(r.Key),
			Value:     r.Value,
			ValueType: vt.Lower(),
		})
	}

	res, err := f.relay.UpdateConfigs(ctx, entries, f.ETag())
	if err != nil {
		return nil, err
	}
	f.refresh(ctx, res.VersionNumber)
	return res, nil
}

// Publish republishes the active template without touching the rows.
func (f *Form) Publish(ctx context.Context) (*client.MutationResult, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	defer f.end()

	res, err := f.relay.PublishTemplate(ctx, f.ETag())
	if err != nil {
		return nil, err
	}
	f.refresh(ctx, res.VersionNumber)
	return res, nil
}

// refresh picks up the etag of the version just published so the next action
// is guarded against it. Rows stay as edited.
func (f *Form) refresh(ctx context.Context, published model.Revision) {
	f.mu.Lock()
	f.version = published
	f.mu.Unlock()

	tpl, err := f.relay.GetTemplate(ctx)
	if err != nil {
		f.log.Warn().Err(err).Msg("could not refresh etag after publish; reload before the next change")
		return
	}
	f.mu.Lock()
	f.etag = tpl.ETag
	f.version = tpl.VersionNumber
	f.mu.Unlock()
}
