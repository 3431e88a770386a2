package form

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/internal/api"
	"github.com/ILara-wd/firebase-remote-config/internal/firebase"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
	"github.com/ILara-wd/firebase-remote-config/internal/services"
)

func newRelayClient(t *testing.T, seed map[string]model.Parameter) (*client.Client, *firebase.MemoryBackend) {
	t.Helper()
	mem := firebase.NewMemoryBackend("form-project", seed)
	h := api.NewRouter(services.NewTemplateService(mem, zerolog.Nop()), api.RouterConfig{ServiceName: "test"}, zerolog.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c, mem
}

func TestNew_DefaultRows(t *testing.T) {
	f := New(nil)
	want := []Row{
		{Key: "forceUpdate", Value: "false", ValueType: "boolean"},
		{Key: "versionName", Value: "1.0.0", ValueType: "string"},
		{Key: "versionCode", Value: "1", ValueType: "number"},
		{Key: "app_name_state", Value: "default", ValueType: "string"},
		{Key: "app_config", Value: "{}", ValueType: "json"},
	}
	if diff := cmp.Diff(want, f.Rows()); diff != "" {
		t.Fatalf("default rows mismatch (-want +got):\n%s", diff)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("default rows should validate: %v", err)
	}
}

func TestAddEditRemove(t *testing.T) {
	f := NewEmpty(nil)
	i := f.Add()
	if err := f.Edit(i, FieldKey, "promo"); err != nil {
		t.Fatal(err)
	}
	if err := f.Edit(i, FieldValue, `{"on":true}`); err != nil {
		t.Fatal(err)
	}
	if err := f.Edit(i, FieldType, "json"); err != nil {
		t.Fatal(err)
	}
	f.Add()

	want := []Row{{Key: "promo", Value: `{"on":true}`, ValueType: "json"}, {ValueType: "string"}}
	if diff := cmp.Diff(want, f.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	if err := f.Remove(1); err != nil {
		t.Fatal(err)
	}
	if err := f.Remove(5); !errors.Is(err, ErrRowIndex) {
		t.Fatalf("expected ErrRowIndex, got %v", err)
	}
	if err := f.Edit(-1, FieldKey, "x"); !errors.Is(err, ErrRowIndex) {
		t.Fatalf("expected ErrRowIndex, got %v", err)
	}
	if len(f.Rows()) != 1 {
		t.Fatalf("expected one row, got %d", len(f.Rows()))
	}
}

func TestValidate(t *testing.T) {
	f := NewEmpty(nil)
	f.SetRows([]Row{
		{Key: " ", Value: "x", ValueType: "string"},
		{Key: "a", Value: "  ", ValueType: "string"},
		{Key: "cfg", Value: "{nope", ValueType: "json"},
		{Key: "c", Value: "red", ValueType: "color"},
		{Key: "ok", Value: "1", ValueType: "number"},
	})
	err := f.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	var re *RowError
	if !errors.As(err, &re) || re.Index != 0 {
		t.Fatalf("expected first RowError at index 0, got %v", err)
	}
	msg := err.Error()
	for _, frag := range []string{"row 1", "row 2 (a)", "row 3 (cfg): validation error: value is not valid JSON", "row 4 (c)"} {
		if !strings.Contains(msg, frag) {
			t.Errorf("missing %q in %q", frag, msg)
		}
	}
	if strings.Contains(msg, "row 5") {
		t.Errorf("valid row reported: %q", msg)
	}
}

func TestLoad_SortsAndLowercases(t *testing.T) {
	c, _ := newRelayClient(t, map[string]model.Parameter{
		"versionName": {DefaultValue: &model.DefaultValue{Value: "2.0"}, ValueType: model.ValueTypeString},
		"forceUpdate": {DefaultValue: &model.DefaultValue{Value: "true"}, ValueType: model.ValueTypeBoolean},
		"legacy":      {DefaultValue: &model.DefaultValue{UseInAppDefault: true}},
	})
	f := New(c)
	tpl, err := f.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []Row{
		{Key: "forceUpdate", Value: "true", ValueType: "boolean"},
		{Key: "legacy", Value: "", ValueType: "string"},
		{Key: "versionName", Value: "2.0", ValueType: "string"},
	}
	if diff := cmp.Diff(want, f.Rows()); diff != "" {
		t.Fatalf("loaded rows mismatch (-want +got):\n%s", diff)
	}
	if f.ETag() != tpl.ETag || f.Version() != 1 {
		t.Fatalf("etag/version not remembered: %q %d", f.ETag(), f.Version())
	}
}

func TestLoadThenSubmitUnchanged(t *testing.T) {
	ctx := context.Background()
	c, _ := newRelayClient(t, map[string]model.Parameter{
		"versionCode": {DefaultValue: &model.DefaultValue{Value: "7"}, ValueType: model.ValueTypeNumber},
		"app_config":  {DefaultValue: &model.DefaultValue{Value: `{"a":1}`}, ValueType: model.ValueTypeJSON},
	})
	f := New(c)
	before, err := f.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.Submit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.VersionNumber != before.VersionNumber+1 {
		t.Fatalf("version = %d, want %d", res.VersionNumber, before.VersionNumber+1)
	}
	after, err := c.GetTemplate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before.Parameters, after.Parameters); diff != "" {
		t.Fatalf("parameters changed (-before +after):\n%s", diff)
	}

	// The form picked up the new etag, so a second action is not a conflict.
	if f.ETag() != after.ETag {
		t.Fatalf("etag not refreshed: %q vs %q", f.ETag(), after.ETag)
	}
	if _, err := f.Publish(ctx); err != nil {
		t.Fatalf("publish after submit: %v", err)
	}
}

func TestSubmit_InvalidRowsSendNothing(t *testing.T) {
	c, mem := newRelayClient(t, nil)
	f := NewEmpty(c)
	f.SetRows([]Row{{Key: "cfg", Value: "{", ValueType: "json"}})
	if _, err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if mem.Publishes() != 0 {
		t.Fatalf("nothing should have been published")
	}
}

func TestSubmit_StaleLoadConflicts(t *testing.T) {
	ctx := context.Background()
	c, _ := newRelayClient(t, nil)
	f := New(c)
	if _, err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	// Someone else publishes in between.
	if _, err := c.PublishTemplate(ctx, ""); err != nil {
		t.Fatal(err)
	}
	f.SetRows(DefaultRows())
	_, err := f.Submit(ctx)
	if !errors.Is(err, client.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

// blockingRelay holds GetTemplate until released.
type blockingRelay struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRelay) GetTemplate(ctx context.Context) (*client.Template, error) {
	close(b.started)
	<-b.release
	return &client.Template{Parameters: map[string]model.Parameter{}}, nil
}

func (b *blockingRelay) UpdateConfigs(context.Context, []client.ConfigEntry, string) (*client.MutationResult, error) {
	return &client.MutationResult{}, nil
}

func (b *blockingRelay) PublishTemplate(context.Context, string) (*client.MutationResult, error) {
	return &client.MutationResult{}, nil
}

func TestSingleActionInFlight(t *testing.T) {
	relay := &blockingRelay{started: make(chan struct{}), release: make(chan struct{})}
	f := New(relay)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = f.Load(context.Background())
	}()
	<-relay.started

	if !f.Busy() {
		t.Fatal("expected busy while load runs")
	}
	if _, err := f.Publish(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(relay.release)
	wg.Wait()
	if f.Busy() {
		t.Fatal("busy flag not cleared")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	f := New(nil)
	var buf bytes.Buffer
	if err := f.Export(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "key: forceUpdate") {
		t.Fatalf("unexpected yaml:\n%s", buf.String())
	}

	g := NewEmpty(nil)
	if err := g.Import(strings.NewReader("etag: etag-p-3\nversion: 3\nrows:\n  - key: a\n    value: \"1\"\n  - key: b\n    value: x\n    valueType: string\n")); err != nil {
		t.Fatal(err)
	}
	want := []Row{{Key: "a", Value: "1", ValueType: "string"}, {Key: "b", Value: "x", ValueType: "string"}}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("imported rows mismatch (-want +got):\n%s", diff)
	}
	if g.ETag() != "etag-p-3" || g.Version() != 3 {
		t.Fatalf("etag/version = %q/%d", g.ETag(), g.Version())
	}

	if err := g.Import(strings.NewReader("rows: [")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestParseField(t *testing.T) {
	for in, want := range map[string]Field{"key": FieldKey, "Value": FieldValue, "type": FieldType, "valueType": FieldType} {
		got, err := ParseField(in)
		if err != nil || got != want {
			t.Errorf("ParseField(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseField("colour"); err == nil {
		t.Error("expected error")
	}
}
