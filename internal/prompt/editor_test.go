package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/form"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// scriptedDriver answers prompts from queues and records Info output.
type scriptedDriver struct {
	inputs   []string
	selects  []int
	confirms []bool
	info     []string
}

func (d *scriptedDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", ErrAborted
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (d *scriptedDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, ErrAborted
	}
	v := d.confirms[0]
	d.confirms = d.confirms[1:]
	return v, nil
}

func (d *scriptedDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return 0, ErrAborted
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptedDriver) Info(ctx context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func indexOfAction(a string) int { return indexOf(actions, a) }

type recordingRelay struct {
	sent []client.ConfigEntry
}

func (r *recordingRelay) GetTemplate(context.Context) (*client.Template, error) {
	return &client.Template{
		Parameters: map[string]model.Parameter{
			"b": {DefaultValue: &model.DefaultValue{Value: "2"}, ValueType: model.ValueTypeNumber},
		},
		VersionNumber: 9,
		ETag:          "e9",
	}, nil
}

func (r *recordingRelay) UpdateConfigs(_ context.Context, cfgs []client.ConfigEntry, _ string) (*client.MutationResult, error) {
	r.sent = cfgs
	return &client.MutationResult{Success: true, VersionNumber: 10}, nil
}

func (r *recordingRelay) PublishTemplate(context.Context, string) (*client.MutationResult, error) {
	return &client.MutationResult{Success: true, VersionNumber: 11}, nil
}

func TestEditor_AddRowAndSave(t *testing.T) {
	relay := &recordingRelay{}
	f := form.NewEmpty(relay)
	d := &scriptedDriver{
		selects: []int{
			indexOfAction(actionAdd), 3, // add, type json
			indexOfAction(actionSave),
			indexOfAction(actionQuit),
		},
		inputs: []string{"app_config", `{"dark":true}`},
	}
	if err := NewEditor(d, f).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []client.ConfigEntry{{Key: "app_config", Value: `{"dark":true}`, ValueType: "json"}}
	if diff := cmp.Diff(want, relay.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(strings.Join(d.info, "\n"), "Remote Config updated. Version: 10") {
		t.Fatalf("missing success message: %v", d.info)
	}
}

func TestEditor_LoadRemovePublish(t *testing.T) {
	f := form.New(&recordingRelay{})
	d := &scriptedDriver{
		selects: []int{
			indexOfAction(actionLoad),
			indexOfAction(actionRemove), 0,
			indexOfAction(actionPublish),
			indexOfAction(actionQuit),
		},
		confirms: []bool{true},
	}
	if err := NewEditor(d, f).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.Rows()) != 0 {
		t.Fatalf("expected loaded row removed, got %v", f.Rows())
	}
	out := strings.Join(d.info, "\n")
	for _, frag := range []string{"Template loaded. Version: 9", "Template published. Version: 11"} {
		if !strings.Contains(out, frag) {
			t.Errorf("missing %q", frag)
		}
	}
}

func TestEditor_ValidationErrorIsReported(t *testing.T) {
	f := form.NewEmpty(&recordingRelay{})
	f.SetRows([]form.Row{{Key: "", Value: "", ValueType: "string"}})
	d := &scriptedDriver{selects: []int{indexOfAction(actionSave), indexOfAction(actionQuit)}}
	if err := NewEditor(d, f).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(strings.Join(d.info, "\n"), "Error: row 1") {
		t.Fatalf("expected validation error output, got %v", d.info)
	}
}

func TestEditor_Interrupt(t *testing.T) {
	f := form.New(&recordingRelay{})
	err := NewEditor(&scriptedDriver{}, f).Run(context.Background())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}
