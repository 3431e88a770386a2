package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ILara-wd/firebase-remote-config/form"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

const (
	actionEdit     = "Edit row"
	actionAdd      = "Add row"
	actionRemove   = "Remove row"
	actionLoad     = "Load current template"
	actionValidate = "Validate rows"
	actionSave     = "Save (update Remote Config)"
	actionPublish  = "Publish template"
	actionQuit     = "Quit"
)

var actions = []string{actionEdit, actionAdd, actionRemove, actionLoad, actionValidate, actionSave, actionPublish, actionQuit}

// Editor runs a menu loop over a form until the operator quits.
type Editor struct {
	d Driver
	f *form.Form
}

func NewEditor(d Driver, f *form.Form) *Editor {
	return &Editor{d: d, f: f}
}

// Run returns nil on Quit and ErrAborted on interrupt. Relay failures are reported
// and the loop continues.
func (e *Editor) Run(ctx context.Context) error {
	for {
		if err := e.d.Info(ctx, renderRows(e.f)); err != nil {
			return err
		}
		idx, err := e.d.Select(ctx, SelectConfig{Message: "Action", Options: actions, PageSize: len(actions)})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}
		if actions[idx] == actionQuit {
			return nil
		}
		if err := e.dispatch(ctx, actions[idx]); err != nil {
			if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
				return err
			}
			if ierr := e.d.Info(ctx, "Error: "+err.Error()); ierr != nil {
				return ierr
			}
		}
	}
}

func (e *Editor) dispatch(ctx context.Context, action string) error {
	switch action {
	case actionEdit:
		return e.editRow(ctx)
	case actionAdd:
		i := e.f.Add()
		return e.fillRow(ctx, i)
	case actionRemove:
		i, err := e.pickRow(ctx, "Remove which row?")
		if err != nil || i < 0 {
			return err
		}
		return e.f.Remove(i)
	case actionLoad:
		tpl, err := e.f.Load(ctx)
		if err != nil {
			return err
		}
		return e.d.Info(ctx, fmt.Sprintf("Template loaded. Version: %s", tpl.VersionNumber))
	case actionValidate:
		if err := e.f.Validate(); err != nil {
			return err
		}
		return e.d.Info(ctx, "All rows are valid.")
	case actionSave:
		res, err := e.f.Submit(ctx)
		if err != nil {
			return err
		}
		return e.d.Info(ctx, fmt.Sprintf("Remote Config updated. Version: %s", res.VersionNumber))
	case actionPublish:
		ok, err := e.d.Confirm(ctx, ConfirmConfig{Message: "Republish the active template unchanged?"})
		if err != nil || !ok {
			return err
		}
		res, err := e.f.Publish(ctx)
		if err != nil {
			return err
		}
		return e.d.Info(ctx, fmt.Sprintf("Template published. Version: %s", res.VersionNumber))
	}
	return nil
}

func (e *Editor) pickRow(ctx context.Context, msg string) (int, error) {
	rows := e.f.Rows()
	if len(rows) == 0 {
		return -1, e.d.Info(ctx, "No rows.")
	}
	opts := make([]string, len(rows))
	for i, r := range rows {
		opts[i] = fmt.Sprintf("%d. %s", i+1, displayKey(r.Key))
	}
	return e.d.Select(ctx, SelectConfig{Message: msg, Options: opts})
}

func (e *Editor) editRow(ctx context.Context) error {
	i, err := e.pickRow(ctx, "Edit which row?")
	if err != nil || i < 0 {
		return err
	}
	return e.fillRow(ctx, i)
}

func (e *Editor) fillRow(ctx context.Context, i int) error {
	row := e.f.Rows()[i]

	key, err := e.d.Input(ctx, InputConfig{Message: "Key", Default: row.Key})
	if err != nil {
		return err
	}
	types := make([]string, len(model.ValueTypes))
	def := 0
	for j, vt := range model.ValueTypes {
		types[j] = vt.Lower()
		if strings.EqualFold(vt.Lower(), row.ValueType) {
			def = j
		}
	}
	ti, err := e.d.Select(ctx, SelectConfig{Message: "Type", Options: types, DefaultIndex: def})
	if err != nil {
		return err
	}
	if ti < 0 {
		ti = def
	}
	vt := model.ValueTypes[ti]
	value, err := e.d.Input(ctx, InputConfig{
		Message: "Value",
		Default: row.Value,
		Validator: func(s string) error {
			if vt == model.ValueTypeJSON {
				return model.CheckJSON(s)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	if err := e.f.Edit(i, form.FieldKey, key); err != nil {
		return err
	}
	if err := e.f.Edit(i, form.FieldType, vt.Lower()); err != nil {
		return err
	}
	return e.f.Edit(i, form.FieldValue, value)
}

func displayKey(k string) string {
	if strings.TrimSpace(k) == "" {
		return "(empty)"
	}
	return k
}

func renderRows(f *form.Form) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Remote Config rows (version %s)\n", f.Version())
	for i, r := range f.Rows() {
		fmt.Fprintf(&b, "  %d. %-24s %-8s %s\n", i+1, displayKey(r.Key), r.ValueType, r.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}
