package handlers

import (
	"reflect"
	"testing"

	"github.com/ILara-wd/firebase-remote-config/client"
)

func TestDecodeConfigs(t *testing.T) {
	got, err := decodeConfigs([]any{
		map[string]any{"key": "a", "value": "x", "valueType": "string"},
		map[string]any{"key": "b", "value": 1.5, "valueType": "number"},
		map[string]any{"key": "c", "value": true},
		map[string]any{"key": "d", "value": map[string]any{"k": "v"}, "valueType": "json"},
		map[string]any{"key": "e", "value": ""},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []client.ConfigEntry{
		{Key: "a", Value: "x", ValueType: "string"},
		{Key: "b", Value: "1.5", ValueType: "number"},
		{Key: "c", Value: "true"},
		{Key: "d", Value: `{"k":"v"}`, ValueType: "json"},
		{Key: "e", Value: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestDecodeConfigs_Rejects(t *testing.T) {
	for name, raw := range map[string]any{
		"not array":   "x",
		"missing":     nil,
		"item scalar": []any{"x"},
		"no value":    []any{map[string]any{"key": "flag", "valueType": "string"}},
		"null value":  []any{map[string]any{"key": "flag", "value": nil}},
	} {
		if _, err := decodeConfigs(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
