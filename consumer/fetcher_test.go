package consumer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

func TestFirebaseFetcher(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/demo/namespaces/firebase:fetch", r.URL.Path)
		assert.Equal(t, "api-key", r.URL.Query().Get("key"))
		if r.Header.Get("If-None-Match") == "etag-1" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		assert.Equal(t, "*", r.Header.Get("If-None-Match"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", "etag-1")
		_, _ = w.Write([]byte(`{"entries":{"versionName":"1.0.1"},"state":"UPDATE","templateVersion":"12"}`))
	}))
	defer srv.Close()

	f, err := NewFirebaseFetcher(ClientConfig{ProjectID: "demo", APIKey: "api-key", AppID: "1:2:web:3", InstanceID: "inst", BaseURL: srv.URL})
	require.NoError(t, err)

	snap, err := f.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"versionName": "1.0.1"}, snap.Values)
	assert.Equal(t, "etag-1", snap.ETag)
	assert.EqualValues(t, 12, snap.TemplateVersion)
	assert.Equal(t, "inst", gotBody["app_instance_id"])
	assert.Equal(t, "1:2:web:3", gotBody["app_id"])

	_, err = f.Fetch(context.Background(), "etag-1")
	assert.ErrorIs(t, err, ErrNotModified)
}

func TestFirebaseFetcher_RequiresIdentity(t *testing.T) {
	_, err := NewFirebaseFetcher(ClientConfig{ProjectID: "demo"})
	assert.Error(t, err)
}

type stubRelay struct{ tpl *client.Template }

func (s stubRelay) GetTemplate(context.Context) (*client.Template, error) { return s.tpl, nil }

func TestRelayFetcher_SkipsInAppDefaults(t *testing.T) {
	f := NewRelayFetcher(stubRelay{tpl: &client.Template{
		Parameters: map[string]model.Parameter{
			"a": {DefaultValue: &model.DefaultValue{Value: "x"}},
			"b": {DefaultValue: &model.DefaultValue{UseInAppDefault: true}},
			"c": {},
		},
		VersionNumber: 5,
		ETag:          "e5",
	}})
	snap, err := f.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x"}, snap.Values)

	_, err = f.Fetch(context.Background(), "e5")
	assert.ErrorIs(t, err, ErrNotModified)
}
