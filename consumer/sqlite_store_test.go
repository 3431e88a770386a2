package consumer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "rc.db")
	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)

	got, err := s.Get(ctx, SlotActive)
	require.NoError(t, err)
	assert.Nil(t, got)

	at := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	require.NoError(t, s.Put(ctx, SlotActive, &Snapshot{Values: map[string]string{"a": "1"}, ETag: "e1", TemplateVersion: 3, FetchedAt: at}))
	require.NoError(t, s.Put(ctx, SlotActive, &Snapshot{Values: map[string]string{"a": "2"}, ETag: "e2", TemplateVersion: 4, FetchedAt: at}))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err = s.Get(ctx, SlotActive)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, map[string]string{"a": "2"}, got.Values)
	assert.Equal(t, "e2", got.ETag)
	assert.EqualValues(t, 4, got.TemplateVersion)
	assert.True(t, at.Equal(got.FetchedAt))

	missing, err := s.Get(ctx, SlotFetched)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRemoteConfig_RestoresActiveFromSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rc.db")

	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	f := &fakeFetcher{}
	f.set(map[string]string{"versionName": "2.0.0"}, "e1")
	rc, _ := newTestConfig(t, f, WithStore(s))
	_, err = rc.FetchAndActivate(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	restored, err := New(ctx, &fakeFetcher{}, WithStore(s))
	require.NoError(t, err)
	v := restored.GetValue("versionName")
	assert.Equal(t, SourceRemote, v.Source())
	assert.Equal(t, "2.0.0", v.AsString())
}
