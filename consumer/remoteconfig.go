// Package consumer reads Remote Config parameters the way an app does: fetch,
// activate, then read typed values with in-app defaults as fallback.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Settings mirror the web SDK's remoteConfig.settings.
type Settings struct {
	MinimumFetchInterval time.Duration
	FetchTimeout         time.Duration
}

// DefaultSettings are the intervals the admin app uses during development.
func DefaultSettings() Settings {
	return Settings{MinimumFetchInterval: 5 * time.Second, FetchTimeout: 5 * time.Second}
}

// RemoteConfig holds the fetched and active configs. It is safe for concurrent use.
type RemoteConfig struct {
	fetcher  Fetcher
	store    Store
	settings Settings
	defaults map[string]string
	log      zerolog.Logger
	now      func() time.Time

	fetchMu sync.Mutex
	mu      sync.RWMutex
	fetched *Snapshot
	active  *Snapshot
}

type Option func(*RemoteConfig)

func WithStore(s Store) Option { return func(rc *RemoteConfig) { rc.store = s } }

func WithSettings(s Settings) Option { return func(rc *RemoteConfig) { rc.settings = s } }

// WithDefaults sets in-app defaults. Values are formatted with fmt's %v.
func WithDefaults(d map[string]any) Option {
	return func(rc *RemoteConfig) {
		for k, v := range d {
			rc.defaults[k] = fmt.Sprint(v)
		}
	}
}

func WithLogger(l zerolog.Logger) Option { return func(rc *RemoteConfig) { rc.log = l } }

func withClock(now func() time.Time) Option { return func(rc *RemoteConfig) { rc.now = now } }

// New loads any cached snapshots from the store. The default store is in memory.
func New(ctx context.Context, f Fetcher, opts ...Option) (*RemoteConfig, error) {
	rc := &RemoteConfig{
		fetcher:  f,
		settings: DefaultSettings(),
		defaults: map[string]string{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(rc)
	}
	if rc.store == nil {
		rc.store = NewMemoryStore()
	}
	var err error
	if rc.fetched, err = rc.store.Get(ctx, SlotFetched); err != nil {
		return nil, err
	}
	if rc.active, err = rc.store.Get(ctx, SlotActive); err != nil {
		return nil, err
	}
	return rc, nil
}

// Fetch retrieves the remote config into the fetched slot. A fetch within
// MinimumFetchInterval of the previous one is served from the cache.
func (rc *RemoteConfig) Fetch(ctx context.Context) error {
	rc.fetchMu.Lock()
	defer rc.fetchMu.Unlock()

	rc.mu.RLock()
	prev := rc.fetched
	rc.mu.RUnlock()

	now := rc.now()
	if prev != nil && now.Sub(prev.FetchedAt) < rc.settings.MinimumFetchInterval {
		rc.log.Debug().Time("last_fetch", prev.FetchedAt).Msg("fetch throttled; using cached config")
		return nil
	}

	if rc.settings.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.settings.FetchTimeout)
		defer cancel()
	}
	etag := ""
	if prev != nil {
		etag = prev.ETag
	}
	snap, err := rc.fetcher.Fetch(ctx, etag)
	switch {
	case errors.Is(err, ErrNotModified) && prev != nil:
		snap = prev.clone()
	case err != nil:
		return fmt.Errorf("fetch remote config: %w", err)
	}
	snap.FetchedAt = now
	if err := rc.store.Put(ctx, SlotFetched, snap); err != nil {
		return err
	}
	rc.mu.Lock()
	rc.fetched = snap
	rc.mu.Unlock()
	rc.log.Debug().Str("etag", snap.ETag).Int("parameters", len(snap.Values)).Msg("remote config fetched")
	return nil
}

// Activate promotes the fetched config. It reports false when there was nothing
// new to activate.
func (rc *RemoteConfig) Activate(ctx context.Context) (bool, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.fetched == nil || sameConfig(rc.active, rc.fetched) {
		return false, nil
	}
	next := rc.fetched.clone()
	if err := rc.store.Put(ctx, SlotActive, next); err != nil {
		return false, err
	}
	rc.active = next
	return true, nil
}

// sameConfig compares by etag, or by fetch time when the fetcher gave no etag.
func sameConfig(active, fetched *Snapshot) bool {
	if active == nil {
		return false
	}
	if fetched.ETag != "" {
		return active.ETag == fetched.ETag
	}
	return active.FetchedAt.Equal(fetched.FetchedAt)
}

// FetchAndActivate runs Fetch then Activate.
func (rc *RemoteConfig) FetchAndActivate(ctx context.Context) (bool, error) {
	if err := rc.Fetch(ctx); err != nil {
		return false, err
	}
	return rc.Activate(ctx)
}

// GetValue returns the active remote value, else the in-app default, else an
// empty static value.
func (rc *RemoteConfig) GetValue(key string) Value {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.active != nil {
		if v, ok := rc.active.Values[key]; ok {
			return newValue(v, SourceRemote)
		}
	}
	if v, ok := rc.defaults[key]; ok {
		return newValue(v, SourceDefault)
	}
	return newValue("", SourceStatic)
}

// GetAll returns every key known from the active config or the defaults.
func (rc *RemoteConfig) GetAll() map[string]Value {
	rc.mu.RLock()
	keys := make(map[string]struct{}, len(rc.defaults))
	for k := range rc.defaults {
		keys[k] = struct{}{}
	}
	if rc.active != nil {
		for k := range rc.active.Values {
			keys[k] = struct{}{}
		}
	}
	rc.mu.RUnlock()

	out := make(map[string]Value, len(keys))
	for k := range keys {
		out[k] = rc.GetValue(k)
	}
	return out
}

// Keys returns GetAll's keys sorted.
func (rc *RemoteConfig) Keys() []string {
	all := rc.GetAll()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LastFetch is the time of the last successful fetch, zero if none.
func (rc *RemoteConfig) LastFetch() time.Time {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.fetched == nil {
		return time.Time{}
	}
	return rc.fetched.FetchedAt
}
