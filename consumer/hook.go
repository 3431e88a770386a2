package consumer

import (
	"context"
	"sync"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// Binding tracks one parameter read for rendering. It is pending until a
// fetch-and-activate cycle completes, then holds the coerced value.
type Binding struct {
	rc     *RemoteConfig
	parent context.Context

	mu       sync.RWMutex
	key      string
	vt       model.ValueType
	value    any
	resolved bool
	done     chan struct{}
	cancel   context.CancelFunc
}

// Use starts a fetch-and-activate cycle for key. Failures are logged and leave the
// binding pending; nothing retries.
func Use(ctx context.Context, rc *RemoteConfig, key string, vt model.ValueType) *Binding {
	b := &Binding{rc: rc, parent: ctx}
	b.start(key, vt)
	return b
}

// Rebind cancels the running cycle and starts a fresh one. The binding goes back
// to pending. Rebinding to the current key and type is a no-op.
func (b *Binding) Rebind(key string, vt model.ValueType) {
	b.mu.RLock()
	same := b.key == key && b.vt == vt
	b.mu.RUnlock()
	if same {
		return
	}
	b.start(key, vt)
}

func (b *Binding) start(key string, vt model.ValueType) {
	ctx, cancel := context.WithCancel(b.parent)
	done := make(chan struct{})

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.key, b.vt = key, vt
	b.value, b.resolved = nil, false
	b.done, b.cancel = done, cancel
	b.mu.Unlock()

	go b.run(ctx, key, vt, done)
}

func (b *Binding) run(ctx context.Context, key string, vt model.ValueType, done chan struct{}) {
	defer close(done)
	log := b.rc.log.With().Str("key", key).Str("value_type", vt.String()).Logger()

	if _, err := b.rc.FetchAndActivate(ctx); err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("failed to fetch remote config")
		}
		return
	}
	v := b.rc.GetValue(key)
	var out any
	if v.Source() == SourceStatic {
		out = ZeroValue(vt)
	} else {
		var err error
		out, err = v.As(vt)
		if err != nil {
			log.Error().Err(err).Msg("failed to parse JSON value")
			out = nil
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// A Rebind replaced this cycle.
	if b.done != done {
		return
	}
	b.value, b.resolved = out, true
	b.cancel()
}

// Value returns the resolved value, or nil while pending.
func (b *Binding) Value() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

func (b *Binding) Resolved() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resolved
}

// Done is closed when the current cycle finishes, successfully or not.
func (b *Binding) Done() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.done
}

// Close cancels the running cycle.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}
