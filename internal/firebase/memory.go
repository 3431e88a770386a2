package firebase

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// MemoryBackend is an in-process TemplateAPI. It keeps full version history and
// enforces the same ETag precondition as the vendor, so it backs local development
// (RELAY_BACKEND=memory) and tests.
type MemoryBackend struct {
	mu        sync.Mutex
	projectID string
	current   *model.Template
	history   []*model.Template
	now       func() time.Time
	failNext  error
	publishes int
}

// NewMemoryBackend starts with an unpublished, empty template unless seed is
// non-empty, in which case the seed is published as version 1.
func NewMemoryBackend(projectID string, seed map[string]model.Parameter) *MemoryBackend {
	m := &MemoryBackend{projectID: projectID, now: time.Now}
	m.current = &model.Template{
		Parameters: map[string]model.Parameter{},
		ETag:       m.etag(0),
	}
	if len(seed) > 0 {
		tpl := m.current.Clone()
		for k, p := range seed {
			tpl.Parameters[k] = p
		}
		m.commit(tpl, "INCREMENTAL_UPDATE", 0)
	}
	return m
}

func (m *MemoryBackend) etag(v model.VersionNumber) string {
	return fmt.Sprintf("etag-%s-%d", m.projectID, v)
}

// ProjectID returns the project name given at construction.
func (m *MemoryBackend) ProjectID() string { return m.projectID }

// FailNext makes the next vendor call return err.
func (m *MemoryBackend) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Publishes reports how many publishes succeeded.
func (m *MemoryBackend) Publishes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publishes
}

func (m *MemoryBackend) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *MemoryBackend) HealthPing(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeFailure()
}

func (m *MemoryBackend) GetTemplate(ctx context.Context) (*model.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	return m.current.Clone(), nil
}

func (m *MemoryBackend) PublishTemplate(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if tpl.ETag == "" {
		return nil, fmt.Errorf("%w: publish requires the etag of a fetched template", model.ErrValidation)
	}
	if tpl.ETag != "*" && tpl.ETag != m.current.ETag {
		return nil, &APIError{
			StatusCode: http.StatusConflict,
			Status:     "ABORTED",
			Message:    fmt.Sprintf("ETag mismatch: template was modified (have %s, current %s)", tpl.ETag, m.current.ETag),
		}
	}
	next := tpl.Clone()
	if next.Parameters == nil {
		next.Parameters = map[string]model.Parameter{}
	}
	return m.commit(next, "INCREMENTAL_UPDATE", 0).Clone(), nil
}

// commit stores tpl as the next version. Caller holds mu.
func (m *MemoryBackend) commit(tpl *model.Template, updateType string, rollbackSource model.VersionNumber) *model.Template {
	ts := m.now().UTC()
	desc := ""
	if tpl.Version != nil {
		desc = tpl.Version.Description
	}
	v := m.current.VersionNumber() + 1
	tpl.Version = &model.Version{
		VersionNumber:  v,
		UpdateTime:     &ts,
		UpdateUser:     &model.User{Email: "relay@" + m.projectID + ".local"},
		UpdateOrigin:   "REST_API",
		UpdateType:     updateType,
		Description:    desc,
		RollbackSource: rollbackSource,
	}
	tpl.ETag = m.etag(v)
	m.current = tpl
	m.history = append(m.history, tpl.Clone())
	m.publishes++
	return tpl
}

func (m *MemoryBackend) ListVersions(ctx context.Context, pageSize int) ([]model.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]model.Version, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		if pageSize > 0 && len(out) == pageSize {
			break
		}
		out = append(out, *m.history[i].Version)
	}
	return out, nil
}

func (m *MemoryBackend) Rollback(ctx context.Context, version model.VersionNumber) (*model.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	for _, h := range m.history {
		if h.VersionNumber() == version {
			next := h.Clone()
			next.Version.Description = fmt.Sprintf("Rollback to version %s", version)
			return m.commit(next, "ROLLBACK", version).Clone(), nil
		}
	}
	return nil, &APIError{
		StatusCode: http.StatusNotFound,
		Status:     "NOT_FOUND",
		Message:    fmt.Sprintf("version %s not found", version),
	}
}
