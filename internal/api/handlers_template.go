package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/internal/api/respond"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
	"github.com/ILara-wd/firebase-remote-config/internal/services"
)

const (
	defaultVersionsLimit = 10
	maxVersionsLimit     = 100
)

// TemplateHandler is the HTTP transport over TemplateService.
type TemplateHandler struct {
	svc          *services.TemplateService
	maxBodyBytes int64
}

func NewTemplateHandler(svc *services.TemplateService, maxBodyBytes int64) *TemplateHandler {
	return &TemplateHandler{svc: svc, maxBodyBytes: maxBodyBytes}
}

type templateResponse struct {
	Parameters    map[string]model.Parameter `json:"parameters"`
	VersionNumber model.Revision             `json:"versionNumber"`
	ETag          string                     `json:"etag"`
}

type mutationResponse struct {
	Success        bool   `json:"success"`
	VersionNumber  model.Revision `json:"versionNumber"`
	RollbackSource model.Revision `json:"rollbackSource,omitempty"`
	Message        string `json:"message"`
}

// GetTemplate GET /api/remote-config/template
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.svc.Get(r.Context())
	if err != nil {
		h.fail(w, r, "Error fetching Remote Config template", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, templateResponse{
		Parameters:    tpl.Parameters,
		VersionNumber: model.Revision(tpl.VersionNumber()),
		ETag:          tpl.ETag,
	})
}

// UpdateConfigs POST /api/remote-config/update
func (h *TemplateHandler) UpdateConfigs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Configs json.RawMessage `json:"configs"`
		ETag    string          `json:"etag"`
	}
	if err := h.decode(r, &body); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON body")
		return
	}
	raw := bytes.TrimSpace(body.Configs)
	if len(raw) == 0 || raw[0] != '[' {
		respond.WriteBadRequest(w, "configs must be an array")
		return
	}
	entries, err := decodeEntries(raw)
	if err != nil {
		h.fail(w, r, "Error updating Remote Config", err)
		return
	}

	tpl, err := h.svc.Update(r.Context(), services.UpdateRequest{Configs: entries, ETag: body.ETag})
	if err != nil {
		h.fail(w, r, "Error updating Remote Config", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, mutationResponse{
		Success:       true,
		VersionNumber: model.Revision(tpl.VersionNumber()),
		Message:       fmt.Sprintf("Remote Config updated to version %s", tpl.VersionNumber()),
	})
}

// PublishTemplate POST /api/remote-config/publish
func (h *TemplateHandler) PublishTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ETag string `json:"etag"`
	}
	if err := h.decode(r, &body); err != nil && !errors.Is(err, io.EOF) {
		respond.WriteBadRequest(w, "Invalid JSON body")
		return
	}
	tpl, err := h.svc.Publish(r.Context(), body.ETag)
	if err != nil {
		h.fail(w, r, "Error publishing template", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, mutationResponse{
		Success:       true,
		VersionNumber: model.Revision(tpl.VersionNumber()),
		Message:       fmt.Sprintf("Template published as version %s", tpl.VersionNumber()),
	})
}

// ListVersions GET /api/remote-config/versions?limit=N
func (h *TemplateHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	limit := defaultVersionsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxVersionsLimit)
	}
	vs, err := h.svc.Versions(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "Error listing template versions", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"versions": vs, "count": len(vs)})
}

// Rollback POST /api/remote-config/rollback
func (h *TemplateHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VersionNumber model.VersionNumber `json:"versionNumber"`
	}
	if err := h.decode(r, &body); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON body")
		return
	}
	tpl, err := h.svc.Rollback(r.Context(), body.VersionNumber)
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteError(w, http.StatusBadRequest, "Error rolling back template", err.Error())
		return
	case errors.Is(err, model.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "Error rolling back template", err.Error())
		return
	case err != nil:
		h.fail(w, r, "Error rolling back template", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, mutationResponse{
		Success:        true,
		VersionNumber:  model.Revision(tpl.VersionNumber()),
		RollbackSource: model.Revision(body.VersionNumber),
		Message:        fmt.Sprintf("Template rolled back to version %s as version %s", body.VersionNumber, tpl.VersionNumber()),
	})
}

func (h *TemplateHandler) decode(r *http.Request, dst interface{}) error {
	var rd io.Reader = r.Body
	if h.maxBodyBytes > 0 {
		rd = io.LimitReader(r.Body, h.maxBodyBytes)
	}
	return json.NewDecoder(rd).Decode(dst)
}

// fail maps etag conflicts to 409 and everything else to 500, passing the
// underlying message through in details.
func (h *TemplateHandler) fail(w http.ResponseWriter, r *http.Request, title string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, model.ErrConflict) {
		status = http.StatusConflict
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg(title)
	if status == http.StatusInternalServerError {
		respond.WriteInternalError(w, title, err)
		return
	}
	respond.WriteError(w, status, title, err.Error())
}

type wireEntry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	ValueType string          `json:"valueType"`
}

// decodeEntries accepts string values verbatim and keeps numbers, booleans and
// nested JSON as their literal text. A missing or null value is left unset.
func decodeEntries(raw []byte) ([]model.ConfigEntry, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: configs: %v", model.ErrValidation, err)
	}
	out := make([]model.ConfigEntry, 0, len(items))
	for i, item := range items {
		var we wireEntry
		if err := json.Unmarshal(item, &we); err != nil {
			return nil, &model.EntryError{Index: i, Err: fmt.Errorf("%w: %v", model.ErrValidation, err)}
		}
		e := model.ConfigEntry{Key: we.Key, ValueType: we.ValueType}
		v := bytes.TrimSpace(we.Value)
		switch {
		case len(v) == 0 || bytes.Equal(v, []byte("null")):
		case v[0] == '"':
			if err := json.Unmarshal(v, &e.Value); err != nil {
				return nil, &model.EntryError{Index: i, Key: we.Key, Err: fmt.Errorf("%w: %v", model.ErrValidation, err)}
			}
			e.HasValue = true
		default:
			e.Value = string(v)
			e.HasValue = true
		}
		out = append(out, e)
	}
	return out, nil
}
