package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/internal/firebase"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// UpdateRequest is a batch of entries merged into the live template.
// ETag, when set, must match the live template or the update is rejected.
type UpdateRequest struct {
	Configs []model.ConfigEntry
	ETag    string
}

type TemplateService struct {
	api firebase.TemplateAPI
	log zerolog.Logger
}

func NewTemplateService(api firebase.TemplateAPI, log zerolog.Logger) *TemplateService {
	return &TemplateService{api: api, log: log.With().Str("component", "template_service").Logger()}
}

func (s *TemplateService) ProjectID() string { return s.api.ProjectID() }

func (s *TemplateService) Get(ctx context.Context) (*model.Template, error) {
	return s.api.GetTemplate(ctx)
}

// Update validates every entry before touching the vendor, so a single bad entry
// leaves the template unpublished.
func (s *TemplateService) Update(ctx context.Context, req UpdateRequest) (*model.Template, error) {
	types := make([]model.ValueType, len(req.Configs))
	for i, e := range req.Configs {
		vt, err := e.Validate(i)
		if err != nil {
			return nil, err
		}
		types[i] = vt
	}

	tpl, err := s.api.GetTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkPrecondition(req.ETag, tpl); err != nil {
		return nil, err
	}

	for i, e := range req.Configs {
		p := e.Parameter(types[i])
		if prev, ok := tpl.Parameters[e.Key]; ok {
			p.Description = prev.Description
		}
		tpl.Parameters[e.Key] = p
	}

	out, err := s.api.PublishTemplate(ctx, tpl)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int("entries", len(req.Configs)).
		Str("version", out.VersionNumber().String()).
		Msg("template updated")
	return out, nil
}

// Publish republishes the live template unchanged, producing a new revision.
func (s *TemplateService) Publish(ctx context.Context, etag string) (*model.Template, error) {
	tpl, err := s.api.GetTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkPrecondition(etag, tpl); err != nil {
		return nil, err
	}
	out, err := s.api.PublishTemplate(ctx, tpl)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("version", out.VersionNumber().String()).Msg("template published")
	return out, nil
}

func (s *TemplateService) Versions(ctx context.Context, pageSize int) ([]model.Version, error) {
	return s.api.ListVersions(ctx, pageSize)
}

func (s *TemplateService) Rollback(ctx context.Context, version model.VersionNumber) (*model.Template, error) {
	if version <= 0 {
		return nil, fmt.Errorf("%w: version number must be positive", model.ErrValidation)
	}
	out, err := s.api.Rollback(ctx, version)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("source", version.String()).
		Str("version", out.VersionNumber().String()).
		Msg("template rolled back")
	return out, nil
}

func checkPrecondition(etag string, tpl *model.Template) error {
	if etag == "" || etag == tpl.ETag {
		return nil
	}
	return fmt.Errorf("%w: template changed since it was loaded (etag %s, current %s)", model.ErrConflict, etag, tpl.ETag)
}
