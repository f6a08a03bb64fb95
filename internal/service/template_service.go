package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"github.com/kursadbilgin/igdm-dispatch/internal/observability"
	"github.com/kursadbilgin/igdm-dispatch/internal/repository"
	"go.uber.org/zap"
)

const templateIDPrefix = "template-"

type TemplateService struct {
	templates repository.TemplateStore
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewTemplateService(templates repository.TemplateStore, logger *zap.Logger) (*TemplateService, error) {
	if templates == nil {
		return nil, fmt.Errorf("template store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TemplateService{
		templates: templates,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return templateIDPrefix + uuid.NewString() },
	}, nil
}

// Create stores a new template built from draft. Name and text are
// trimmed; blank CTA fields count as absent.
func (s *TemplateService) Create(ctx context.Context, draft domain.TemplateDraft) (*domain.Template, error) {
	tag, err := domain.ParseMessagingTag(draft.Tag)
	if err != nil {
		return nil, err
	}

	template := &domain.Template{
		ID:        s.newID(),
		Name:      strings.TrimSpace(draft.Name),
		Text:      strings.TrimSpace(draft.Text),
		Tag:       tag,
		CTALabel:  domain.TrimOptional(draft.CTALabel),
		CTAURL:    domain.TrimOptional(draft.CTAURL),
		CreatedAt: s.now().UTC(),
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}

	if err := s.templates.Save(ctx, template); err != nil {
		return nil, err
	}

	observability.WithContextLogger(s.logger, ctx).Info("template created",
		zap.String("templateId", template.ID),
		zap.String("tag", template.Tag.String()),
	)

	return template, nil
}

// List returns every template, most recently saved first.
func (s *TemplateService) List(ctx context.Context) ([]domain.Template, error) {
	return s.templates.List(ctx)
}

// Get returns a copy of the template; callers may edit it freely.
func (s *TemplateService) Get(ctx context.Context, id string) (*domain.Template, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: template id is required", domain.ErrValidation)
	}

	template, err := s.templates.SelectByID(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := template.Clone()
	return &clone, nil
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: template id is required", domain.ErrValidation)
	}

	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}

	observability.WithContextLogger(s.logger, ctx).Info("template deleted", zap.String("templateId", id))
	return nil
}

// EnsureStarterTemplates seeds the starter set into an empty store. The
// starters are saved oldest first so that List shows them in their
// canonical order.
func (s *TemplateService) EnsureStarterTemplates(ctx context.Context) error {
	count, err := s.templates.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	starters := domain.StarterTemplates()
	now := s.now().UTC()
	for i := len(starters) - 1; i >= 0; i-- {
		starter := starters[i]
		starter.CreatedAt = now
		if err := s.templates.Save(ctx, &starter); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", starter.ID, err)
		}
	}

	s.logger.Info("starter templates seeded", zap.Int("count", len(starters)))
	return nil
}
