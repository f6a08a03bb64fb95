package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

type TemplateService interface {
	Create(ctx context.Context, draft domain.TemplateDraft) (*domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Get(ctx context.Context, id string) (*domain.Template, error)
	Delete(ctx context.Context, id string) error
}

type TemplateHandler struct {
	service TemplateService
}

func NewTemplateHandler(service TemplateService) (*TemplateHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("template service is required")
	}
	return &TemplateHandler{service: service}, nil
}

func RegisterTemplateRoutes(router fiber.Router, service TemplateService) error {
	h, err := NewTemplateHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/templates", h.ListTemplates)
	v1.Post("/templates", h.CreateTemplate)
	v1.Get("/templates/:id", h.GetTemplate)
	v1.Delete("/templates/:id", h.DeleteTemplate)

	return nil
}

type createTemplateRequest struct {
	Name     string  `json:"name"`
	Text     string  `json:"text"`
	Tag      string  `json:"tag"`
	CTALabel *string `json:"ctaLabel,omitempty"`
	CTAURL   *string `json:"ctaUrl,omitempty"`
}

type templateResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Tag       string    `json:"tag"`
	CTALabel  *string   `json:"ctaLabel,omitempty"`
	CTAURL    *string   `json:"ctaUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type listTemplatesResponse struct {
	Data []templateResponse `json:"data"`
}

func (h *TemplateHandler) CreateTemplate(c *fiber.Ctx) error {
	var req createTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.Create(c.UserContext(), domain.TemplateDraft{
		Name:     req.Name,
		Text:     req.Text,
		Tag:      req.Tag,
		CTALabel: req.CTALabel,
		CTAURL:   req.CTAURL,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTemplateResponse(created))
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	templates, err := h.service.List(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]templateResponse, 0, len(templates))
	for i := range templates {
		data = append(data, toTemplateResponse(&templates[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listTemplatesResponse{Data: data})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	template, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toTemplateResponse(template))
}

func (h *TemplateHandler) DeleteTemplate(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func toTemplateResponse(t *domain.Template) templateResponse {
	if t == nil {
		return templateResponse{}
	}

	return templateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Text:      t.Text,
		Tag:       t.Tag.String(),
		CTALabel:  t.CTALabel,
		CTAURL:    t.CTAURL,
		CreatedAt: t.CreatedAt,
	}
}
