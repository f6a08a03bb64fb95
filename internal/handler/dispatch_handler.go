package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"github.com/kursadbilgin/igdm-dispatch/internal/service"
)

type DispatchService interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) (*domain.SendLogEntry, error)
}

type DispatchHandler struct {
	service DispatchService
}

func NewDispatchHandler(service DispatchService) (*DispatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch service is required")
	}
	return &DispatchHandler{service: service}, nil
}

func RegisterDispatchRoutes(router fiber.Router, service DispatchService) error {
	h, err := NewDispatchHandler(service)
	if err != nil {
		return err
	}

	router.Post("/api/send-dm", h.SendDM)
	return nil
}

type sendDMRequest struct {
	RecipientID       string  `json:"recipientId"`
	Message           string  `json:"message"`
	MessagingTag      string  `json:"messagingTag"`
	CTALabel          *string `json:"ctaLabel,omitempty"`
	CTAURL            *string `json:"ctaUrl,omitempty"`
	AccessToken       *string `json:"accessToken,omitempty"`
	BusinessAccountID *string `json:"businessAccountId,omitempty"`
}

type sendDMResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendDM answers with the {success, id|error} envelope the composer expects,
// including on failure, instead of deferring to the error handler.
func (h *DispatchHandler) SendDM(c *fiber.Ctx) error {
	var req sendDMRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(sendDMResponse{
			Success: false,
			Error:   "invalid request body",
		})
	}

	entry, err := h.service.Dispatch(c.UserContext(), domain.DispatchRequest{
		RecipientID:       req.RecipientID,
		Message:           req.Message,
		MessagingTag:      req.MessagingTag,
		CTALabel:          req.CTALabel,
		CTAURL:            req.CTAURL,
		AccessToken:       req.AccessToken,
		BusinessAccountID: req.BusinessAccountID,
	})
	if err != nil {
		status, message := dispatchFailure(err)
		return c.Status(status).JSON(sendDMResponse{
			Success: false,
			Error:   message,
		})
	}

	return c.Status(fiber.StatusOK).JSON(sendDMResponse{
		Success: true,
		ID:      entry.ResultID,
	})
}

func dispatchFailure(err error) (int, string) {
	var dispatchErr *service.DispatchError
	if !errors.As(err, &dispatchErr) {
		return fiber.StatusInternalServerError, "failed to send message"
	}

	switch dispatchErr.Kind {
	case service.KindValidation:
		return fiber.StatusBadRequest, dispatchErr.Message
	case service.KindConfiguration:
		return fiber.StatusInternalServerError, dispatchErr.Message
	default:
		return fiber.StatusBadGateway, dispatchErr.Message
	}
}
