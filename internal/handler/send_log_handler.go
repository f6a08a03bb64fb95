package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

type SendLogService interface {
	SendLogs(ctx context.Context) ([]domain.SendLogEntry, error)
	ClearSendLogs(ctx context.Context) error
}

type SendLogHandler struct {
	service SendLogService
}

func NewSendLogHandler(service SendLogService) (*SendLogHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("send log service is required")
	}
	return &SendLogHandler{service: service}, nil
}

func RegisterSendLogRoutes(router fiber.Router, service SendLogService) error {
	h, err := NewSendLogHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/send-logs", h.ListSendLogs)
	v1.Delete("/send-logs", h.ClearSendLogs)

	return nil
}

type sendLogResponse struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Message     string    `json:"message"`
	Tag         string    `json:"tag,omitempty"`
	ResultID    string    `json:"resultId"`
	Timestamp   time.Time `json:"timestamp"`
}

type listSendLogsResponse struct {
	Data []sendLogResponse `json:"data"`
}

func (h *SendLogHandler) ListSendLogs(c *fiber.Ctx) error {
	entries, err := h.service.SendLogs(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]sendLogResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, sendLogResponse{
			ID:          e.ID,
			RecipientID: e.RecipientID,
			Message:     e.Message,
			Tag:         e.Tag.String(),
			ResultID:    e.ResultID,
			Timestamp:   e.Timestamp,
		})
	}

	return c.Status(fiber.StatusOK).JSON(listSendLogsResponse{Data: data})
}

func (h *SendLogHandler) ClearSendLogs(c *fiber.Ctx) error {
	if err := h.service.ClearSendLogs(c.UserContext()); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
