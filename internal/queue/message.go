package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

// DispatchEvent is the broker payload emitted after a successful send.
type DispatchEvent struct {
	LogID       string              `json:"logId"`
	RecipientID string              `json:"recipientId"`
	MessageID   string              `json:"messageId"`
	Tag         domain.MessagingTag `json:"tag,omitempty"`
	RequestID   string              `json:"requestId,omitempty"`
	SentAt      time.Time           `json:"sentAt"`
}

// NewSentEvent builds the event for a recorded send log entry.
func NewSentEvent(entry domain.SendLogEntry, requestID string) DispatchEvent {
	return DispatchEvent{
		LogID:       entry.ID,
		RecipientID: entry.RecipientID,
		MessageID:   entry.ResultID,
		Tag:         entry.Tag,
		RequestID:   requestID,
		SentAt:      entry.Timestamp,
	}
}

func (e DispatchEvent) Validate() error {
	if strings.TrimSpace(e.LogID) == "" {
		return fmt.Errorf("logId is required")
	}
	if strings.TrimSpace(e.MessageID) == "" {
		return fmt.Errorf("messageId is required")
	}
	if e.Tag != "" && !e.Tag.IsValid() {
		return fmt.Errorf("invalid tag %q", e.Tag)
	}
	return nil
}
