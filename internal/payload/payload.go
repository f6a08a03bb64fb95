package payload

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

const (
	messagingTypeTag   = "MESSAGE_TAG"
	attachmentTemplate = "template"
	templateTypeButton = "button"
	buttonTypeWebURL   = "web_url"
)

// WirePayload is the Graph API send-message body.
type WirePayload struct {
	Recipient     Recipient `json:"recipient"`
	MessagingType string    `json:"messaging_type"`
	Tag           string    `json:"tag"`
	Message       Message   `json:"message"`
}

type Recipient struct {
	ID string `json:"id"`
}

// Message holds either plain text or a button template attachment, never both.
type Message struct {
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

type Attachment struct {
	Type    string         `json:"type"`
	Payload ButtonTemplate `json:"payload"`
}

type ButtonTemplate struct {
	TemplateType string   `json:"template_type"`
	Text         string   `json:"text"`
	Buttons      []Button `json:"buttons"`
}

type Button struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Text returns the message text regardless of the payload shape.
func (p WirePayload) Text() string {
	if p.Message.Attachment != nil {
		return p.Message.Attachment.Payload.Text
	}
	return p.Message.Text
}

// Buttons returns the CTA buttons, nil when the message has none.
func (p WirePayload) Buttons() []Button {
	if p.Message.Attachment == nil {
		return nil
	}
	return p.Message.Attachment.Payload.Buttons
}

// Built is a normalized dispatch: the wire body plus the caller's
// credential overrides, which never travel in the body.
type Built struct {
	Payload     WirePayload
	Tag         domain.MessagingTag
	Credentials domain.Credentials
}

// Build validates req and turns it into a wire payload. It performs no I/O.
func Build(req domain.DispatchRequest) (Built, error) {
	recipientID := strings.TrimSpace(req.RecipientID)
	if recipientID == "" {
		return Built{}, fmt.Errorf("%w: recipient id is required", domain.ErrValidation)
	}

	text := strings.TrimSpace(req.Message)
	if text == "" {
		return Built{}, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}

	tag, err := domain.ParseMessagingTag(req.MessagingTag)
	if err != nil {
		return Built{}, err
	}

	ctaLabel := domain.TrimOptional(req.CTALabel)
	ctaURL := domain.TrimOptional(req.CTAURL)
	if err := domain.ValidateCTA(ctaLabel, ctaURL); err != nil {
		return Built{}, err
	}

	wire := WirePayload{
		Recipient:     Recipient{ID: recipientID},
		MessagingType: messagingTypeTag,
		Tag:           tag.String(),
	}
	if ctaLabel != nil {
		wire.Message.Attachment = &Attachment{
			Type: attachmentTemplate,
			Payload: ButtonTemplate{
				TemplateType: templateTypeButton,
				Text:         text,
				Buttons: []Button{{
					Type:  buttonTypeWebURL,
					URL:   *ctaURL,
					Title: *ctaLabel,
				}},
			},
		}
	} else {
		wire.Message.Text = text
	}

	return Built{
		Payload: wire,
		Tag:     tag,
		Credentials: domain.Credentials{
			AccessToken:       optionalValue(req.AccessToken),
			BusinessAccountID: optionalValue(req.BusinessAccountID),
		},
	}, nil
}

func optionalValue(v *string) string {
	if trimmed := domain.TrimOptional(v); trimmed != nil {
		return *trimmed
	}
	return ""
}
