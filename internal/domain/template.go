package domain

import (
	"fmt"
	"strings"
	"time"
)

// Template is a reusable message blueprint. Text may carry merge
// placeholders such as {{first_name}}; they are sent unexpanded.
type Template struct {
	ID        string
	Name      string
	Text      string
	Tag       MessagingTag
	CTALabel  *string
	CTAURL    *string
	CreatedAt time.Time
}

// HasCTA reports whether the template carries a call-to-action button.
func (t *Template) HasCTA() bool {
	return t.CTALabel != nil && t.CTAURL != nil
}

func (t *Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: template id is required", ErrValidation)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", ErrValidation)
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("%w: template text is required", ErrValidation)
	}
	if !t.Tag.IsValid() {
		return fmt.Errorf("%w: invalid messaging tag %q", ErrValidation, t.Tag)
	}
	return ValidateCTA(t.CTALabel, t.CTAURL)
}

// Clone returns a deep copy that shares no memory with t.
func (t *Template) Clone() Template {
	c := *t
	c.CTALabel = cloneString(t.CTALabel)
	c.CTAURL = cloneString(t.CTAURL)
	return c
}

// DispatchDefaults exposes the template fields as a prefilled request.
// The returned request shares no memory with the template.
func (t *Template) DispatchDefaults(recipientID string) DispatchRequest {
	return DispatchRequest{
		RecipientID:  recipientID,
		Message:      t.Text,
		MessagingTag: t.Tag.String(),
		CTALabel:     cloneString(t.CTALabel),
		CTAURL:       cloneString(t.CTAURL),
	}
}

// TemplateDraft is the operator input for a new template.
type TemplateDraft struct {
	Name     string
	Text     string
	Tag      string
	CTALabel *string
	CTAURL   *string
}

// ValidateCTA enforces that a button has both a label and a destination.
func ValidateCTA(label, url *string) error {
	if (label == nil) != (url == nil) {
		return fmt.Errorf("%w: cta label and cta url must be provided together", ErrValidation)
	}
	return nil
}

// TrimOptional trims v and maps empty results to nil.
func TrimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func strPtr(v string) *string { return &v }

// StarterTemplates is the fixed set used when no templates were ever stored.
func StarterTemplates() []Template {
	return []Template{
		{
			ID:       "template-welcome",
			Name:     "Welcome Flow",
			Text:     "Hey {{first_name}}! Thanks for connecting with us. Here's a special welcome offer just for you.",
			Tag:      TagAccountUpdate,
			CTALabel: strPtr("Claim Offer"),
			CTAURL:   strPtr("https://example.com/welcome"),
		},
		{
			ID:   "template-abandoned",
			Name: "Abandoned Cart Nudge",
			Text: "Still thinking about {{product_name}}? It's waiting in your cart. Need any help to complete the order?",
			Tag:  TagPostPurchaseUpdate,
		},
		{
			ID:       "template-feedback",
			Name:     "Feedback Request",
			Text:     "We hope your experience was amazing! Would you mind telling us how it went?",
			Tag:      TagCustomerFeedback,
			CTALabel: strPtr("Leave Feedback"),
			CTAURL:   strPtr("https://example.com/feedback"),
		},
	}
}
