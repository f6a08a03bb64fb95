package domain

import (
	"fmt"
	"strings"
)

// MessagingTag permits delivery outside the standard messaging window.
type MessagingTag string

const (
	TagConfirmedEventUpdate MessagingTag = "CONFIRMED_EVENT_UPDATE"
	TagPostPurchaseUpdate   MessagingTag = "POST_PURCHASE_UPDATE"
	TagAccountUpdate        MessagingTag = "ACCOUNT_UPDATE"
	TagHumanAgent           MessagingTag = "HUMAN_AGENT"
	TagCustomerFeedback     MessagingTag = "CUSTOMER_FEEDBACK"
)

var messagingTags = []MessagingTag{
	TagConfirmedEventUpdate,
	TagPostPurchaseUpdate,
	TagAccountUpdate,
	TagHumanAgent,
	TagCustomerFeedback,
}

func (t MessagingTag) String() string { return string(t) }

func (t MessagingTag) IsValid() bool {
	switch t {
	case TagConfirmedEventUpdate, TagPostPurchaseUpdate, TagAccountUpdate, TagHumanAgent, TagCustomerFeedback:
		return true
	}
	return false
}

// ParseMessagingTag matches tags exactly; only surrounding whitespace is ignored.
func ParseMessagingTag(s string) (MessagingTag, error) {
	tag := MessagingTag(strings.TrimSpace(s))
	if !tag.IsValid() {
		return "", fmt.Errorf("%w: invalid messaging tag %q", ErrValidation, s)
	}
	return tag, nil
}

// MessagingTags returns the closed tag enumeration in display order.
func MessagingTags() []MessagingTag {
	tags := make([]MessagingTag, len(messagingTags))
	copy(tags, messagingTags)
	return tags
}
