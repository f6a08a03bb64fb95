package domain

import "time"

// MaxSendLogEntries bounds the delivery history kept by the send log.
const MaxSendLogEntries = 25

// DispatchRequest is a single send attempt as submitted by the composer.
// MessagingTag stays raw so that validation happens in one place.
type DispatchRequest struct {
	RecipientID       string
	Message           string
	MessagingTag      string
	CTALabel          *string
	CTAURL            *string
	AccessToken       *string
	BusinessAccountID *string
}

// SendLogEntry is the immutable audit record of a successful dispatch.
type SendLogEntry struct {
	ID          string
	RecipientID string
	Message     string
	Tag         MessagingTag
	ResultID    string
	Timestamp   time.Time
}

// Credentials authorize a send on behalf of an Instagram business account.
// Empty fields mean "not supplied".
type Credentials struct {
	AccessToken       string
	BusinessAccountID string
}
