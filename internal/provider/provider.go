package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"github.com/kursadbilgin/igdm-dispatch/internal/payload"
)

// Sender is the outbound Instagram messaging port. It owns the default
// credentials; ResolveCredentials applies a request's overrides on top of them.
type Sender interface {
	ResolveCredentials(override domain.Credentials) (domain.Credentials, error)
	Send(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*SendResult, error)
}

// SendResult stores provider call metadata for the send log.
type SendResult struct {
	StatusCode  int
	MessageID   string
	RecipientID string
}

// ResolveCredentials applies per-request overrides on top of the process
// defaults, field by field.
func ResolveCredentials(override, defaults domain.Credentials) (domain.Credentials, error) {
	resolved := domain.Credentials{
		AccessToken:       firstNonEmpty(override.AccessToken, defaults.AccessToken),
		BusinessAccountID: firstNonEmpty(override.BusinessAccountID, defaults.BusinessAccountID),
	}

	if resolved.AccessToken == "" {
		return domain.Credentials{}, fmt.Errorf("%w: no access token configured or supplied", domain.ErrConfiguration)
	}
	if resolved.BusinessAccountID == "" {
		return domain.Credentials{}, fmt.Errorf("%w: no business account id configured or supplied", domain.ErrConfiguration)
	}

	return resolved, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
