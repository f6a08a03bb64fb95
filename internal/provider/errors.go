package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Graph error codes for application, account and page level rate limits.
var throttlingGraphCodes = map[int]struct{}{
	4:   {},
	17:  {},
	32:  {},
	613: {},
}

// ProviderError carries a Graph API failure as reported by the provider.
// Transient marks failures a caller may choose to resubmit; nothing in
// this service retries on its own.
type ProviderError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
	Subcode    int
	TraceID    string
	Transient  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "provider error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Code > 0 {
		parts = append(parts, fmt.Sprintf("code=%d", e.Code))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// UserMessage is the provider text suitable for showing to an operator.
func (e *ProviderError) UserMessage() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return "provider request failed"
}

// Throttled reports whether the Graph API rejected the send for exceeding
// a rate limit on the sending account or app.
func (e *ProviderError) Throttled() bool {
	if e == nil {
		return false
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	_, ok := throttlingGraphCodes[e.Code]
	return ok
}

// IsThrottled reports whether err carries a throttled ProviderError.
func IsThrottled(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Throttled()
}

// IsTransient reports whether an error looks like a network or throttling
// failure rather than a rejection of the message itself.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
