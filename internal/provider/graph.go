package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"github.com/kursadbilgin/igdm-dispatch/internal/payload"
)

const (
	DefaultGraphBaseURL    = "https://graph.facebook.com"
	DefaultGraphAPIVersion = "v19.0"
)

// Graph error codes that signal throttling or a temporary outage.
var transientGraphCodes = map[int]struct{}{
	1:   {},
	2:   {},
	4:   {},
	17:  {},
	32:  {},
	613: {},
}

type GraphConfig struct {
	BaseURL    string
	APIVersion string
	// Defaults are used for any credential field a request leaves empty.
	Defaults domain.Credentials
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration
}

type graphSendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

type graphErrorEnvelope struct {
	Error *graphError `json:"error"`
}

type graphError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}

// GraphClient sends Instagram direct messages through the Graph API.
type GraphClient struct {
	client     *resty.Client
	baseURL    string
	apiVersion string
	defaults   domain.Credentials
}

var _ Sender = (*GraphClient)(nil)

func NewGraphClient(cfg GraphConfig) (*GraphClient, error) {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	client.SetRetryCount(0)

	return NewGraphClientWithClient(cfg, client)
}

func NewGraphClientWithClient(cfg GraphConfig, client *resty.Client) (*GraphClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid graph base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	apiVersion := strings.Trim(strings.TrimSpace(cfg.APIVersion), "/")
	if apiVersion == "" {
		apiVersion = DefaultGraphAPIVersion
	}

	client.SetRetryCount(0)

	return &GraphClient{
		client:     client,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		defaults: domain.Credentials{
			AccessToken:       strings.TrimSpace(cfg.Defaults.AccessToken),
			BusinessAccountID: strings.TrimSpace(cfg.Defaults.BusinessAccountID),
		},
	}, nil
}

// ResolveCredentials fills the fields override leaves empty from the
// client's configured defaults.
func (c *GraphClient) ResolveCredentials(override domain.Credentials) (domain.Credentials, error) {
	if c == nil {
		return domain.Credentials{}, fmt.Errorf("graph client is not initialized")
	}
	return ResolveCredentials(override, c.defaults)
}

// Send performs exactly one POST to the account's messages edge.
// Credential resolution failures return before any network traffic.
func (c *GraphClient) Send(ctx context.Context, wire payload.WirePayload, override domain.Credentials) (*SendResult, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("graph client is not initialized")
	}

	creds, err := c.ResolveCredentials(override)
	if err != nil {
		return nil, err
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(creds.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(wire).
		Post(c.messagesURL(creds.BusinessAccountID))
	if err != nil {
		return nil, &ProviderError{
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &ProviderError{
			Message:   "provider returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	body := response.Body()

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		var sent graphSendResponse
		if err := json.Unmarshal(body, &sent); err != nil || strings.TrimSpace(sent.MessageID) == "" {
			return nil, &ProviderError{
				StatusCode: statusCode,
				Message:    providerErrorMessage(statusCode, strings.TrimSpace(string(body))),
			}
		}
		return &SendResult{
			StatusCode:  statusCode,
			MessageID:   sent.MessageID,
			RecipientID: sent.RecipientID,
		}, nil
	}

	return nil, graphFailure(statusCode, body)
}

func (c *GraphClient) messagesURL(businessAccountID string) string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, url.PathEscape(businessAccountID))
}

func graphFailure(statusCode int, body []byte) *ProviderError {
	var envelope graphErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		_, transientCode := transientGraphCodes[envelope.Error.Code]
		return &ProviderError{
			StatusCode: statusCode,
			Message:    envelope.Error.Message,
			Type:       envelope.Error.Type,
			Code:       envelope.Error.Code,
			Subcode:    envelope.Error.Subcode,
			TraceID:    envelope.Error.FBTraceID,
			Transient:  transientCode || isTransientHTTPStatus(statusCode),
		}
	}

	return &ProviderError{
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, strings.TrimSpace(string(body))),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func providerErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("provider returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
