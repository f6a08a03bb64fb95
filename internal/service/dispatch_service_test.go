package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"github.com/kursadbilgin/igdm-dispatch/internal/observability"
	"github.com/kursadbilgin/igdm-dispatch/internal/payload"
	"github.com/kursadbilgin/igdm-dispatch/internal/provider"
	"github.com/kursadbilgin/igdm-dispatch/internal/queue"
	"github.com/kursadbilgin/igdm-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/igdm-dispatch/internal/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testDefaults = domain.Credentials{AccessToken: "env-token", BusinessAccountID: "env-account"}

func newTestDispatchService(t *testing.T, sender provider.Sender, logs repository.SendLogStore, limiter ratelimit.RateLimiter) *DispatchService {
	t.Helper()

	svc, err := NewDispatchService(sender, logs, limiter, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDispatchService() error = %v", err)
	}
	svc.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return svc
}

func TestDispatchServiceDispatchSuccess(t *testing.T) {
	t.Parallel()

	var gotWire payload.WirePayload
	var gotCreds domain.Credentials
	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			gotWire = wire
			gotCreds = creds
			return &provider.SendResult{StatusCode: 200, MessageID: "mid.1"}, nil
		},
	}
	logs := newMemorySendLogStore()
	svc := newTestDispatchService(t, sender, logs, nil)
	svc.newID = func() string { return "log-1" }

	entry, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:  "17841400000000000",
		Message:      "Hi!",
		MessagingTag: "ACCOUNT_UPDATE",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if entry.ID != "log-1" || entry.ResultID != "mid.1" {
		t.Fatalf("entry = %+v, want id log-1 and result mid.1", entry)
	}
	if entry.Message != "Hi!" || entry.Tag != domain.TagAccountUpdate {
		t.Fatalf("entry = %+v", entry)
	}
	if !entry.Timestamp.Equal(time.Unix(1_700_000_000, 0)) || entry.Timestamp.Location() != time.UTC {
		t.Fatalf("Timestamp = %v, want UTC 1700000000", entry.Timestamp)
	}
	if gotWire.Message.Text != "Hi!" || gotWire.Recipient.ID != "17841400000000000" {
		t.Fatalf("wire payload = %+v", gotWire)
	}
	if gotCreds != testDefaults {
		t.Fatalf("credentials = %+v, want defaults", gotCreds)
	}

	stored, _ := logs.List(context.Background())
	if len(stored) != 1 || stored[0].Message != "Hi!" {
		t.Fatalf("stored logs = %+v, want one entry with message Hi!", stored)
	}
}

func TestDispatchServiceDispatchCTAMessageIsLogged(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			if len(wire.Buttons()) != 1 {
				t.Fatalf("buttons = %d, want 1", len(wire.Buttons()))
			}
			return &provider.SendResult{MessageID: "mid.cta"}, nil
		},
	}
	logs := newMemorySendLogStore()
	svc := newTestDispatchService(t, sender, logs, nil)

	label := "Claim Offer"
	url := "https://example.com/welcome"
	entry, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:  "17841400000000000",
		Message:      " Welcome aboard ",
		MessagingTag: "ACCOUNT_UPDATE",
		CTALabel:     &label,
		CTAURL:       &url,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if entry.Message != "Welcome aboard" {
		t.Fatalf("Message = %q, want trimmed text", entry.Message)
	}
}

func TestDispatchServiceDispatchValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     domain.DispatchRequest
		wantMsg string
	}{
		{
			name:    "blank recipient",
			req:     domain.DispatchRequest{RecipientID: "  ", Message: "hello", MessagingTag: "ACCOUNT_UPDATE"},
			wantMsg: "recipient id is required",
		},
		{
			name:    "blank message",
			req:     domain.DispatchRequest{RecipientID: "1784", Message: "\t", MessagingTag: "ACCOUNT_UPDATE"},
			wantMsg: "message is required",
		},
		{
			name:    "invalid tag",
			req:     domain.DispatchRequest{RecipientID: "1784", Message: "hello", MessagingTag: "INVALID_TAG"},
			wantMsg: "INVALID_TAG",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{
				sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
					t.Fatal("sender must not be called for invalid requests")
					return nil, nil
				},
			}
			logs := newMemorySendLogStore()
			svc := newTestDispatchService(t, sender, logs, nil)

			_, err := svc.Dispatch(context.Background(), tt.req)

			var dispatchErr *DispatchError
			if !errors.As(err, &dispatchErr) {
				t.Fatalf("Dispatch() error = %T (%v), want *DispatchError", err, err)
			}
			if dispatchErr.Kind != KindValidation {
				t.Fatalf("Kind = %s, want validation", dispatchErr.Kind)
			}
			if dispatchErr.Stage != StageValidating {
				t.Fatalf("Stage = %s, want validating", dispatchErr.Stage)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("errors.Is(err, ErrValidation) = false for %v", err)
			}
			if !strings.Contains(dispatchErr.Message, tt.wantMsg) {
				t.Fatalf("Message = %q, want it to contain %q", dispatchErr.Message, tt.wantMsg)
			}
			if logs.appends != 0 {
				t.Fatalf("appends = %d, want 0", logs.appends)
			}
		})
	}
}

func TestDispatchServiceDispatchMissingCredentials(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		defaults: &domain.Credentials{},
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			t.Fatal("sender must not be called without credentials")
			return nil, nil
		},
	}
	logs := newMemorySendLogStore()
	svc, err := NewDispatchService(sender, logs, nil, nil)
	if err != nil {
		t.Fatalf("NewDispatchService() error = %v", err)
	}

	_, err = svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "HUMAN_AGENT",
	})

	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) || dispatchErr.Kind != KindConfiguration {
		t.Fatalf("Dispatch() error = %v, want configuration DispatchError", err)
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("errors.Is(err, ErrConfiguration) = false for %v", err)
	}
	if logs.appends != 0 {
		t.Fatalf("appends = %d, want 0", logs.appends)
	}
}

func TestDispatchServiceDispatchOverridesBeatDefaults(t *testing.T) {
	t.Parallel()

	var gotCreds domain.Credentials
	var limitedAccount string
	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			gotCreds = creds
			return &provider.SendResult{MessageID: "mid.2"}, nil
		},
	}
	limiter := &fakeRateLimiter{
		waitFn: func(ctx context.Context, creds domain.Credentials) error {
			limitedAccount = creds.BusinessAccountID
			return nil
		},
	}
	svc := newTestDispatchService(t, sender, newMemorySendLogStore(), limiter)

	token := " req-token "
	account := "req-account"
	_, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:       "1784",
		Message:           "hello",
		MessagingTag:      "POST_PURCHASE_UPDATE",
		AccessToken:       &token,
		BusinessAccountID: &account,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := domain.Credentials{AccessToken: "req-token", BusinessAccountID: "req-account"}
	if gotCreds != want {
		t.Fatalf("credentials = %+v, want %+v", gotCreds, want)
	}
	if limitedAccount != "req-account" {
		t.Fatalf("rate limiter account = %q, want req-account", limitedAccount)
	}
}

func TestDispatchServiceDispatchProviderFailure(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			return nil, &provider.ProviderError{
				StatusCode: 400,
				Message:    "Invalid OAuth access token.",
				Code:       190,
			}
		},
	}
	logs := newMemorySendLogStore()
	svc := newTestDispatchService(t, sender, logs, nil)

	_, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "CUSTOMER_FEEDBACK",
	})

	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("Dispatch() error = %v, want *DispatchError", err)
	}
	if dispatchErr.Kind != KindProvider || dispatchErr.Stage != StageSending {
		t.Fatalf("Kind/Stage = %s/%s, want provider/sending", dispatchErr.Kind, dispatchErr.Stage)
	}
	if dispatchErr.Message != "Invalid OAuth access token." {
		t.Fatalf("Message = %q", dispatchErr.Message)
	}
	var providerErr *provider.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Code != 190 {
		t.Fatalf("errors.As(ProviderError) failed for %v", err)
	}
	if logs.appends != 0 {
		t.Fatalf("appends = %d, want 0", logs.appends)
	}
}

func TestDispatchServiceThrottledAccountCoolsDown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		sendErr      error
		wantCooldown bool
	}{
		{
			name:         "graph rate limit code",
			sendErr:      &provider.ProviderError{StatusCode: 400, Code: 613, Message: "Calls to this api have exceeded the rate limit."},
			wantCooldown: true,
		},
		{
			name:         "too many requests",
			sendErr:      &provider.ProviderError{StatusCode: 429, Message: "slow down"},
			wantCooldown: true,
		},
		{
			name:    "rejected message",
			sendErr: &provider.ProviderError{StatusCode: 400, Code: 100, Message: "Invalid parameter"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{
				sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
					return nil, tt.sendErr
				},
			}
			var cooled []domain.Credentials
			var cooldown time.Duration
			limiter := &fakeRateLimiter{
				cooldownFn: func(ctx context.Context, creds domain.Credentials, d time.Duration) error {
					cooled = append(cooled, creds)
					cooldown = d
					return nil
				},
			}
			svc := newTestDispatchService(t, sender, newMemorySendLogStore(), limiter)

			_, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
				RecipientID:  "1784",
				Message:      "hello",
				MessagingTag: "ACCOUNT_UPDATE",
			})
			var dispatchErr *DispatchError
			if !errors.As(err, &dispatchErr) || dispatchErr.Kind != KindProvider {
				t.Fatalf("Dispatch() error = %v, want provider DispatchError", err)
			}

			if !tt.wantCooldown {
				if len(cooled) != 0 {
					t.Fatalf("cooldowns = %v, want none", cooled)
				}
				return
			}
			if len(cooled) != 1 || cooled[0] != testDefaults {
				t.Fatalf("cooldowns = %v, want one for %+v", cooled, testDefaults)
			}
			if cooldown != defaultThrottleCooldown {
				t.Fatalf("cooldown = %v, want %v", cooldown, defaultThrottleCooldown)
			}
		})
	}
}

func TestDispatchServiceDispatchRateLimiterAbort(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			t.Fatal("sender must not be called when the limiter aborts")
			return nil, nil
		},
	}
	limiter := &fakeRateLimiter{
		waitFn: func(ctx context.Context, creds domain.Credentials) error {
			return context.Canceled
		},
	}
	svc := newTestDispatchService(t, sender, newMemorySendLogStore(), limiter)

	_, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "ACCOUNT_UPDATE",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Dispatch() error = %v, want context.Canceled in chain", err)
	}
}

func TestDispatchServiceDispatchSendIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sender := &fakeSender{
		sendFn: func(sendCtx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			cancel()
			if err := sendCtx.Err(); err != nil {
				t.Fatalf("send context error = %v, want nil after caller cancel", err)
			}
			return &provider.SendResult{MessageID: "mid.3"}, nil
		},
	}
	logs := newMemorySendLogStore()
	svc := newTestDispatchService(t, sender, logs, nil)

	if _, err := svc.Dispatch(ctx, domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "ACCOUNT_UPDATE",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if logs.appends != 1 {
		t.Fatalf("appends = %d, want 1", logs.appends)
	}
}

func TestDispatchServiceDispatchLogAppendFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.ErrorLevel)
	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			return &provider.SendResult{MessageID: "mid.4"}, nil
		},
	}
	logs := newMemorySendLogStore()
	logs.appendErr = errors.New("redis down")

	svc, err := NewDispatchService(sender, logs, nil, zap.New(core))
	if err != nil {
		t.Fatalf("NewDispatchService() error = %v", err)
	}

	ctx := observability.WithRequestID(context.Background(), "req-1")
	entry, err := svc.Dispatch(ctx, domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "ACCOUNT_UPDATE",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v, want success", err)
	}
	if entry.ResultID != "mid.4" {
		t.Fatalf("ResultID = %q, want mid.4", entry.ResultID)
	}

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("error logs = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["messageId"] != "mid.4" || fields["requestId"] != "req-1" {
		t.Fatalf("log fields = %v", fields)
	}
}

func TestDispatchServiceSendLogKeepsMostRecent(t *testing.T) {
	t.Parallel()

	calls := 0
	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			calls++
			return &provider.SendResult{MessageID: fmt.Sprintf("mid.%d", calls)}, nil
		},
	}
	logs := newMemorySendLogStore()
	svc := newTestDispatchService(t, sender, logs, nil)

	for i := 1; i <= 30; i++ {
		if _, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
			RecipientID:  "1784",
			Message:      fmt.Sprintf("message %d", i),
			MessagingTag: "ACCOUNT_UPDATE",
		}); err != nil {
			t.Fatalf("Dispatch(%d) error = %v", i, err)
		}
	}

	got, err := svc.SendLogs(context.Background())
	if err != nil {
		t.Fatalf("SendLogs() error = %v", err)
	}
	if len(got) != domain.MaxSendLogEntries {
		t.Fatalf("len(SendLogs()) = %d, want %d", len(got), domain.MaxSendLogEntries)
	}
	if got[0].Message != "message 30" || got[len(got)-1].Message != "message 6" {
		t.Fatalf("head/tail = %q/%q, want message 30/message 6", got[0].Message, got[len(got)-1].Message)
	}

	if err := svc.ClearSendLogs(context.Background()); err != nil {
		t.Fatalf("ClearSendLogs() error = %v", err)
	}
	got, _ = svc.SendLogs(context.Background())
	if len(got) != 0 {
		t.Fatalf("len(SendLogs()) after clear = %d, want 0", len(got))
	}
}

func TestDispatchServicePublishesSentEvent(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			return &provider.SendResult{MessageID: "mid.ev"}, nil
		},
	}
	publisher := &fakePublisher{}
	svc := newTestDispatchService(t, sender, newMemorySendLogStore(), nil)
	svc.SetEventPublisher(publisher)
	svc.newID = func() string { return "log-ev" }

	ctx := observability.WithRequestID(context.Background(), "req-ev")
	if _, err := svc.Dispatch(ctx, domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "CONFIRMED_EVENT_UPDATE",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.events))
	}
	got := publisher.events[0]
	if got.LogID != "log-ev" || got.MessageID != "mid.ev" || got.RequestID != "req-ev" {
		t.Fatalf("event = %+v", got)
	}
	if got.Tag != domain.TagConfirmedEventUpdate {
		t.Fatalf("Tag = %s, want CONFIRMED_EVENT_UPDATE", got.Tag)
	}
}

func TestDispatchServicePublishFailureDoesNotFailDispatch(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			return &provider.SendResult{MessageID: "mid.ev"}, nil
		},
	}
	publisher := &fakePublisher{err: errors.New("broker down")}
	logs := newMemorySendLogStore()
	svc := newTestDispatchService(t, sender, logs, nil)
	svc.SetEventPublisher(publisher)

	if _, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "ACCOUNT_UPDATE",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v, want success", err)
	}
	if logs.appends != 1 {
		t.Fatalf("appends = %d, want 1", logs.appends)
	}
}

func TestDispatchServiceStalledPublishDoesNotBlockDispatch(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{
		sendFn: func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
			return &provider.SendResult{MessageID: "mid.stall"}, nil
		},
	}
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, event queue.DispatchEvent) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	logs := newMemorySendLogStore()
	svc := newTestDispatchService(t, sender, logs, nil)
	svc.SetEventPublisher(publisher)
	svc.publishTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	type outcome struct {
		entry *domain.SendLogEntry
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		entry, err := svc.Dispatch(ctx, domain.DispatchRequest{
			RecipientID:  "1784",
			Message:      "hello",
			MessagingTag: "ACCOUNT_UPDATE",
		})
		done <- outcome{entry: entry, err: err}
	}()

	select {
	case got := <-done:
		if got.err != nil {
			t.Fatalf("Dispatch() error = %v, want success", got.err)
		}
		if got.entry.ResultID != "mid.stall" {
			t.Fatalf("ResultID = %q, want mid.stall", got.entry.ResultID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Dispatch() blocked on a stalled event publisher")
	}
	if logs.appends != 1 {
		t.Fatalf("appends = %d, want 1", logs.appends)
	}
}

func TestDispatchServiceFailureDoesNotPublish(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{}
	svc := newTestDispatchService(t, &fakeSender{}, newMemorySendLogStore(), nil)
	svc.SetEventPublisher(publisher)

	if _, err := svc.Dispatch(context.Background(), domain.DispatchRequest{
		RecipientID:  "1784",
		Message:      "hello",
		MessagingTag: "ACCOUNT_UPDATE",
	}); err == nil {
		t.Fatal("expected provider failure from unconfigured fake sender")
	}
	if len(publisher.events) != 0 {
		t.Fatalf("published events = %d, want 0", len(publisher.events))
	}
}

func TestNewDispatchServiceRequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := NewDispatchService(nil, newMemorySendLogStore(), nil, nil); err == nil {
		t.Fatal("expected error for nil sender")
	}
	if _, err := NewDispatchService(&fakeSender{}, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil send log store")
	}
}

type fakeSender struct {
	// defaults falls back to testDefaults when nil.
	defaults *domain.Credentials
	sendFn   func(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error)
}

func (f *fakeSender) ResolveCredentials(override domain.Credentials) (domain.Credentials, error) {
	defaults := testDefaults
	if f.defaults != nil {
		defaults = *f.defaults
	}
	return provider.ResolveCredentials(override, defaults)
}

func (f *fakeSender) Send(ctx context.Context, wire payload.WirePayload, creds domain.Credentials) (*provider.SendResult, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, wire, creds)
	}
	return nil, errors.New("not implemented")
}

var _ provider.Sender = (*fakeSender)(nil)

type fakePublisher struct {
	mu        sync.Mutex
	events    []queue.DispatchEvent
	err       error
	publishFn func(ctx context.Context, event queue.DispatchEvent) error
}

func (f *fakePublisher) Publish(ctx context.Context, event queue.DispatchEvent) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, event)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

var _ queue.EventPublisher = (*fakePublisher)(nil)

type fakeRateLimiter struct {
	allowFn    func(ctx context.Context, creds domain.Credentials) (bool, error)
	waitFn     func(ctx context.Context, creds domain.Credentials) error
	cooldownFn func(ctx context.Context, creds domain.Credentials, d time.Duration) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, creds domain.Credentials) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, creds)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, creds domain.Credentials) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, creds)
	}
	return nil
}

func (f *fakeRateLimiter) Cooldown(ctx context.Context, creds domain.Credentials, d time.Duration) error {
	if f.cooldownFn != nil {
		return f.cooldownFn(ctx, creds, d)
	}
	return nil
}

var _ ratelimit.RateLimiter = (*fakeRateLimiter)(nil)

// memorySendLogStore mirrors the capped head-insert behaviour of the Redis list.
type memorySendLogStore struct {
	mu        sync.Mutex
	entries   []domain.SendLogEntry
	appends   int
	appendErr error
}

func newMemorySendLogStore() *memorySendLogStore {
	return &memorySendLogStore{}
}

func (m *memorySendLogStore) Append(ctx context.Context, entry domain.SendLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.appendErr != nil {
		return m.appendErr
	}
	m.appends++
	m.entries = append([]domain.SendLogEntry{entry}, m.entries...)
	if len(m.entries) > domain.MaxSendLogEntries {
		m.entries = m.entries[:domain.MaxSendLogEntries]
	}
	return nil
}

func (m *memorySendLogStore) List(ctx context.Context) ([]domain.SendLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.SendLogEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memorySendLogStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	return nil
}

var _ repository.SendLogStore = (*memorySendLogStore)(nil)
