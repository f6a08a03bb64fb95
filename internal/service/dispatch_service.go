package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"github.com/kursadbilgin/igdm-dispatch/internal/observability"
	"github.com/kursadbilgin/igdm-dispatch/internal/payload"
	"github.com/kursadbilgin/igdm-dispatch/internal/provider"
	"github.com/kursadbilgin/igdm-dispatch/internal/queue"
	"github.com/kursadbilgin/igdm-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/igdm-dispatch/internal/repository"
	"go.uber.org/zap"
)

// Stage is the position of a single dispatch in its lifecycle.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageBuilding   Stage = "building"
	StageSending    Stage = "sending"
	StageSucceeded  Stage = "succeeded"
	StageFailed     Stage = "failed"
)

func (s Stage) String() string {
	return string(s)
}

// ErrorKind classifies a failed dispatch for the caller.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindProvider      ErrorKind = "provider"
)

const (
	// defaultEventPublishTimeout bounds the best-effort event publish that
	// follows a successful send.
	defaultEventPublishTimeout = 5 * time.Second
	// defaultThrottleCooldown pauses an account after the Graph API
	// reports a rate limit on it.
	defaultThrottleCooldown = time.Minute
)

func (k ErrorKind) String() string {
	return string(k)
}

// DispatchError is returned for every failed dispatch. Message is safe to
// show to an operator; Err keeps the chain for errors.Is and errors.As.
type DispatchError struct {
	Kind    ErrorKind
	Stage   Stage
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("dispatch %s failed at %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *DispatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type DispatchService struct {
	sender           provider.Sender
	logs             repository.SendLogStore
	rateLimiter      ratelimit.RateLimiter
	events           queue.EventPublisher
	publishTimeout   time.Duration
	throttleCooldown time.Duration
	logger           *zap.Logger
	metrics          *observability.Metrics
	now              func() time.Time
	newID            func() string
}

// NewDispatchService wires the dispatch pipeline. rateLimiter may be nil,
// in which case sends are not throttled. Default credentials belong to the
// sender.
func NewDispatchService(
	sender provider.Sender,
	logs repository.SendLogStore,
	rateLimiter ratelimit.RateLimiter,
	logger *zap.Logger,
) (*DispatchService, error) {
	if sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("send log store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchService{
		sender:           sender,
		logs:             logs,
		rateLimiter:      rateLimiter,
		events:           queue.NoopPublisher{},
		publishTimeout:   defaultEventPublishTimeout,
		throttleCooldown: defaultThrottleCooldown,
		logger:           logger,
		now:              time.Now,
		newID:            uuid.NewString,
	}, nil
}

func (s *DispatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// SetEventPublisher announces successful sends on publisher. Publishing
// is best effort and never fails a dispatch.
func (s *DispatchService) SetEventPublisher(publisher queue.EventPublisher) {
	if s == nil || publisher == nil {
		return
	}
	s.events = publisher
}

// Dispatch validates req, sends it through the provider and records the
// delivery. On failure no send log entry is written.
func (s *DispatchService) Dispatch(ctx context.Context, req domain.DispatchRequest) (*domain.SendLogEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := observability.WithContextLogger(s.logger, ctx).With(
		observability.MaskedID("recipientId", req.RecipientID),
		zap.String("tag", strings.TrimSpace(req.MessagingTag)),
	)
	stage := StageIdle

	fail := func(kind ErrorKind, message string, err error) (*domain.SendLogEntry, error) {
		failedAt := stage
		stage = StageFailed
		logger.Warn("dispatch failed",
			zap.String("stage", failedAt.String()),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		s.metrics.IncDispatchFailed(req.MessagingTag, kind.String())
		return nil, &DispatchError{Kind: kind, Stage: failedAt, Message: message, Err: err}
	}

	stage = StageValidating
	built, err := payload.Build(req)
	if err != nil {
		return fail(KindValidation, userMessage(err, domain.ErrValidation), err)
	}

	stage = StageBuilding
	creds, err := s.sender.ResolveCredentials(built.Credentials)
	if err != nil {
		return fail(KindConfiguration, userMessage(err, domain.ErrConfiguration), err)
	}

	logger = logger.With(observability.MaskedID("accountId", creds.BusinessAccountID))

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, creds); err != nil {
			return fail(KindProvider, "send rate limit wait aborted", fmt.Errorf("rate limiter wait failed: %w", err))
		}
	}

	stage = StageSending
	logger.Debug("sending direct message", zap.String("stage", stage.String()))

	// Caller cancellation past this point must not drop the log entry of a
	// message the provider may already have accepted.
	sendCtx := context.WithoutCancel(ctx)

	sendStart := s.now()
	result, err := s.sender.Send(sendCtx, built.Payload, creds)
	s.metrics.ObserveDispatchSendDuration(built.Tag.String(), s.now().Sub(sendStart))
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return fail(KindConfiguration, userMessage(err, domain.ErrConfiguration), err)
		}
		if provider.IsThrottled(err) {
			s.coolDown(sendCtx, creds, logger)
		}
		return fail(KindProvider, providerMessage(err), err)
	}

	entry := domain.SendLogEntry{
		ID:          s.newID(),
		RecipientID: built.Payload.Recipient.ID,
		Message:     built.Payload.Text(),
		Tag:         built.Tag,
		ResultID:    result.MessageID,
		Timestamp:   s.now().UTC(),
	}

	if err := s.logs.Append(sendCtx, entry); err != nil {
		logger.Error("failed to append send log entry after successful send",
			zap.String("messageId", result.MessageID),
			zap.Error(err),
		)
	}

	s.publishSent(sendCtx, entry, logger)

	stage = StageSucceeded
	s.metrics.IncDispatchSent(built.Tag.String())
	logger.Info("direct message sent",
		zap.String("stage", stage.String()),
		zap.String("messageId", result.MessageID),
	)

	return &entry, nil
}

// coolDown stops further sends from an account the Graph API throttled.
func (s *DispatchService) coolDown(ctx context.Context, creds domain.Credentials, logger *zap.Logger) {
	if s.rateLimiter == nil || s.throttleCooldown <= 0 {
		return
	}
	if err := s.rateLimiter.Cooldown(ctx, creds, s.throttleCooldown); err != nil {
		logger.Warn("failed to start send cooldown after provider throttling", zap.Error(err))
		return
	}
	logger.Warn("provider throttled account, sends paused",
		zap.Duration("cooldown", s.throttleCooldown),
	)
}

// publishSent announces a delivered message. The publish gets its own
// deadline because ctx no longer carries the caller's cancellation.
func (s *DispatchService) publishSent(ctx context.Context, entry domain.SendLogEntry, logger *zap.Logger) {
	publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	requestID, _ := observability.RequestIDFromContext(ctx)
	if err := s.events.Publish(publishCtx, queue.NewSentEvent(entry, requestID)); err != nil {
		logger.Warn("failed to publish dispatch event",
			zap.String("messageId", entry.ResultID),
			zap.Error(err),
		)
	}
}

// SendLogs returns the delivery history, most recent first.
func (s *DispatchService) SendLogs(ctx context.Context) ([]domain.SendLogEntry, error) {
	return s.logs.List(ctx)
}

// ClearSendLogs drops the whole delivery history.
func (s *DispatchService) ClearSendLogs(ctx context.Context) error {
	if err := s.logs.Clear(ctx); err != nil {
		return err
	}
	observability.WithContextLogger(s.logger, ctx).Info("send log cleared")
	return nil
}

// userMessage strips the sentinel prefix added by fmt.Errorf("%w: ...").
func userMessage(err error, sentinel error) string {
	msg := err.Error()
	if trimmed, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return trimmed
	}
	return msg
}

func providerMessage(err error) string {
	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.UserMessage()
	}
	return "failed to send message"
}
