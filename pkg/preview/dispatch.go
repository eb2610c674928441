package preview

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDispatchTimeout bounds a single handler invocation.
const DefaultDispatchTimeout = 30 * time.Second

// DefaultSoftSizeLimit is the blob size above which a non-fatal warning is
// attached (25 MiB).
const DefaultSoftSizeLimit = 25 << 20

// DispatchMetrics receives one observation per dispatched request.
// Implemented by pkg/observability; nil-safe at the Dispatcher level.
type DispatchMetrics interface {
	ObserveDispatch(ctx context.Context, handler string, succeeded bool, elapsed time.Duration)
}

// Dispatcher is the single entry point for preview requests. It selects a
// handler, enforces the timeout, records health, and guarantees a structured
// Outcome: Preview never returns an error and never panics outward.
type Dispatcher struct {
	registry      *HandlerRegistry
	timeout       time.Duration
	softSizeLimit int
	metrics       DispatchMetrics
	logger        *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTimeout sets the per-request handler timeout.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithSoftSizeLimit sets the blob size that triggers a warning.
func WithSoftSizeLimit(limit int) DispatcherOption {
	return func(d *Dispatcher) {
		if limit > 0 {
			d.softSizeLimit = limit
		}
	}
}

// WithMetrics attaches dispatch metrics.
func WithMetrics(m DispatchMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithDispatchLogger replaces the dispatcher logger.
func WithDispatchLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(reg *HandlerRegistry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:      reg,
		timeout:       DefaultDispatchTimeout,
		softSizeLimit: DefaultSoftSizeLimit,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// handlerReply carries the result of the raced handler goroutine.
type handlerReply struct {
	outcome *Outcome
	err     error
}

// Preview validates input, selects a handler, invokes it under the timeout
// and normalizes the result. Total-success-or-structured-fallback: every
// path returns an Outcome.
func (d *Dispatcher) Preview(ctx context.Context, blob []byte, fileName, mimeType string, opts *Options) (outcome *Outcome) {
	requestID := uuid.NewString()

	// Failures in fallback construction itself must not escape either.
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("dispatch panicked building outcome",
				"request_id", requestID, "file", fileName, "panic", rec)
			outcome = catastrophicOutcome(fileName)
			outcome.SetMeta(MetaRequestID, requestID)
		}
	}()

	if len(blob) == 0 || fileName == "" {
		o := invalidInputOutcome(fileName, mimeType, len(blob))
		o.SetMeta(MetaRequestID, requestID)
		return o
	}

	var warnings []string
	if d.softSizeLimit > 0 && len(blob) > d.softSizeLimit {
		w := fmt.Sprintf("file is large (%s); preview may be slow or truncated", formatSize(len(blob)))
		warnings = append(warnings, w)
		d.logger.Warn("blob exceeds soft size limit",
			"request_id", requestID, "file", fileName, "size", len(blob), "limit", d.softSizeLimit)
	}

	handler := d.registry.Select(mimeType, fileName)
	if handler == nil {
		d.logger.Info("no preview handler matched",
			"request_id", requestID, "file", fileName, "mime_type", mimeType)
		o := noHandlerOutcome(fileName, mimeType, len(blob))
		o.SetMeta(MetaRequestID, requestID)
		return o
	}

	name := handler.Info().Name
	start := time.Now()
	result, err := d.invoke(ctx, handler, blob, fileName, mimeType, opts)
	elapsed := time.Since(start)

	succeeded := err == nil && result != nil

	// A dead caller is not a handler fault. When the request context is
	// already cancelled (client disconnect, upstream abort) the failure
	// says nothing about handler health, so neither the health record nor
	// the failure metric is charged.
	callerGone := !succeeded && ctx.Err() != nil
	if !callerGone {
		d.registry.RecordOutcome(name, succeeded, elapsed)
		if d.metrics != nil {
			d.metrics.ObserveDispatch(ctx, name, succeeded, elapsed)
		}
	}

	if !succeeded {
		if err == nil {
			err = NewHandlerError(name, "Preview", "handler returned no outcome", nil)
		}
		if callerGone {
			d.logger.Info("preview abandoned by caller",
				"request_id", requestID, "handler", name, "file", fileName,
				"elapsed_ms", elapsed.Milliseconds())
		} else {
			d.logger.Warn("preview handler failed",
				"request_id", requestID, "handler", name, "file", fileName,
				"elapsed_ms", elapsed.Milliseconds(), "error", err)
		}
		o := handlerFailureOutcome(name, fileName, mimeType, len(blob), err.Error())
		o.SetMeta(MetaRequestID, requestID)
		d.stampTiming(o, start, elapsed)
		return o
	}

	d.stampTiming(result, start, elapsed)
	result.SetMeta(MetaRequestID, requestID)
	result.SetMeta(MetaHandler, name)
	if len(warnings) > 0 {
		existing := result.Meta(MetaWarnings)
		if existing != "" {
			warnings = append([]string{existing}, warnings...)
		}
		result.SetMeta(MetaWarnings, strings.Join(warnings, "; "))
	}
	return result
}

// invoke races the handler against the timeout. Losing handler work is
// abandoned, not cancelled: the goroutine drains into a buffered channel so
// a late result cannot block or mutate the returned outcome, and the expired
// context tells cooperative handlers to stop.
func (d *Dispatcher) invoke(ctx context.Context, handler Handler, blob []byte, fileName, mimeType string, opts *Options) (*Outcome, error) {
	tctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	name := handler.Info().Name
	replyCh := make(chan handlerReply, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				replyCh <- handlerReply{err: NewHandlerError(name, "Preview", fmt.Sprintf("panic: %v", rec), nil)}
			}
		}()
		outcome, err := handler.Preview(tctx, blob, fileName, mimeType, opts)
		replyCh <- handlerReply{outcome: outcome, err: err}
	}()

	select {
	case reply := <-replyCh:
		return reply.outcome, reply.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return nil, NewHandlerError(name, "Preview", "request cancelled", ctx.Err())
		}
		return nil, NewHandlerError(name, "Preview",
			fmt.Sprintf("no response within %s", d.timeout), ErrTimeout)
	}
}

func (d *Dispatcher) stampTiming(o *Outcome, start time.Time, elapsed time.Duration) {
	o.SetMeta(MetaStartedAt, start.UTC().Format(time.RFC3339Nano))
	o.SetMeta(MetaCompletedAt, start.Add(elapsed).UTC().Format(time.RFC3339Nano))
	o.SetMeta(MetaDurationMs, strconv.FormatInt(elapsed.Milliseconds(), 10))
}
