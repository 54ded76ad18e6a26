package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/AntonStoeckl/booklending/catalog"
)

const (
	// OperationDurationMetric tracks Catalog Client operation duration (OpenTelemetry-compatible).
	OperationDurationMetric = "catalogclient_operation_duration_seconds"
	// OperationCallsMetric tracks total Catalog Client operation calls.
	OperationCallsMetric = "catalogclient_operation_calls_total"
	// OperationCanceledMetric tracks operations canceled by the caller.
	OperationCanceledMetric = "catalogclient_operation_canceled_total"
	// OperationTimeoutMetric tracks operations that ran into a deadline.
	OperationTimeoutMetric = "catalogclient_operation_timeout_total"

	// ActionHandlerDurationMetric tracks server-side action handling duration.
	ActionHandlerDurationMetric = "actionhandler_handle_duration_seconds"
	// ActionHandlerCallsMetric tracks total action handler calls.
	ActionHandlerCallsMetric = "actionhandler_handle_calls_total"
	// ActionHandlerIdempotentMetric tracks actions that needed no state change.
	ActionHandlerIdempotentMetric = "actionhandler_idempotent_operations_total"
	// ActionHandlerRetriesMetric tracks retry attempts after concurrency conflicts.
	ActionHandlerRetriesMetric = "actionhandler_retries_total"
	// ActionHandlerRetryDelayMetric tracks the backoff delay before each retry.
	ActionHandlerRetryDelayMetric = "actionhandler_retry_delay_seconds"
	// ActionHandlerMaxRetriesReachedMetric tracks retry exhaustion.
	ActionHandlerMaxRetriesReachedMetric = "actionhandler_max_retries_reached_total"

	// StatusSuccess indicates successful completion.
	StatusSuccess = "success"
	// StatusError indicates a processing error.
	StatusError = "error"
	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"
	// StatusCanceled indicates the caller canceled the context.
	StatusCanceled = "canceled"
	// StatusTimeout indicates the context deadline was exceeded.
	StatusTimeout = "timeout"
	// StatusConcurrencyConflict indicates the book history changed concurrently.
	StatusConcurrencyConflict = "concurrency_conflict"

	// LogMsgOperationStarted is logged when a Catalog Client operation begins.
	LogMsgOperationStarted = "catalog operation started"
	// LogMsgOperationCompleted is logged when a Catalog Client operation succeeds.
	LogMsgOperationCompleted = "catalog operation completed"
	// LogMsgOperationFailed is logged when a Catalog Client operation fails.
	LogMsgOperationFailed = "catalog operation failed"
	// LogMsgOperationCanceled is logged when the caller canceled a Catalog Client operation.
	LogMsgOperationCanceled = "catalog operation canceled"
	// LogMsgActionCompleted is logged when the service handled a lifecycle action.
	LogMsgActionCompleted = "action handler completed"
	// LogMsgActionFailed is logged when the service rejected or failed a lifecycle action.
	LogMsgActionFailed = "action handler failed"

	// LogAttrOperation identifies the Catalog Client operation in logs and labels.
	LogAttrOperation = "operation"
	// LogAttrActionType identifies the lifecycle action in logs and labels.
	LogAttrActionType = "action_type"
	// LogAttrStatus indicates the processing status.
	LogAttrStatus = "status"
	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"
	// LogAttrErrorKind classifies a failure for messages and labels.
	LogAttrErrorKind = "error_kind"
	// LogAttrError contains error details.
	LogAttrError = "error"

	// SpanNameOperation is the tracing span name for Catalog Client operations.
	SpanNameOperation = "catalogclient.operation"
	// SpanNameActionHandle is the tracing span name for server-side action handling.
	SpanNameActionHandle = "actionhandler.handle"
)

// Interface aliases for convenience when using the shell observability helpers.
// These match the catalog observability interfaces for consistency.

// MetricsCollector interface for collecting performance metrics.
type MetricsCollector = catalog.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = catalog.ContextualMetricsCollector

// TracingCollector interface for distributed tracing.
type TracingCollector = catalog.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = catalog.SpanContext

// ContextualLogger interface for context-aware logging.
type ContextualLogger = catalog.ContextualLogger

// Logger interface for basic logging.
type Logger = catalog.Logger

// BuildOperationLabels creates standard metric labels for Catalog Client operations.
func BuildOperationLabels(operation, status string) map[string]string {
	return map[string]string{
		LogAttrOperation: operation,
		LogAttrStatus:    status,
	}
}

// BuildActionLabels creates standard metric labels for action handler operations.
func BuildActionLabels(actionType, status string) map[string]string {
	return map[string]string{
		LogAttrActionType: actionType,
		LogAttrStatus:     status,
	}
}

// BuildRetryLabels creates metric labels for retry attempts.
func BuildRetryLabels(actionType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrActionType: actionType,
		"attempt_number":  fmt.Sprintf("%d", attemptNumber),
		"error_type":      errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RecordOperationMetrics records duration and call count of a Catalog Client operation,
// plus the canceled or timeout counter when the status says so.
// It handles both context-aware and basic metrics collectors automatically.
func RecordOperationMetrics(
	ctx context.Context,
	collector MetricsCollector,
	operation string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildOperationLabels(operation, status)

	recordDuration(ctx, collector, OperationDurationMetric, duration, labels)
	incrementCounter(ctx, collector, OperationCallsMetric, labels)

	switch status {
	case StatusCanceled:
		incrementCounter(ctx, collector, OperationCanceledMetric, labels)
	case StatusTimeout:
		incrementCounter(ctx, collector, OperationTimeoutMetric, labels)
	}
}

// RecordActionMetrics records duration and call count of a server-side action,
// and counts idempotent actions separately.
func RecordActionMetrics(
	ctx context.Context,
	collector MetricsCollector,
	actionType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildActionLabels(actionType, status)

	recordDuration(ctx, collector, ActionHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, ActionHandlerCallsMetric, labels)

	if status == StatusIdempotent {
		incrementCounter(ctx, collector, ActionHandlerIdempotentMetric, labels)
	}
}

// StartOperationSpan starts a distributed tracing span with the given name.
// Returns the updated context and span context, or original context and nil if tracing is disabled.
func StartOperationSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	spanName string,
	attrs map[string]string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, spanName, attrs)
}

// FinishSpan completes a distributed tracing span with the operation outcome.
func FinishSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: formatDurationMS(duration),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
		attrs[LogAttrErrorKind] = string(catalog.Classify(err))
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogOperationStart logs the beginning of a Catalog Client operation.
func LogOperationStart(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, LogMsgOperationStarted, LogAttrOperation, operation)
	} else if logger != nil {
		logger.Debug(LogMsgOperationStarted, LogAttrOperation, operation)
	}
}

// LogOperationSuccess logs successful Catalog Client operation completion.
func LogOperationSuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
	duration time.Duration,
) {
	args := []any{
		LogAttrOperation, operation,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, LogMsgOperationCompleted, args...)
	} else if logger != nil {
		logger.Info(LogMsgOperationCompleted, args...)
	}
}

// LogOperationError logs a failed Catalog Client operation.
// Cancellations are logged at info level since the caller asked for them.
func LogOperationError(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
	err error,
	duration time.Duration,
) {
	args := []any{
		LogAttrOperation, operation,
		LogAttrErrorKind, string(catalog.Classify(err)),
		LogAttrError, err.Error(),
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if IsCancellationError(err) {
		if contextualLogger != nil {
			contextualLogger.InfoContext(ctx, LogMsgOperationCanceled, args...)
		} else if logger != nil {
			logger.Info(LogMsgOperationCanceled, args...)
		}

		return
	}

	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, LogMsgOperationFailed, args...)
	} else if logger != nil {
		logger.Error(LogMsgOperationFailed, args...)
	}
}

// LogActionOutcome logs the outcome of a server-side action.
// Business rule violations are logged as warnings, everything else that failed as errors.
func LogActionOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	actionType string,
	status string,
	duration time.Duration,
	err error,
) {
	args := []any{
		LogAttrActionType, actionType,
		LogAttrStatus, status,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if err == nil {
		if contextualLogger != nil {
			contextualLogger.InfoContext(ctx, LogMsgActionCompleted, args...)
		} else if logger != nil {
			logger.Info(LogMsgActionCompleted, args...)
		}

		return
	}

	args = append(args, LogAttrError, err.Error())

	if contextualLogger != nil {
		contextualLogger.WarnContext(ctx, LogMsgActionFailed, args...)
	} else if logger != nil {
		logger.Warn(LogMsgActionFailed, args...)
	}
}

func recordDuration(ctx context.Context, collector MetricsCollector, metric string, d time.Duration, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	collector.RecordDuration(metric, d, labels)
}

func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// formatDurationMS formats duration in milliseconds for span attributes.
func formatDurationMS(duration time.Duration) string {
	return fmt.Sprintf("%.2f", ToMilliseconds(duration))
}
