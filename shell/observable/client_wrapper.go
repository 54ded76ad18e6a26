package observable

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/shell"
)

const (
	operationList      = "list"
	operationGet       = "get"
	operationGetByISBN = "get_by_isbn"
	operationCreate    = "create"
	operationUpdate    = "update"
	operationRemove    = "remove"
	operationLogin     = "login"
	spanAttrRecordID   = "record_id"
)

// ErrNilClient is returned when NewClientWrapper is called without a client to wrap.
var ErrNilClient = errors.New("catalog client must not be nil")

// CatalogClient is the full operation set of the Catalog Client.
type CatalogClient interface {
	List(ctx context.Context, query catalog.ListQuery) (catalog.Page, error)
	Get(ctx context.Context, id int64) (catalog.Record, error)
	GetByISBN(ctx context.Context, isbn string) (catalog.Record, error)
	Create(ctx context.Context, draft catalog.Draft) (catalog.Record, error)
	Update(ctx context.Context, record catalog.Record) (catalog.Record, error)
	Remove(ctx context.Context, id int64) error
	PerformAction(ctx context.Context, action catalog.Action, actor string, id int64) (catalog.Record, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// ClientWrapper provides observability instrumentation for a CatalogClient.
// Operation labels are the operation names, lifecycle actions are labeled with the action name.
type ClientWrapper struct {
	client           CatalogClient
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// NewClientWrapper creates a new observable wrapper around client.
func NewClientWrapper(client CatalogClient, opts ...Option) (*ClientWrapper, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	wrapper := &ClientWrapper{client: client}

	for _, opt := range opts {
		if err := opt(wrapper); err != nil {
			return nil, err
		}
	}

	return wrapper, nil
}

// Option defines a functional option for configuring ClientWrapper.
type Option func(*ClientWrapper) error

// WithMetrics sets the metrics collector for the ClientWrapper.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(w *ClientWrapper) error {
		w.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the ClientWrapper.
func WithTracing(collector shell.TracingCollector) Option {
	return func(w *ClientWrapper) error {
		w.tracingCollector = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger for the ClientWrapper.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(w *ClientWrapper) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger for the ClientWrapper.
func WithLogging(logger shell.Logger) Option {
	return func(w *ClientWrapper) error {
		w.logger = logger
		return nil
	}
}

// List delegates to the wrapped client.
func (w *ClientWrapper) List(ctx context.Context, query catalog.ListQuery) (catalog.Page, error) {
	var page catalog.Page

	err := w.observe(ctx, operationList, nil, func(ctx context.Context) error {
		var err error
		page, err = w.client.List(ctx, query)

		return err
	})

	return page, err
}

// Get delegates to the wrapped client.
func (w *ClientWrapper) Get(ctx context.Context, id int64) (catalog.Record, error) {
	return w.observeRecord(ctx, operationGet, recordAttrs(id), func(ctx context.Context) (catalog.Record, error) {
		return w.client.Get(ctx, id)
	})
}

// GetByISBN delegates to the wrapped client.
func (w *ClientWrapper) GetByISBN(ctx context.Context, isbn string) (catalog.Record, error) {
	return w.observeRecord(ctx, operationGetByISBN, nil, func(ctx context.Context) (catalog.Record, error) {
		return w.client.GetByISBN(ctx, isbn)
	})
}

// Create delegates to the wrapped client.
func (w *ClientWrapper) Create(ctx context.Context, draft catalog.Draft) (catalog.Record, error) {
	return w.observeRecord(ctx, operationCreate, nil, func(ctx context.Context) (catalog.Record, error) {
		return w.client.Create(ctx, draft)
	})
}

// Update delegates to the wrapped client.
func (w *ClientWrapper) Update(ctx context.Context, record catalog.Record) (catalog.Record, error) {
	return w.observeRecord(ctx, operationUpdate, recordAttrs(record.ID), func(ctx context.Context) (catalog.Record, error) {
		return w.client.Update(ctx, record)
	})
}

// Remove delegates to the wrapped client.
func (w *ClientWrapper) Remove(ctx context.Context, id int64) error {
	return w.observe(ctx, operationRemove, recordAttrs(id), func(ctx context.Context) error {
		return w.client.Remove(ctx, id)
	})
}

// PerformAction delegates to the wrapped client.
func (w *ClientWrapper) PerformAction(
	ctx context.Context,
	action catalog.Action,
	actor string,
	id int64,
) (catalog.Record, error) {
	return w.observeRecord(ctx, action.String(), recordAttrs(id), func(ctx context.Context) (catalog.Record, error) {
		return w.client.PerformAction(ctx, action, actor, id)
	})
}

// Login delegates to the wrapped client.
func (w *ClientWrapper) Login(ctx context.Context, username, password string) (string, error) {
	var token string

	err := w.observe(ctx, operationLogin, nil, func(ctx context.Context) error {
		var err error
		token, err = w.client.Login(ctx, username, password)

		return err
	})

	return token, err
}

func (w *ClientWrapper) observeRecord(
	ctx context.Context,
	operation string,
	attrs map[string]string,
	fn func(ctx context.Context) (catalog.Record, error),
) (catalog.Record, error) {
	var record catalog.Record

	err := w.observe(ctx, operation, attrs, func(ctx context.Context) error {
		var err error
		record, err = fn(ctx)

		return err
	})

	return record, err
}

// observe runs fn inside a span and records metrics and logs for its outcome.
func (w *ClientWrapper) observe(
	ctx context.Context,
	operation string,
	attrs map[string]string,
	fn func(ctx context.Context) error,
) error {
	start := time.Now()

	spanAttrs := map[string]string{shell.LogAttrOperation: operation}
	for k, v := range attrs {
		spanAttrs[k] = v
	}

	ctx, span := shell.StartOperationSpan(ctx, w.tracingCollector, shell.SpanNameOperation, spanAttrs)
	shell.LogOperationStart(ctx, w.logger, w.contextualLogger, operation)

	err := fn(ctx)

	duration := time.Since(start)
	status := shell.StatusOf(err)

	shell.RecordOperationMetrics(ctx, w.metricsCollector, operation, status, duration)
	shell.FinishSpan(w.tracingCollector, span, status, duration, err)

	if err != nil {
		shell.LogOperationError(ctx, w.logger, w.contextualLogger, operation, err, duration)
		return err
	}

	shell.LogOperationSuccess(ctx, w.logger, w.contextualLogger, operation, duration)

	return nil
}

func recordAttrs(id int64) map[string]string {
	return map[string]string{spanAttrRecordID: formatID(id)}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
