package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/booklending/catalog/oteladapters"
)

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	exporter, collector := givenTracingCollector()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "catalogclient.operation", map[string]string{
		"operation": "get",
		"record_id": "7",
	})
	collector.FinishSpan(spanCtx, "success", map[string]string{"duration_ms": "1.50"})

	// assert
	assert.True(t, oteltrace.SpanContextFromContext(ctx).IsValid(), "context should carry the span")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "Expected exactly one span")

	span := spans[0]
	assert.Equal(t, "catalogclient.operation", span.Name)
	assertSpanHasAttribute(t, span, "operation", "get")
	assertSpanHasAttribute(t, span, "record_id", "7")
	assertSpanHasAttribute(t, span, "duration_ms", "1.50")
	assert.Equal(t, codes.Ok, span.Status.Code)
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: "success", expectedCode: codes.Ok},
		{status: "idempotent", expectedCode: codes.Ok},
		{status: "error", expectedCode: codes.Error},
		{status: "canceled", expectedCode: codes.Error},
		{status: "timeout", expectedCode: codes.Error},
		{status: "concurrency_conflict", expectedCode: codes.Error},
		{status: "something_else", expectedCode: codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			exporter, collector := givenTracingCollector()

			_, spanCtx := collector.StartSpan(context.Background(), "actionhandler.handle", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_NestedSpansShareTrace(t *testing.T) {
	// arrange
	exporter, collector := givenTracingCollector()

	// act
	ctx, parent := collector.StartSpan(context.Background(), "actionhandler.handle", nil)
	_, child := collector.StartSpan(ctx, "catalogstore.append", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[0].SpanContext.TraceID(), spans[1].SpanContext.TraceID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID(), "child should point at its parent")
}

func Test_TracingCollector_IgnoresForeignSpanContext(t *testing.T) {
	// arrange
	exporter, collector := givenTracingCollector()

	// act
	collector.FinishSpan(foreignSpanContext{}, "success", nil)

	// assert
	assert.Empty(t, exporter.GetSpans())
}

func Test_OTelSpanContext_Methods(t *testing.T) {
	// arrange
	exporter, collector := givenTracingCollector()
	_, spanCtx := collector.StartSpan(context.Background(), "catalogclient.operation", nil)

	// act
	spanCtx.AddAttribute("operation", "remove")
	spanCtx.SetStatus("error")
	collector.FinishSpan(spanCtx, "error", nil)

	// assert
	span := exporter.GetSpans()[0]
	assertSpanHasAttribute(t, span, "operation", "remove")
	assert.Equal(t, codes.Error, span.Status.Code)
}

func givenTracingCollector() (*tracetest.InMemoryExporter, *oteladapters.TracingCollector) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(trace.WithSyncer(exporter))

	return exporter, oteladapters.NewTracingCollector(provider.Tracer("test"))
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, expectedValue string) {
	t.Helper()
	found := false
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) && attr.Value.AsString() == expectedValue {
			found = true
			break
		}
	}
	assert.True(t, found, "Span should have attribute %s=%s", key, expectedValue)
}
