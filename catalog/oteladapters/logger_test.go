package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/AntonStoeckl/booklending/catalog/oteladapters"
)

func Test_NewSlogBridgeLogger_Construction(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("booklending")

	assert.NotNil(t, logger, "NewSlogBridgeLogger should return non-nil logger")
	assert.NotNil(t, logger.Slog())
}

func Test_SlogBridgeLogger_AllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message")
	logger.Warn("warn message")
	logger.Error("error message")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG","msg":"debug message"`)
	assert.Contains(t, output, `"level":"INFO","msg":"info message"`)
	assert.Contains(t, output, `"level":"WARN","msg":"warn message"`)
	assert.Contains(t, output, `"level":"ERROR","msg":"error message"`)
}

func Test_SlogBridgeLogger_WithAttributes(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	// act
	logger.InfoContext(context.Background(), "catalog operation completed",
		"operation", "list",
		"duration_ms", 12.5,
	)

	// assert
	output := buf.String()
	assert.Contains(t, output, `"operation":"list"`)
	assert.Contains(t, output, `"duration_ms":12.5`)
}

func Test_SlogBridgeLogger_RespectsHandlerLevel(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// act
	logger.Info("hidden")
	logger.Warn("shown")

	// assert
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func Test_SlogBridgeLogger_InsideSpan(t *testing.T) {
	// arrange
	provider := trace.NewTracerProvider()
	ctx, span := provider.Tracer("test").Start(context.Background(), "catalogclient.operation")
	defer span.End()

	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	// act
	logger.InfoContext(ctx, "inside span")

	// assert
	assert.Contains(t, buf.String(), "inside span", "a plain handler logs without trace correlation")
}
