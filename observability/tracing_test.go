package observability

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), DefaultTracingConfig(), nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	shutdown, err := InitTracing(context.Background(), cfg, &buf)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "loader.load", attribute.String("path", "pitcheo.csv"))
	RecordError(span, stderrors.New("boom"))
	RecordError(span, nil)
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "loader.load")
	assert.Contains(t, buf.String(), "pitcheo.csv")
}
