package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "livechat"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
	assert.False(t, IsTracingEnabled())
}

func TestStartSpanTagsCorrelation(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	ctx := WithCorrelation(context.Background(), "corr-1")
	_, span := StartSpan(ctx, "livechat.tick", attribute.String("live_id", "XYZ"))
	RecordError(span, errors.New("boom"))
	span.End()

	_, ok := StartSpan(context.Background(), "livechat.start")
	SetSpanSuccess(ok)
	ok.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "livechat.tick", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("correlation_id", "corr-1"))
	assert.Contains(t, spans[0].Attributes, attribute.String("live_id", "XYZ"))
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, codes.Ok, spans[1].Status.Code)
	for _, kv := range spans[1].Attributes {
		assert.NotEqual(t, attribute.Key("correlation_id"), kv.Key)
	}
}
