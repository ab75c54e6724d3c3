package xtrace

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInjectHeader_NoSpan(t *testing.T) {
	h := http.Header{}
	InjectHeader(context.Background(), h)
	assert.Empty(t, h)

	InjectHeader(WithRequestID(context.Background(), "req-1"), h)
	assert.Equal(t, "req-1", h.Get(HeaderRequestID))
	assert.Empty(t, h.Get(HeaderTraceparent))
}

func TestInjectHeader_WithSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	h := http.Header{}
	InjectHeader(ctx, h)

	sc := span.SpanContext()
	tp1 := h.Get(HeaderTraceparent)
	require.NotEmpty(t, tp1)
	assert.Equal(t, "00-"+sc.TraceID().String()+"-"+sc.SpanID().String()+"-01", tp1)
	assert.Equal(t, sc.TraceID().String(), h.Get(HeaderTraceID))
	assert.Equal(t, sc.SpanID().String(), h.Get(HeaderSpanID))

	remote := Extract(context.Background(), h)
	assert.True(t, remote.IsRemote())
	assert.Equal(t, sc.TraceID(), remote.TraceID())
}

func TestInjectToRequest(t *testing.T) {
	InjectToRequest(context.Background(), nil)

	req := &http.Request{}
	InjectToRequest(WithRequestID(context.Background(), "r"), req)
	require.NotNil(t, req.Header)
	assert.Equal(t, "r", req.Header.Get(HeaderRequestID))
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	ctx := WithRequestID(context.Background(), "")
	assert.Empty(t, RequestID(ctx))
	assert.Equal(t, "abc", RequestID(WithRequestID(ctx, "abc")))
}
