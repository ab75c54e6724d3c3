package xhttp

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/xhttpkit/pkg/observability/xmetrics"
	"github.com/omeyang/xhttpkit/pkg/observability/xtrace"
)

func TestRequest_TracePropagation(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	obs, err := xmetrics.NewOTelObserver(
		xmetrics.WithTracerProvider(tp),
		xmetrics.WithMeterProvider(sdkmetric.NewMeterProvider()),
	)
	require.NoError(t, err)

	var parents, requestIDs values
	srv := newTestServer(t, func(n int, w http.ResponseWriter, r *http.Request) {
		parents.Add(r.Header.Get(xtrace.HeaderTraceparent))
		requestIDs.Add(r.Header.Get(xtrace.HeaderRequestID))
		if n == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	ctx := xtrace.WithRequestID(context.Background(), "req-7")
	_, err = Get(ctx, srv.URL, WithObserver(obs), WithSleeper(&recordingSleeper{}))
	require.NoError(t, err)

	got := parents.All()
	require.Len(t, got, 2)
	require.NotEmpty(t, got[0])
	// 同一条链路，每次尝试一个独立的父 span
	assert.Equal(t, got[0][3:35], got[1][3:35])
	assert.NotEqual(t, got[0], got[1])
	assert.Equal(t, []string{"req-7", "req-7"}, requestIDs.All())

	ended := sr.Ended()
	require.Len(t, ended, 3)
	names := make([]string, 0, len(ended))
	for _, s := range ended {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"xretry.GET", "xretry.GET", "xhttp.GET"}, names)
}

func TestRequest_NoTraceHeadersWithoutSpan(t *testing.T) {
	var parents values
	srv := newTestServer(t, func(_ int, _ http.ResponseWriter, r *http.Request) {
		parents.Add(r.Header.Get(xtrace.HeaderTraceparent))
	})
	_, err := Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, parents.All())
}
