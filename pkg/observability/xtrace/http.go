package xtrace

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// HTTP Header 名称
const (
	HeaderTraceparent = "traceparent"
	HeaderTracestate  = "tracestate"
	HeaderTraceID     = "X-Trace-ID"
	HeaderSpanID      = "X-Span-ID"
	HeaderRequestID   = "X-Request-ID"
)

type requestIDKey struct{}

// WithRequestID 将请求 ID 放入 context，空值不修改 ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 返回 context 中的请求 ID
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// propagator 只处理 W3C Trace Context，baggage 不向下游传播
var propagator = propagation.TraceContext{}

// InjectHeader 将 ctx 中的追踪信息写入 h。
// 没有有效 span 时不写入 traceparent；已有的同名请求头会被覆盖。
func InjectHeader(ctx context.Context, h http.Header) {
	if ctx == nil || h == nil {
		return
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		propagator.Inject(ctx, propagation.HeaderCarrier(h))
		h.Set(HeaderTraceID, sc.TraceID().String())
		h.Set(HeaderSpanID, sc.SpanID().String())
	}
	if id := RequestID(ctx); id != "" {
		h.Set(HeaderRequestID, id)
	}
}

// InjectToRequest 将追踪信息注入 HTTP 请求
func InjectToRequest(ctx context.Context, req *http.Request) {
	if req == nil {
		return
	}
	// 防止调用方构造 &http.Request{} 导致 nil Header panic
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	InjectHeader(ctx, req.Header)
}

// Extract 从请求头恢复远端 span context，用于测试和服务端
func Extract(ctx context.Context, h http.Header) trace.SpanContext {
	return trace.SpanContextFromContext(propagator.Extract(ctx, propagation.HeaderCarrier(h)))
}
