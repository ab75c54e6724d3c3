// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// 业务代码只依赖 Observer/Span/Attr，默认实现基于 OpenTelemetry。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xhttp",
//		Operation: "GET",
//		Kind:      xmetrics.KindClient,
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// 统一指标：xhttpkit.operation.total、xhttpkit.operation.duration，
// 属性为 component / operation / status。
package xmetrics

import (
	"context"
	"time"
)

// Kind 表示观测跨度类型。
type Kind int

const (
	// KindInternal 表示内部操作。
	KindInternal Kind = iota
	// KindClient 表示客户端调用。
	KindClient
)

// Status 表示观测结果状态。
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Attr 表示观测属性。
type Attr struct {
	Key   string
	Value any
}

// String 创建字符串属性。
func String(key, value string) Attr { return Attr{Key: key, Value: value} }

// Int 创建整数属性。
func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }

// Bool 创建布尔属性。
func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }

// Duration 创建时间间隔属性，建议 key 带单位，例如 "delay_ms"。
func Duration(key string, value time.Duration) Attr { return Attr{Key: key, Value: value} }

// SpanOptions 定义观测跨度的创建参数。
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 表示观测跨度结束时的结果。
type Result struct {
	// Status 为空时根据 Err 推导。
	Status Status
	Err    error
	Attrs  []Attr
}

// Span 表示一次观测跨度。
type Span interface {
	End(result Result)
}

// Observer 定义统一观测接口。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 是空跨度实现。
type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 使用 observer 开始观测，nil observer 时返回空跨度。
// 保证返回非 nil 的 context 和 Span。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}
