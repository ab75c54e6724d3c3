package xretry

import (
	"time"

	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
	"github.com/omeyang/xhttpkit/pkg/observability/xmetrics"
)

// OnRetryFunc 每次退避前回调，attempt 为刚失败的尝试序号（从 0 开始）
type OnRetryFunc func(attempt int, delay time.Duration, err error)

type options struct {
	sleeper  Sleeper
	rand     func() float64
	logger   xlog.Logger
	observer xmetrics.Observer
	onRetry  OnRetryFunc
	now      func() time.Time
}

func defaultOptions() *options {
	return &options{
		sleeper:  ContextSleeper{},
		rand:     randomFloat64,
		logger:   xlog.Nop(),
		observer: xmetrics.NoopObserver{},
		now:      time.Now,
	}
}

// Option 执行器配置选项
type Option func(*options)

// WithSleeper 设置退避等待原语，默认 [ContextSleeper]
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleeper = s
		}
	}
}

// WithRand 设置抖动随机源，返回值须在 [0, 1)
func WithRand(fn func() float64) Option {
	return func(o *options) {
		if fn != nil {
			o.rand = fn
		}
	}
}

// WithLogger 设置日志，默认不输出
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器，每次尝试一个 span
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithOnRetry 设置退避前回调
func WithOnRetry(fn OnRetryFunc) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// WithClock 设置当前时间来源，用于解析 HTTP-date 格式的 Retry-After
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
