package xbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
)

// 默认配置
const (
	DefaultConsecutiveFailures = 5
	DefaultOpenTimeout         = 60 * time.Second
)

// Breaker 熔断器
//
// 封装 gobreaker，TripPolicy 决定何时熔断。并发安全。
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	openTimeout   time.Duration
	interval      time.Duration
	maxRequests   uint32
	onStateChange func(name string, from, to State)
	logger        xlog.Logger

	cb *gobreaker.CircuitBreaker[any]
}

// BreakerOption 熔断器配置选项
type BreakerOption func(*Breaker)

// WithTripPolicy 设置熔断判定策略，默认连续失败 5 次
func WithTripPolicy(p TripPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithOpenTimeout 设置 Open 转 HalfOpen 的等待时间，默认 60 秒
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.openTimeout = d
		}
	}
}

// WithInterval 设置 Closed 状态下清零统计的周期（固定窗口），默认不清零
func WithInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d >= 0 {
			b.interval = d
		}
	}
}

// WithMaxRequests 设置 HalfOpen 状态允许通过的最大请求数，默认 1
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange 设置状态变化回调
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// WithLogger 设置日志，状态变化以 Warn 级别记录
func WithLogger(l xlog.Logger) BreakerOption {
	return func(b *Breaker) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBreaker 创建熔断器，name 用于日志和错误信息
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(DefaultConsecutiveFailures),
		openTimeout: DefaultOpenTimeout,
		maxRequests: 1,
		logger:      xlog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker[any](b.settings())
	return b
}

func (b *Breaker) settings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return b.tripPolicy.ReadyToTrip(counts)
		},
		IsSuccessful: func(err error) bool {
			// 调用方取消不代表下游故障
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn(context.Background(), "circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if b.onStateChange != nil {
				b.onStateChange(name, from, to)
			}
		},
	}
}

// Do 执行受熔断保护的操作
//
// ctx 已结束时直接返回 ctx.Err()，不计入统计。
// 熔断打开时 fn 不会执行，返回 [*BreakerError]。
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return wrapBreakerError(err, b.name)
}

// Execute 执行受熔断保护的操作（泛型版本）
func Execute[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	return ExecuteResult(ctx, b, fn, nil)
}

// ExecuteResult 与 [Execute] 相同，但 failed(result) 为 true 时该次调用计为失败。
// 结果和 nil 错误仍原样返回，熔断统计与返回值解耦。
func ExecuteResult[T any](ctx context.Context, b *Breaker, fn func() (T, error), failed func(T) bool) (T, error) {
	var result T
	if err := ctx.Err(); err != nil {
		return result, err
	}
	_, err := b.cb.Execute(func() (any, error) {
		var err error
		result, err = fn()
		if err == nil && failed != nil && failed(result) {
			return nil, errResultFailure
		}
		return nil, err
	})
	if errors.Is(err, errResultFailure) {
		return result, nil
	}
	if err != nil {
		var zero T
		if IsBreakerError(err) {
			return zero, wrapBreakerError(err, b.name)
		}
		return result, err
	}
	return result, nil
}

// State 返回当前状态
func (b *Breaker) State() State {
	return b.cb.State()
}

// Name 返回熔断器名称
func (b *Breaker) Name() string {
	return b.name
}

// Counts 返回当前统计计数
func (b *Breaker) Counts() Counts {
	return b.cb.Counts()
}

// TripPolicy 返回当前熔断策略
func (b *Breaker) TripPolicy() TripPolicy {
	return b.tripPolicy
}
