package xretry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Do 按 Policy 重试任意操作，适用于非 HTTP 场景（例如读取配置、建立连接）。
//
// 总尝试次数为 p.MaxRetries+1，第 k 次退避为 BackoffFactor*2^k 加抖动，
// 与 [Execute] 一致。被 [NewPermanentError] / [Unrecoverable] 标记的错误
// 立即返回。只返回最后一个错误。
//
//	err := xretry.Do(ctx, xretry.DefaultPolicy(), func() error {
//	    return loadSomething()
//	})
func Do(ctx context.Context, p Policy, fn func() error, opts ...Option) error {
	return retry.New(bridgeOptions(ctx, p, opts)...).Do(fn)
}

// DoWithData 泛型版本的 [Do]
func DoWithData[T any](ctx context.Context, p Policy, fn func() (T, error), opts ...Option) (T, error) {
	return retry.NewWithData[T](bridgeOptions(ctx, p, opts)...).Do(fn)
}

// bridgeOptions 将 Policy 与执行器选项转换为 retry-go 选项
func bridgeOptions(ctx context.Context, p Policy, opts []Option) []retry.Option {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	attempts := max(p.MaxRetries, 0) + 1
	// retry-go 先调用 OnRetry(n) 再以 n+1 计算等待时间，
	// 在 OnRetry 中算好带抖动的时间，DelayType 直接取用，保证回调与实际等待一致
	var next time.Duration
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !IsPermanent(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			attempt := int(n)
			// 最后一次失败后不再等待
			if attempt >= attempts-1 {
				return
			}
			next = applyJitter(exponential(attempt, p.BackoffFactor), p.JitterFactor, o.rand)
			if o.onRetry != nil {
				o.onRetry(attempt, next, err)
			}
		}),
		retry.DelayType(func(uint, error, retry.DelayContext) time.Duration {
			return next
		}),
	}
}
