package xretry

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// 默认配置
const (
	// DefaultMaxRetries 默认最大重试次数（总尝试次数 = MaxRetries + 1）
	DefaultMaxRetries = 3

	// DefaultBackoffFactor 默认退避因子
	DefaultBackoffFactor = 300 * time.Millisecond

	// DefaultTimeout 默认单次请求超时，仅用于客户端构造
	DefaultTimeout = 10 * time.Second
)

// DefaultStatusForcelist 返回默认可重试状态码：429, 500, 502, 503, 504。
// 每次调用返回新切片，调用方修改不影响默认值。
func DefaultStatusForcelist() []int {
	return []int{429, 500, 502, 503, 504}
}

// Policy 重试策略
//
// Policy 是值类型，每次调用构造一次，执行器不会修改它。
type Policy struct {
	// MaxRetries 最大重试次数，>= 0
	MaxRetries int

	// BackoffFactor 指数退避基数：第 k 次退避为 BackoffFactor * 2^k
	BackoffFactor time.Duration

	// JitterFactor 抖动因子，>= 0；0 表示无抖动
	JitterFactor float64

	// StatusForcelist 触发重试的状态码
	StatusForcelist []int

	// Timeout 单次请求超时，透传给客户端构造，执行器不解释；0 表示未设置
	Timeout time.Duration
}

// DefaultPolicy 返回默认策略
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      DefaultMaxRetries,
		BackoffFactor:   DefaultBackoffFactor,
		StatusForcelist: DefaultStatusForcelist(),
		Timeout:         DefaultTimeout,
	}
}

// Attempts 返回总尝试次数
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// Retryable 判断状态码是否在 StatusForcelist 中
func (p Policy) Retryable(status int) bool {
	return slices.Contains(p.StatusForcelist, status)
}

// Validate 校验策略参数，规则同 [Validate]。
// Timeout 为 0 视为未设置。
func (p Policy) Validate() error {
	if p.Timeout != 0 {
		return Validate(p.MaxRetries, p.BackoffFactor, p.JitterFactor, p.Timeout)
	}
	return Validate(p.MaxRetries, p.BackoffFactor, p.JitterFactor)
}

// Clone 返回深拷贝，StatusForcelist 不与原值共享底层数组
func (p Policy) Clone() Policy {
	p.StatusForcelist = slices.Clone(p.StatusForcelist)
	return p
}

// Validate 校验重试参数，在首次尝试之前调用。
//
// 以下情况返回 [ErrInvalidConfig]：
//   - maxRetries < 0
//   - backoffFactor < 0
//   - jitterFactor < 0 或 NaN
//   - 传入了 timeout 且 <= 0
func Validate(maxRetries int, backoffFactor time.Duration, jitterFactor float64, timeout ...time.Duration) error {
	if maxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be >= 0, got %d", ErrInvalidConfig, maxRetries)
	}
	if backoffFactor < 0 {
		return fmt.Errorf("%w: backoff_factor must be >= 0, got %s", ErrInvalidConfig, backoffFactor)
	}
	if jitterFactor < 0 || math.IsNaN(jitterFactor) {
		return fmt.Errorf("%w: jitter_factor must be >= 0, got %v", ErrInvalidConfig, jitterFactor)
	}
	for _, t := range timeout {
		if t <= 0 {
			return fmt.Errorf("%w: timeout must be > 0, got %s", ErrInvalidConfig, t)
		}
	}
	return nil
}
