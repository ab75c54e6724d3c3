package xbreaker

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

type (
	// Counts 统计计数，用于熔断判定
	Counts = gobreaker.Counts

	// State 熔断器状态
	State = gobreaker.State
)

// 熔断器状态常量
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// TripPolicy 熔断判定策略
//
// ReadyToTrip 返回 true 时熔断器从 Closed 转为 Open。
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// ConsecutiveFailuresPolicy 连续失败熔断策略
type ConsecutiveFailuresPolicy struct {
	threshold uint32
}

// NewConsecutiveFailures 创建连续失败熔断策略
//
//	policy := xbreaker.NewConsecutiveFailures(5)
func NewConsecutiveFailures(threshold uint32) *ConsecutiveFailuresPolicy {
	return &ConsecutiveFailuresPolicy{threshold: threshold}
}

func (p *ConsecutiveFailuresPolicy) ReadyToTrip(counts Counts) bool {
	return counts.ConsecutiveFailures >= p.threshold
}

// Threshold 返回阈值
func (p *ConsecutiveFailuresPolicy) Threshold() uint32 {
	return p.threshold
}

// FailureRatioPolicy 失败率熔断策略
//
// 请求数不足 minRequests 时不计算失败率。
type FailureRatioPolicy struct {
	ratio       float64
	minRequests uint32
}

// NewFailureRatio 创建失败率熔断策略，ratio 截断到 [0, 1]
func NewFailureRatio(ratio float64, minRequests uint32) *FailureRatioPolicy {
	ratio = min(max(ratio, 0), 1)
	return &FailureRatioPolicy{ratio: ratio, minRequests: minRequests}
}

func (p *FailureRatioPolicy) ReadyToTrip(counts Counts) bool {
	// 请求数为零时避免除零
	if counts.Requests == 0 || counts.Requests < p.minRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= p.ratio
}

// Ratio 返回失败率阈值
func (p *FailureRatioPolicy) Ratio() float64 {
	return p.ratio
}

// MinRequests 返回最小请求数
func (p *FailureRatioPolicy) MinRequests() uint32 {
	return p.minRequests
}

// Config 熔断器配置，可从配置文件加载
//
// FailureRatio > 0 时使用失败率策略，否则使用连续失败策略。
type Config struct {
	// ConsecutiveFailures 连续失败阈值，默认 5
	ConsecutiveFailures uint32 `koanf:"consecutive_failures" json:"consecutive_failures"`

	// FailureRatio 失败率阈值 (0, 1]
	FailureRatio float64 `koanf:"failure_ratio" json:"failure_ratio"`

	// MinRequests 失败率策略的最小请求数
	MinRequests uint32 `koanf:"min_requests" json:"min_requests"`

	// OpenTimeout Open 转 HalfOpen 的等待时间，默认 60s
	OpenTimeout time.Duration `koanf:"open_timeout" json:"open_timeout"`

	// Interval Closed 状态下清零统计的周期，0 表示不清零
	Interval time.Duration `koanf:"interval" json:"interval"`

	// MaxRequests HalfOpen 状态允许通过的请求数，默认 1
	MaxRequests uint32 `koanf:"max_requests" json:"max_requests"`
}

// Validate 校验配置
func (c Config) Validate() error {
	if c.FailureRatio < 0 || c.FailureRatio > 1 {
		return fmt.Errorf("%w: failure_ratio must be in [0, 1], got %v", ErrInvalidConfig, c.FailureRatio)
	}
	if c.OpenTimeout < 0 {
		return fmt.Errorf("%w: open_timeout must be >= 0, got %s", ErrInvalidConfig, c.OpenTimeout)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must be >= 0, got %s", ErrInvalidConfig, c.Interval)
	}
	return nil
}

// Options 将配置转换为熔断器选项
func (c Config) Options() []BreakerOption {
	var opts []BreakerOption
	switch {
	case c.FailureRatio > 0:
		opts = append(opts, WithTripPolicy(NewFailureRatio(c.FailureRatio, c.MinRequests)))
	case c.ConsecutiveFailures > 0:
		opts = append(opts, WithTripPolicy(NewConsecutiveFailures(c.ConsecutiveFailures)))
	}
	return append(opts,
		WithOpenTimeout(c.OpenTimeout),
		WithInterval(c.Interval),
		WithMaxRequests(c.MaxRequests),
	)
}
