package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// Backoff 计算第 attempt 次失败后的等待时间
type Backoff struct {
	// Factor 指数退避基数
	Factor time.Duration

	// Jitter 抖动因子，0 表示无抖动
	Jitter float64

	// Rand 返回 [0, 1) 随机数，nil 时使用 crypto/rand
	Rand func() float64
}

// NewBackoff 从 Policy 构造退避计算器
func NewBackoff(p Policy) Backoff {
	return Backoff{Factor: p.BackoffFactor, Jitter: p.JitterFactor}
}

// Delay 计算等待时间，resp 可为 nil
func (b Backoff) Delay(attempt int, resp Response, now time.Time) time.Duration {
	return ComputeDelay(attempt, b.Factor, b.Jitter, resp, b.Rand, now)
}

// Base 返回不含抖动的基础等待时间：Retry-After 优先，否则 factor * 2^attempt
func Base(attempt int, factor time.Duration, resp Response, now time.Time) (time.Duration, bool) {
	if resp != nil {
		if v, ok := resp.Header(HeaderRetryAfter); ok {
			if d, ok := ParseRetryAfterAt(v, now); ok {
				return d, true
			}
		}
	}
	return exponential(attempt, factor), false
}

// ComputeDelay 计算第 attempt 次失败后的等待时间。
//
//	base  = Retry-After（可解析时） 或 factor * 2^attempt
//	delay = base + rnd() * jitter * base   （jitter > 0 时）
//
// 结果截断到 [0, MaxDelay]，负的 Retry-After 视为 0。
// rnd 为 nil 时使用 crypto/rand。
func ComputeDelay(attempt int, factor time.Duration, jitter float64, resp Response, rnd func() float64, now time.Time) time.Duration {
	base, _ := Base(attempt, factor, resp, now)
	return applyJitter(base, jitter, rnd)
}

// applyJitter 在 base 上叠加 [0, jitter) 比例的抖动，结果截断到 [0, MaxDelay]
func applyJitter(base time.Duration, jitter float64, rnd func() float64) time.Duration {
	if base <= 0 {
		return 0
	}
	if jitter <= 0 {
		return base
	}
	if rnd == nil {
		rnd = randomFloat64
	}
	total := float64(base) + rnd()*jitter*float64(base)
	if total >= float64(MaxDelay) {
		return MaxDelay
	}
	return time.Duration(total)
}

// exponential 计算 factor * 2^attempt，溢出时返回 MaxDelay
func exponential(attempt int, factor time.Duration) time.Duration {
	if factor <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	mult := math.Pow(2, float64(attempt))
	d := float64(factor) * mult
	if d >= float64(MaxDelay) || math.IsInf(d, 0) {
		return MaxDelay
	}
	return time.Duration(d)
}

// randomFloat64 使用 crypto/rand 生成 [0, 1) 随机数。
// 取 64 位随机数的高 53 位，保证 float64 精度内均匀分布。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand 失败时退化为无抖动
		return 0
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * (1.0 / (1 << 53))
}
