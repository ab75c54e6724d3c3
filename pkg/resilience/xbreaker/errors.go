package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

// 熔断器错误
var (
	// ErrOpenState 熔断器处于打开状态
	ErrOpenState = gobreaker.ErrOpenState

	// ErrTooManyRequests 半开状态下请求过多
	ErrTooManyRequests = gobreaker.ErrTooManyRequests

	// ErrInvalidConfig 配置非法
	ErrInvalidConfig = errors.New("xbreaker: invalid config")
)

// errResultFailure 结果被判定为失败时交给 gobreaker 的占位错误，不会返回给调用方
var errResultFailure = errors.New("xbreaker: result marked as failure")

// BreakerError 熔断器拒绝请求
//
// Err/Name/State 为导出字段，便于日志和告警直接读取。
type BreakerError struct {
	Err   error // ErrOpenState 或 ErrTooManyRequests
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

func (e *BreakerError) Unwrap() error {
	return e.Err
}

// wrapBreakerError 只包装直接的 sentinel error。
// 状态从错误类型推导，不在事后查询 State()，避免并发下状态已变化。
func wrapBreakerError(err error, name string) error {
	if err == nil {
		return nil
	}
	var be *BreakerError
	if errors.As(err, &be) {
		return err
	}
	switch err { //nolint:errorlint // 只识别本熔断器直接返回的 sentinel
	case gobreaker.ErrOpenState:
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case gobreaker.ErrTooManyRequests:
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	}
	return err
}

// IsOpen 检查错误是否为熔断打开
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsTooManyRequests 检查错误是否为半开状态请求过多
func IsTooManyRequests(err error) bool {
	return errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsBreakerError 检查错误是否由熔断器产生
func IsBreakerError(err error) bool {
	return IsOpen(err) || IsTooManyRequests(err)
}
