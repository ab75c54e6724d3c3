package xretry

import (
	"context"
	"errors"
	"net"

	"github.com/avast/retry-go/v5"
)

// ErrInvalidConfig 参数校验失败，在首次尝试之前返回
var ErrInvalidConfig = errors.New("xretry: invalid config")

// Kind 终态失败的分类
type Kind int

const (
	// KindStatus 非重试状态码，立即失败
	KindStatus Kind = iota + 1
	// KindStatusExhausted 可重试状态码，重试耗尽
	KindStatusExhausted
	// KindTimeout 超时，重试耗尽
	KindTimeout
	// KindNetwork 网络错误，重试耗尽
	KindNetwork
	// KindCanceled 调用方取消
	KindCanceled
)

// String 返回分类名称
func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindStatusExhausted:
		return "status_exhausted"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// RequestError 请求最终失败
//
// Error() 返回固定格式的消息，Unwrap() 返回底层原因，
// 因此 errors.Is(err, context.DeadlineExceeded) 之类的判断依然有效。
type RequestError struct {
	Method  string
	URL     string
	Message string

	// StatusCode 失败由响应状态码导致时非 0
	StatusCode int

	// Response 失败由响应状态码导致时为最后一次响应
	Response Response

	// Cause 底层原因，可能为 nil
	Cause error

	// Attempts 实际执行的尝试次数
	Attempts int

	Kind Kind
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// HasStatus 报告失败是否携带响应状态码
func (e *RequestError) HasStatus() bool {
	return e.StatusCode != 0
}

// AsRequestError 从错误链中提取 *RequestError
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// PermanentError 永久性错误，执行器遇到后原样返回，不再重试
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "xretry: permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError 将 err 标记为不可重试
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// Unrecoverable 将 err 标记为不可重试，与 retry-go 的标记兼容，
// 在 [Do] / [DoWithData] 与 [Execute] 中都会生效
func Unrecoverable(err error) error {
	return retry.Unrecoverable(err)
}

// IsPermanent 判断 err 是否被标记为不可重试
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return true
	}
	return !retry.IsRecoverable(err)
}

// IsTimeout 判断错误是否属于超时：
// context.DeadlineExceeded、net.Error.Timeout() 或实现了 Timeout() bool 的错误
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
