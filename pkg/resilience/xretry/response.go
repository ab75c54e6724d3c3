package xretry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Response 执行器所需的最小响应视图
type Response interface {
	// StatusCode 返回 HTTP 状态码
	StatusCode() int

	// Header 按名称查找响应头，名称大小写不敏感
	Header(name string) (string, bool)
}

// StatusErrorer 响应可选实现：提供与状态码对应的错误，
// 作为非重试状态失败的 Cause
type StatusErrorer interface {
	StatusError() error
}

// AttemptFunc 执行一次请求。
// 实现方负责应用单次超时，返回的错误由执行器分类。
type AttemptFunc[R Response] func(ctx context.Context, url string) (R, error)

// HeaderResponse 基于 http.Header 的 Response 实现，
// 用于测试或包装标准库响应。
type HeaderResponse struct {
	Code    int
	Headers http.Header
}

// NewHeaderResponse 创建 HeaderResponse，kv 为交替的键值对
func NewHeaderResponse(code int, kv ...string) *HeaderResponse {
	h := make(http.Header, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return &HeaderResponse{Code: code, Headers: h}
}

func (r *HeaderResponse) StatusCode() int {
	return r.Code
}

func (r *HeaderResponse) Header(name string) (string, bool) {
	if r.Headers == nil {
		return "", false
	}
	// http.Header.Get 已做规范化，这里额外兼容未规范化的键
	if v := r.Headers.Values(name); len(v) > 0 {
		return v[0], true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}

func (r *HeaderResponse) StatusError() error {
	return fmt.Errorf("%d %s", r.Code, http.StatusText(r.Code))
}
