package xhttp

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

var (
	_ xretry.Response      = (*Response)(nil)
	_ xretry.StatusErrorer = (*Response)(nil)
)

// maxErrorBody StatusError 中保留的响应体长度
const maxErrorBody = 512

// Response 一次尝试的响应
type Response struct {
	raw *resty.Response
}

func newResponse(raw *resty.Response) *Response {
	return &Response{raw: raw}
}

// StatusCode 返回 HTTP 状态码
func (r *Response) StatusCode() int {
	return r.raw.StatusCode()
}

// Header 按名称查找响应头，大小写不敏感
func (r *Response) Header(name string) (string, bool) {
	h := r.raw.Header()
	if h == nil {
		return "", false
	}
	if v := h.Values(name); len(v) > 0 {
		return v[0], true
	}
	return "", false
}

// Headers 返回全部响应头
func (r *Response) Headers() http.Header {
	return r.raw.Header()
}

// Body 返回响应体
func (r *Response) Body() []byte {
	return r.raw.Body()
}

// String 返回响应体字符串
func (r *Response) String() string {
	return r.raw.String()
}

// Duration 返回本次尝试耗时
func (r *Response) Duration() time.Duration {
	return r.raw.Time()
}

// Raw 返回底层 resty 响应
func (r *Response) Raw() *resty.Response {
	return r.raw
}

// StatusError 状态码 >= 400 时返回 *StatusError，否则返回 nil
func (r *Response) StatusError() error {
	code := r.StatusCode()
	if code < 400 {
		return nil
	}
	se := &StatusError{Code: code, Body: truncate(r.String(), maxErrorBody)}
	if req := r.raw.Request; req != nil {
		se.Method = req.Method
		se.URL = req.URL
	}
	return se
}

// StatusError 4xx / 5xx 响应对应的错误
type StatusError struct {
	Code   int
	Method string
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	kind := "Server Error"
	if e.Code < 500 {
		kind = "Client Error"
	}
	msg := fmt.Sprintf("%d %s: %s", e.Code, kind, http.StatusText(e.Code))
	if e.URL != "" {
		msg += " for url: " + e.URL
	}
	return msg
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
