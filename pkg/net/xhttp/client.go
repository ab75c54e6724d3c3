package xhttp

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
	"github.com/omeyang/xhttpkit/pkg/observability/xtrace"
	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

// Client 可复用的 HTTP 客户端，并发安全
//
// 重试由 xretry 负责，底层 resty 的重试始终关闭。
type Client struct {
	rc     *resty.Client
	logger xlog.Logger
}

type clientOptions struct {
	timeout   time.Duration
	headers   map[string]string
	transport http.RoundTripper
	logger    xlog.Logger
}

// ClientOption 客户端配置选项
type ClientOption func(*clientOptions)

// WithClientTimeout 设置单次请求超时，默认 [xretry.DefaultTimeout]
func WithClientTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithClientHeaders 设置每个请求都携带的请求头
func WithClientHeaders(h map[string]string) ClientOption {
	return func(o *clientOptions) {
		o.headers = maps.Clone(h)
	}
}

// WithTransport 替换底层 Transport
func WithTransport(t http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithClientLogger 设置客户端日志，resty 内部的告警也会输出到这里
func WithClientLogger(l xlog.Logger) ClientOption {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewClient 创建客户端，用完调用 Close
func NewClient(opts ...ClientOption) *Client {
	o := &clientOptions{
		timeout: xretry.DefaultTimeout,
		logger:  xlog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	rc := resty.New().
		SetTimeout(o.timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{l: o.logger})
	if len(o.headers) > 0 {
		rc.SetHeaders(o.headers)
	}
	if o.transport != nil {
		rc.SetTransport(o.transport)
	}
	return &Client{rc: rc, logger: o.logger}
}

// Close 释放空闲连接，可重复调用
func (c *Client) Close() error {
	c.rc.GetClient().CloseIdleConnections()
	return nil
}

// Resty 返回底层 resty 客户端
func (c *Client) Resty() *resty.Client {
	return c.rc
}

// Timeout 返回单次请求超时
func (c *Client) Timeout() time.Duration {
	return c.rc.GetClient().Timeout
}

// Request 使用本客户端发送请求，客户端不会被关闭
func (c *Client) Request(ctx context.Context, method, url string, opts ...Option) (*Response, error) {
	return Request(ctx, method, url, append(opts, WithClient(c))...)
}

// Get 发送 GET 请求
func (c *Client) Get(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Request(ctx, http.MethodGet, url, opts...)
}

// Post 发送 POST 请求
func (c *Client) Post(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Request(ctx, http.MethodPost, url, opts...)
}

// Put 发送 PUT 请求
func (c *Client) Put(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Request(ctx, http.MethodPut, url, opts...)
}

// Patch 发送 PATCH 请求
func (c *Client) Patch(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, url, opts...)
}

// Delete 发送 DELETE 请求
func (c *Client) Delete(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, url, opts...)
}

// Head 发送 HEAD 请求
func (c *Client) Head(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Request(ctx, http.MethodHead, url, opts...)
}

// Options 发送 OPTIONS 请求
func (c *Client) Options(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Request(ctx, http.MethodOptions, url, opts...)
}

// attempt 构造单次尝试，每次调用都新建 resty 请求
func (c *Client) attempt(method string, rc *requestConfig) xretry.AttemptFunc[*Response] {
	return func(ctx context.Context, url string) (*Response, error) {
		req := c.rc.R().SetContext(ctx)
		// 追踪头按本次尝试的 span 生成，调用方显式设置的同名请求头优先
		th := make(http.Header)
		xtrace.InjectHeader(ctx, th)
		for k := range th {
			req.SetHeader(k, th.Get(k))
		}
		if len(rc.headers) > 0 {
			req.SetHeaders(rc.headers)
		}
		if len(rc.query) > 0 {
			req.SetQueryParams(rc.query)
		}
		if rc.body != nil {
			req.SetBody(rc.body)
		}
		if rc.basicAuth != nil {
			req.SetBasicAuth(rc.basicAuth.user, rc.basicAuth.password)
		}
		raw, err := req.Execute(method, url)
		if err != nil {
			return nil, err
		}
		return newResponse(raw), nil
	}
}

// restyLogger 将 resty 的日志转发到 xlog
type restyLogger struct {
	l xlog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Error(context.Background(), r.msg(format, v), slog.String("source", "resty"))
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(context.Background(), r.msg(format, v), slog.String("source", "resty"))
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(context.Background(), r.msg(format, v), slog.String("source", "resty"))
}

func (restyLogger) msg(format string, v []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
