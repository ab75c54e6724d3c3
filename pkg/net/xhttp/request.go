package xhttp

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
	"github.com/omeyang/xhttpkit/pkg/observability/xmetrics"
	"github.com/omeyang/xhttpkit/pkg/resilience/xbreaker"
	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

const componentName = "xhttp"

// Result 异步请求结果
type Result = xretry.Result[*Response]

// Request 以重试方式发送 HTTP 请求。
//
// 配置在任何网络请求之前校验，非法时返回包装了 [xretry.ErrInvalidConfig] 的错误。
// 未通过 [WithClient] 提供客户端时，内部创建一个并在返回前关闭。
//
// 成功返回状态码 < 400 的响应；失败返回 [*xretry.RequestError]，
// 熔断器拒绝时返回 [*xbreaker.BreakerError]。
func Request(ctx context.Context, method, rawURL string, opts ...Option) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rc := newRequestConfig(opts)
	if err := rc.validate(); err != nil {
		return nil, err
	}
	method = strings.ToUpper(method)

	client := rc.client
	if client == nil {
		copts := append([]ClientOption{
			WithClientTimeout(rc.timeout()),
			WithClientLogger(rc.logger),
		}, rc.clientOpts...)
		client = NewClient(copts...)
		defer func() {
			_ = client.Close()
		}()
	}
	return rc.do(ctx, client, method, rawURL)
}

// Get 发送 GET 请求
func Get(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return Request(ctx, http.MethodGet, url, opts...)
}

// Post 发送 POST 请求
func Post(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return Request(ctx, http.MethodPost, url, opts...)
}

// Put 发送 PUT 请求
func Put(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return Request(ctx, http.MethodPut, url, opts...)
}

// Patch 发送 PATCH 请求
func Patch(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return Request(ctx, http.MethodPatch, url, opts...)
}

// Delete 发送 DELETE 请求
func Delete(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return Request(ctx, http.MethodDelete, url, opts...)
}

// Head 发送 HEAD 请求
func Head(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return Request(ctx, http.MethodHead, url, opts...)
}

// Options 发送 OPTIONS 请求
func Options(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return Request(ctx, http.MethodOptions, url, opts...)
}

// RequestAsync 在独立 goroutine 中执行 [Request]，结果交付一次后关闭 channel
func RequestAsync(ctx context.Context, method, url string, opts ...Option) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := Request(ctx, method, url, opts...)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

// GetAsync 异步 GET
func GetAsync(ctx context.Context, url string, opts ...Option) <-chan Result {
	return RequestAsync(ctx, http.MethodGet, url, opts...)
}

// PostAsync 异步 POST
func PostAsync(ctx context.Context, url string, opts ...Option) <-chan Result {
	return RequestAsync(ctx, http.MethodPost, url, opts...)
}

// PutAsync 异步 PUT
func PutAsync(ctx context.Context, url string, opts ...Option) <-chan Result {
	return RequestAsync(ctx, http.MethodPut, url, opts...)
}

// PatchAsync 异步 PATCH
func PatchAsync(ctx context.Context, url string, opts ...Option) <-chan Result {
	return RequestAsync(ctx, http.MethodPatch, url, opts...)
}

// DeleteAsync 异步 DELETE
func DeleteAsync(ctx context.Context, url string, opts ...Option) <-chan Result {
	return RequestAsync(ctx, http.MethodDelete, url, opts...)
}

// validate 显式设置的超时必须大于 0，其余规则同 [xretry.Validate]
func (rc *requestConfig) validate() error {
	p := rc.policy
	if rc.timeoutSet {
		return xretry.Validate(p.MaxRetries, p.BackoffFactor, p.JitterFactor, p.Timeout)
	}
	return p.Validate()
}

func (rc *requestConfig) timeout() time.Duration {
	if rc.policy.Timeout > 0 {
		return rc.policy.Timeout
	}
	return xretry.DefaultTimeout
}

func (rc *requestConfig) do(ctx context.Context, client *Client, method, rawURL string) (*Response, error) {
	ctx, span := xmetrics.Start(ctx, rc.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: method,
		Kind:      xmetrics.KindClient,
		Attrs: []xmetrics.Attr{
			xmetrics.String("url", rawURL),
			xmetrics.Int("max_retries", rc.policy.MaxRetries),
		},
	})

	fn := client.attempt(method, rc)
	if rc.timeoutSet && rc.client != nil {
		fn = withAttemptTimeout(fn, rc.policy.Timeout)
	}
	if b := rc.resolveBreaker(rawURL); b != nil {
		fn = guard(fn, b, rc.policy)
	}

	opts := append([]xretry.Option{
		xretry.WithLogger(rc.logger),
		xretry.WithObserver(rc.observer),
	}, rc.retryOpts...)
	resp, err := xretry.Execute(ctx, rawURL, method, fn, rc.policy, opts...)

	result := xmetrics.Result{Err: err}
	if resp != nil {
		result.Attrs = []xmetrics.Attr{xmetrics.Int("status_code", resp.StatusCode())}
	}
	if re, ok := xretry.AsRequestError(err); ok {
		result.Attrs = append(result.Attrs,
			xmetrics.String("error_kind", re.Kind.String()),
			xmetrics.Int("attempts", re.Attempts))
	}
	span.End(result)

	if err != nil {
		rc.logger.Debug(ctx, "request failed", xlog.Err(err))
		return nil, unwrapPermanent(err)
	}
	return resp, nil
}

func (rc *requestConfig) resolveBreaker(rawURL string) *xbreaker.Breaker {
	if rc.breaker != nil {
		return rc.breaker
	}
	if rc.breakers == nil {
		return nil
	}
	return rc.breakers.Get(breakerKey(rawURL))
}

// breakerKey 以 host 作为熔断器名称，解析失败时使用原始 URL
func breakerKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// guard 用熔断器包裹单次尝试。
// 5xx 和 StatusForcelist 中的状态码计为失败；熔断器拒绝视为永久错误，不再重试。
func guard(fn xretry.AttemptFunc[*Response], b *xbreaker.Breaker, p xretry.Policy) xretry.AttemptFunc[*Response] {
	failed := func(r *Response) bool {
		if r == nil {
			return false
		}
		code := r.StatusCode()
		return code >= 500 || p.Retryable(code)
	}
	return func(ctx context.Context, url string) (*Response, error) {
		resp, err := xbreaker.ExecuteResult(ctx, b, func() (*Response, error) {
			return fn(ctx, url)
		}, failed)
		if err != nil && xbreaker.IsBreakerError(err) {
			return nil, xretry.NewPermanentError(err)
		}
		return resp, err
	}
}

// withAttemptTimeout 调用方提供客户端时，超时作用于每次尝试的 context
func withAttemptTimeout(fn xretry.AttemptFunc[*Response], d time.Duration) xretry.AttemptFunc[*Response] {
	return func(ctx context.Context, url string) (*Response, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		// resty 在返回前已读完响应体，cancel 不影响结果
		return fn(ctx, url)
	}
}

// unwrapPermanent 去掉 PermanentError 外壳，返回原始错误
func unwrapPermanent(err error) error {
	if pe, ok := err.(*xretry.PermanentError); ok && pe.Err != nil { //nolint:errorlint // 只处理执行器原样返回的外层
		return pe.Err
	}
	return err
}
