package xhttp

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
	"github.com/omeyang/xhttpkit/pkg/observability/xmetrics"
	"github.com/omeyang/xhttpkit/pkg/resilience/xbreaker"
	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

// HeaderIdempotencyKey 幂等键请求头
const HeaderIdempotencyKey = "Idempotency-Key"

type basicAuth struct {
	user     string
	password string
}

// requestConfig 单次调用的配置，不跨调用共享
type requestConfig struct {
	client     *Client
	clientOpts []ClientOption

	headers   map[string]string
	query     map[string]string
	body      any
	basicAuth *basicAuth

	policy     xretry.Policy
	timeoutSet bool

	logger    xlog.Logger
	observer  xmetrics.Observer
	breaker   *xbreaker.Breaker
	breakers  *xbreaker.Group
	retryOpts []xretry.Option
}

func newRequestConfig(opts []Option) *requestConfig {
	rc := &requestConfig{
		policy:   xretry.DefaultPolicy(),
		logger:   xlog.Nop(),
		observer: xmetrics.NoopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}
	return rc
}

func (rc *requestConfig) setHeader(k, v string) {
	if rc.headers == nil {
		rc.headers = make(map[string]string)
	}
	rc.headers[k] = v
}

// Option 请求选项
type Option func(*requestConfig)

// WithClient 使用调用方的客户端，调用结束后不会关闭
func WithClient(c *Client) Option {
	return func(rc *requestConfig) {
		rc.client = c
	}
}

// WithClientOptions 配置本次调用内部创建的客户端，例如 [WithTransport]。
// 内部客户端在调用结束时关闭；与 [WithClient] 同时使用时被忽略。
func WithClientOptions(opts ...ClientOption) Option {
	return func(rc *requestConfig) {
		rc.clientOpts = append(rc.clientOpts, opts...)
	}
}

// WithHeader 设置单个请求头
func WithHeader(key, value string) Option {
	return func(rc *requestConfig) {
		rc.setHeader(key, value)
	}
}

// WithHeaders 批量设置请求头
func WithHeaders(h map[string]string) Option {
	return func(rc *requestConfig) {
		for k, v := range h {
			rc.setHeader(k, v)
		}
	}
}

// WithQuery 设置查询参数
func WithQuery(q map[string]string) Option {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]string, len(q))
		}
		maps.Copy(rc.query, q)
	}
}

// WithBody 设置请求体，由 resty 负责编码（struct/map 编码为 JSON）。
// 重试时会重新发送，io.Reader 类型的请求体只能读取一次，应改用 []byte。
func WithBody(body any) Option {
	return func(rc *requestConfig) {
		rc.body = body
	}
}

// WithBasicAuth 设置 Basic 认证
func WithBasicAuth(user, password string) Option {
	return func(rc *requestConfig) {
		rc.basicAuth = &basicAuth{user: user, password: password}
	}
}

// WithIdempotencyKey 设置 Idempotency-Key 请求头，同一次调用的所有尝试共用该值。
// key 为空时生成随机 UUID。
func WithIdempotencyKey(key string) Option {
	return func(rc *requestConfig) {
		k := key
		if k == "" {
			k = uuid.NewString()
		}
		rc.setHeader(HeaderIdempotencyKey, k)
	}
}

// WithMaxRetries 设置最大重试次数，默认 3
func WithMaxRetries(n int) Option {
	return func(rc *requestConfig) {
		rc.policy.MaxRetries = n
	}
}

// WithBackoffFactor 设置指数退避基数，默认 300ms
func WithBackoffFactor(d time.Duration) Option {
	return func(rc *requestConfig) {
		rc.policy.BackoffFactor = d
	}
}

// WithJitterFactor 设置抖动因子，默认 0
func WithJitterFactor(f float64) Option {
	return func(rc *requestConfig) {
		rc.policy.JitterFactor = f
	}
}

// WithStatusForcelist 设置需要重试的状态码，替换默认列表
func WithStatusForcelist(codes ...int) Option {
	return func(rc *requestConfig) {
		rc.policy.StatusForcelist = slices.Clone(codes)
	}
}

// WithTimeout 设置单次尝试超时，默认 10s，必须大于 0。
//
// 与 [WithClient] 同时使用时，超时通过每次尝试的 context 生效，只能缩短
// 客户端自身的超时（见 [WithClientTimeout]），不能延长。
func WithTimeout(d time.Duration) Option {
	return func(rc *requestConfig) {
		rc.policy.Timeout = d
		rc.timeoutSet = true
	}
}

// WithPolicy 整体替换重试策略
func WithPolicy(p xretry.Policy) Option {
	return func(rc *requestConfig) {
		rc.policy = p.Clone()
		rc.timeoutSet = p.Timeout != 0
	}
}

// WithSleeper 设置退避等待原语，传入 [xretry.BlockingSleeper] 即为阻塞模式
func WithSleeper(s xretry.Sleeper) Option {
	return func(rc *requestConfig) {
		rc.retryOpts = append(rc.retryOpts, xretry.WithSleeper(s))
	}
}

// WithLogger 设置日志
func WithLogger(l xlog.Logger) Option {
	return func(rc *requestConfig) {
		if l != nil {
			rc.logger = l
		}
	}
}

// WithObserver 设置观测器
func WithObserver(obs xmetrics.Observer) Option {
	return func(rc *requestConfig) {
		if obs != nil {
			rc.observer = obs
		}
	}
}

// WithBreaker 用熔断器保护每次尝试
func WithBreaker(b *xbreaker.Breaker) Option {
	return func(rc *requestConfig) {
		rc.breaker = b
	}
}

// WithBreakerGroup 按目标主机选择熔断器，WithBreaker 优先
func WithBreakerGroup(g *xbreaker.Group) Option {
	return func(rc *requestConfig) {
		rc.breakers = g
	}
}

// WithRetryOptions 透传执行器选项，例如 [xretry.WithOnRetry]
func WithRetryOptions(opts ...xretry.Option) Option {
	return func(rc *requestConfig) {
		rc.retryOpts = append(rc.retryOpts, opts...)
	}
}
