package xretry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
	"github.com/omeyang/xhttpkit/pkg/observability/xmetrics"
)

const componentName = "xretry"

// Result 异步执行结果
type Result[R Response] struct {
	Response R
	Err      error
}

// Execute 以重试方式执行 fn。
//
// policy 应已通过 [Policy.Validate] 校验，Execute 不修改它。
// 成功时返回最后一次尝试的响应；失败时返回 [*RequestError]，
// 被标记为永久性的错误原样返回。
//
// ctx 取消时立即结束等待并返回包装了 ctx.Err() 的 [*RequestError]。
func Execute[R Response](ctx context.Context, url, method string, fn AttemptFunc[R], policy Policy, opts ...Option) (R, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	r := &run[R]{
		url:    url,
		method: method,
		fn:     fn,
		policy: policy,
		opts:   o,
		logger: o.logger.With(slog.String("method", method), slog.String("url", url)),
	}
	return r.loop(ctx)
}

// ExecuteAsync 在独立 goroutine 中执行 [Execute]，结果通过 channel 交付一次后关闭。
// 调用方可以不读取结果，goroutine 不会因此阻塞。
func ExecuteAsync[R Response](ctx context.Context, url, method string, fn AttemptFunc[R], policy Policy, opts ...Option) <-chan Result[R] {
	ch := make(chan Result[R], 1)
	go func() {
		defer close(ch)
		resp, err := Execute(ctx, url, method, fn, policy, opts...)
		ch <- Result[R]{Response: resp, Err: err}
	}()
	return ch
}

// run 单次调用的执行状态，不跨调用共享
type run[R Response] struct {
	url    string
	method string
	fn     AttemptFunc[R]
	policy Policy
	opts   *options
	logger xlog.Logger
}

func (r *run[R]) loop(ctx context.Context) (R, error) {
	var zero R
	maxRetries := max(r.policy.MaxRetries, 0)
	total := maxRetries + 1

	for attempt := 0; ; attempt++ {
		last := attempt >= maxRetries
		resp, err := r.call(ctx, attempt)

		if err != nil && ctx.Err() != nil {
			return zero, r.canceled(attempt+1, ctx.Err())
		}

		outcome := Classify(r.policy, resp, err)
		state := next(StateAttempting, outcome, last)

		switch outcome {
		case OutcomeSuccess:
			if attempt > 0 {
				r.logger.Debug(ctx, "request succeeded after retries", slog.Int("attempts", attempt+1))
			}
			return resp, nil

		case OutcomeTerminal:
			if err != nil {
				return zero, err
			}
			r.logger.Debug(ctx, "non-retryable status", slog.Int("status", resp.StatusCode()))
			return zero, r.statusFailure(resp, attempt+1)

		case OutcomeRetryable:
			code := resp.StatusCode()
			r.logger.Debug(ctx, "retryable status",
				slog.Int("status", code),
				slog.String("attempt", fmt.Sprintf("%d/%d", attempt+1, total)))
			if state == StateFailedTerminal {
				return zero, r.statusExhausted(resp, attempt+1)
			}
			if err := r.backoff(ctx, attempt, resp, statusCause(resp)); err != nil {
				return zero, err
			}

		case OutcomeTransient:
			timeout := IsTimeout(err)
			if timeout {
				r.logger.Debug(ctx, "request timed out",
					slog.String("attempt", fmt.Sprintf("%d/%d", attempt+1, total)))
			} else {
				r.logger.Debug(ctx, "request failed",
					slog.String("attempt", fmt.Sprintf("%d/%d", attempt+1, total)), xlog.Err(err))
			}
			if state == StateFailedTerminal {
				return zero, r.transientExhausted(err, timeout, attempt+1)
			}
			if err := r.backoff(ctx, attempt, nil, err); err != nil {
				return zero, err
			}
		}
	}
}

// call 执行一次尝试并记录观测
func (r *run[R]) call(ctx context.Context, attempt int) (R, error) {
	spanCtx, span := xmetrics.Start(ctx, r.opts.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: r.method,
		Kind:      xmetrics.KindInternal,
		Attrs: []xmetrics.Attr{
			xmetrics.String("url", r.url),
			xmetrics.Int("attempt", attempt),
		},
	})
	resp, err := r.fn(spanCtx, r.url)

	result := xmetrics.Result{Err: err}
	if err == nil {
		code := resp.StatusCode()
		result.Attrs = []xmetrics.Attr{xmetrics.Int("status_code", code)}
		if code >= 400 {
			result.Status = xmetrics.StatusError
			result.Err = statusCause(resp)
		}
	}
	span.End(result)
	return resp, err
}

// backoff 计算等待时间并挂起。resp 仅在状态码失败时非 nil。
func (r *run[R]) backoff(ctx context.Context, attempt int, resp Response, cause error) error {
	base, fromHeader := Base(attempt, r.policy.BackoffFactor, resp, r.opts.now())
	if fromHeader {
		v, _ := resp.Header(HeaderRetryAfter)
		r.logger.Debug(ctx, "using Retry-After", slog.String("value", v), slog.Duration("delay", base))
	}
	delay := applyJitter(base, r.policy.JitterFactor, r.opts.rand)
	r.logger.Debug(ctx, "waiting before retry",
		slog.Duration("delay", delay),
		slog.Duration("base", base),
		slog.Duration("jitter", max(delay-max(base, 0), 0)))

	if r.opts.onRetry != nil {
		r.opts.onRetry(attempt, delay, cause)
	}
	if err := r.opts.sleeper.Sleep(ctx, delay); err != nil {
		return r.canceled(attempt+1, err)
	}
	// BlockingSleeper 不响应取消，醒来后再检查一次
	if err := ctx.Err(); err != nil {
		return r.canceled(attempt+1, err)
	}
	return nil
}

func (r *run[R]) statusFailure(resp Response, attempts int) error {
	code := resp.StatusCode()
	return &RequestError{
		Method:     r.method,
		URL:        r.url,
		Message:    fmt.Sprintf("%s request to %s failed with status %d", r.method, r.url, code),
		StatusCode: code,
		Response:   resp,
		Cause:      statusCause(resp),
		Attempts:   attempts,
		Kind:       KindStatus,
	}
}

func (r *run[R]) statusExhausted(resp Response, attempts int) error {
	code := resp.StatusCode()
	return &RequestError{
		Method:     r.method,
		URL:        r.url,
		Message:    fmt.Sprintf("%s request to %s failed with status %d after %d attempts", r.method, r.url, code, attempts),
		StatusCode: code,
		Response:   resp,
		Cause:      statusCause(resp),
		Attempts:   attempts,
		Kind:       KindStatusExhausted,
	}
}

func (r *run[R]) transientExhausted(err error, timeout bool, attempts int) error {
	if timeout {
		return &RequestError{
			Method:   r.method,
			URL:      r.url,
			Message:  fmt.Sprintf("%s request to %s timed out (%d attempts)", r.method, r.url, attempts),
			Cause:    err,
			Attempts: attempts,
			Kind:     KindTimeout,
		}
	}
	return &RequestError{
		Method:   r.method,
		URL:      r.url,
		Message:  fmt.Sprintf("%s request to %s failed after %d attempts: %v", r.method, r.url, attempts, err),
		Cause:    err,
		Attempts: attempts,
		Kind:     KindNetwork,
	}
}

func (r *run[R]) canceled(attempts int, err error) error {
	return &RequestError{
		Method:   r.method,
		URL:      r.url,
		Message:  fmt.Sprintf("%s request to %s canceled after %d attempts: %v", r.method, r.url, attempts, err),
		Cause:    err,
		Attempts: attempts,
		Kind:     KindCanceled,
	}
}

// statusCause 优先使用响应自身提供的状态错误
func statusCause(resp Response) error {
	if se, ok := resp.(StatusErrorer); ok {
		if err := se.StatusError(); err != nil {
			return err
		}
	}
	return fmt.Errorf("status %d", resp.StatusCode())
}
