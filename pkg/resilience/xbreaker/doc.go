// Package xbreaker 为出站 HTTP 调用提供熔断保护，基于 [sony/gobreaker/v2]。
//
// # 熔断器状态
//
//   - StateClosed（关闭）：正常状态，请求正常通过
//   - StateOpen（打开）：熔断状态，请求直接失败
//   - StateHalfOpen（半开）：探测状态，允许部分请求通过
//
// # 熔断策略
//
//   - ConsecutiveFailuresPolicy：连续失败 N 次后熔断（默认 5 次）
//   - FailureRatioPolicy：请求数达到下限后，失败率超过阈值即熔断
//
// # 与重试的关系
//
// 熔断器包裹的是"单次尝试"而不是整个重试循环：每次尝试都会计入统计，
// 熔断打开后剩余的尝试立即失败。[ExecuteResult] 允许把"有响应但状态码
// 表示失败"（例如 503）计为失败，同时把响应原样交回调用方，由重试层决定
// 是否继续。
//
// 熔断器错误包装为 [*BreakerError]，可用 [IsOpen] / [IsTooManyRequests] 判断。
//
// [Group] 按名称（通常是目标主机）懒加载独立的熔断器，
// 避免一个下游故障影响对其他下游的调用。
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xbreaker
