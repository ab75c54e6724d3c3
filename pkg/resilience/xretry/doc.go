// Package xretry 提供 HTTP 请求重试的决策核心：执行器、退避计算、
// Retry-After 解析和参数校验。
//
// # 设计理念
//
// xretry 不实现 HTTP 客户端，只负责"是否重试、等待多久、最终返回什么错误"。
// 单次网络调用由调用方以 [AttemptFunc] 形式注入，执行器只依赖 [Response]
// 接口（状态码 + 大小写不敏感的 Header 查询）。
//
// # 重试规则
//
// 共执行 MaxRetries+1 次尝试（attempt 从 0 开始）：
//   - 状态码 < 400：立即返回响应
//   - 状态码 >= 400 且不在 StatusForcelist：立即失败，不再重试
//   - 状态码在 StatusForcelist：未到最后一次则退避后重试
//   - 超时错误 / 网络错误：未到最后一次则退避后重试
//   - [PermanentError] / [Unrecoverable] 错误：原样返回，不重试
//
// 所有终态失败都以 [*RequestError] 返回，消息格式固定：
//
//	GET request to <url> failed with status 503 after 4 attempts
//	GET request to <url> timed out (4 attempts)
//	GET request to <url> failed after 4 attempts: <cause>
//
// # 退避
//
// 退避时间 = BackoffFactor * 2^attempt；响应带可解析的 Retry-After 时
// 以服务端值为准。JitterFactor > 0 时叠加 [0, JitterFactor) 比例的随机
// 抖动，抖动只增不减。JitterFactor 为 0（默认）时结果是确定的。
//
// # 执行模式
//
// 决策逻辑只有一份，挂起原语通过 [Sleeper] 注入：
//   - [ContextSleeper]（默认）：等待期间响应 ctx 取消
//   - [BlockingSleeper]：在调用 goroutine 上 time.Sleep
//
// [ExecuteAsync] 在独立 goroutine 中运行同一循环，通过 channel 交付结果。
//
// # 参数校验
//
// [Validate] / [Policy.Validate] 在循环开始前执行一次，失败返回
// [ErrInvalidConfig]，与 [*RequestError] 区分。执行器本身不再重复校验。
//
// # 通用重试
//
// 非 HTTP 场景可用 [Do] / [DoWithData]，底层基于 [avast/retry-go/v5]，
// 与执行器共享同一份 Policy 退避参数。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
