// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持 lumberjack 文件轮转
//   - xmetrics: 统一观测接口，OTel 实现同时产出 span 与指标
//   - xtrace: 出站 HTTP 请求的链路追踪头注入（W3C Trace Context）
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 默认实现为空操作，不引入额外开销
package observability
