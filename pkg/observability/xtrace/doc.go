// Package xtrace 将链路追踪信息注入出站 HTTP 请求。
//
// 支持以下请求头：
//   - traceparent / tracestate: W3C Trace Context，来自 context 中的 OTel span
//   - X-Trace-ID / X-Span-ID: 同一 span 的十六进制 ID，便于不解析 traceparent 的下游记录日志
//   - X-Request-ID: 业务请求 ID，通过 [WithRequestID] 放入 context
//
// xhttp 在每次尝试前调用 [InjectHeader]，因此启用 OTel 观测时，
// 下游看到的父 span 是"本次尝试"而不是整个重试调用。
//
// 格式参考 https://www.w3.org/TR/trace-context/
//
//	00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01
package xtrace
