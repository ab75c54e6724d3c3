// Package xlog 提供基于 log/slog 的结构化日志接口。
//
// # 设计理念
//
//   - 强制 context 传递：所有日志方法第一个参数是 context.Context
//   - 类型安全：方法签名只接受 slog.Attr
//   - 动态级别：Build() 返回的 Logger 同时实现 Leveler
//   - 生命周期：Build() 返回 cleanup 函数，用于关闭轮转文件
//
// # 使用方式
//
//	logger, cleanup, err := xlog.New().
//	    SetLevel(xlog.LevelDebug).
//	    SetFormat("json").
//	    SetRotation("/var/log/app.log", xlog.WithMaxSize(100)).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
//	logger.Debug(ctx, "request retried", slog.Int("attempt", 2))
//
// 库代码默认使用 [Nop]，不产生任何输出，由调用方显式注入 Logger。
//
// # 日志轮转
//
// SetRotation 基于 [lumberjack] 实现按大小轮转，支持保留份数、保留天数和压缩。
//
// [lumberjack]: https://github.com/natefinch/lumberjack
package xlog
