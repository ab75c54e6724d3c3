package xlog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

var (
	_ LoggerWithLevel = (*xlogger)(nil)
	_ Logger          = nopLogger{}
)

// xlogger Logger 接口的 slog 实现
type xlogger struct {
	handler    slog.Handler
	levelVar   *slog.LevelVar
	errorCount *atomic.Uint64 // Handler.Handle 失败次数，派生 logger 共享
}

func newLogger(handler slog.Handler, levelVar *slog.LevelVar) *xlogger {
	return &xlogger{
		handler:    handler,
		levelVar:   levelVar,
		errorCount: new(atomic.Uint64),
	}
}

func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(attrs...)
	// 日志写入失败不向业务返回，只计数
	if err := l.handler.Handle(ctx, r); err != nil {
		l.errorCount.Add(1)
	}
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{
		handler:    l.handler.WithAttrs(attrs),
		levelVar:   l.levelVar,
		errorCount: l.errorCount,
	}
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.handler.Enabled(ctx, slog.Level(level))
}

// ErrorCount 返回 Handler 写入失败次数（用于监控/测试）
func (l *xlogger) ErrorCount() uint64 {
	return l.errorCount.Load()
}

// nopLogger 丢弃所有日志
type nopLogger struct{}

// Nop 返回不输出任何内容的 Logger。
// 库代码在调用方未注入 Logger 时使用。
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, ...slog.Attr) {}
func (nopLogger) Info(context.Context, string, ...slog.Attr)  {}
func (nopLogger) Warn(context.Context, string, ...slog.Attr)  {}
func (nopLogger) Error(context.Context, string, ...slog.Attr) {}
func (n nopLogger) With(...slog.Attr) Logger                  { return n }

// Err 创建 error 属性，nil 错误输出空字符串
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
