package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 构建阶段错误
var (
	ErrUnknownLevel  = errors.New("xlog: unknown level")
	ErrUnknownFormat = errors.New("xlog: unknown format")
	ErrEmptyFilename = errors.New("xlog: empty rotation filename")
)

// RotationOption 日志轮转配置选项
type RotationOption func(*lumberjack.Logger)

// WithMaxSize 单个日志文件最大尺寸（MB），默认 100
func WithMaxSize(mb int) RotationOption {
	return func(l *lumberjack.Logger) {
		if mb > 0 {
			l.MaxSize = mb
		}
	}
}

// WithMaxBackups 保留的旧日志文件数量，0 表示全部保留
func WithMaxBackups(n int) RotationOption {
	return func(l *lumberjack.Logger) {
		if n >= 0 {
			l.MaxBackups = n
		}
	}
}

// WithMaxAge 旧日志文件保留天数，0 表示不按时间清理
func WithMaxAge(days int) RotationOption {
	return func(l *lumberjack.Logger) {
		if days >= 0 {
			l.MaxAge = days
		}
	}
}

// WithCompress 是否 gzip 压缩轮转后的文件
func WithCompress(compress bool) RotationOption {
	return func(l *lumberjack.Logger) {
		l.Compress = compress
	}
}

// Builder 日志配置构建器
type Builder struct {
	output   io.Writer
	levelVar *slog.LevelVar
	format   string
	rotator  *lumberjack.Logger
	err      error
}

// New 创建配置构建器
// 默认输出到 stderr，Info 级别，text 格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置日志输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w != nil {
		b.output = w
	}
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值使用 text
func (b *Builder) SetFormat(format string) *Builder {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return b
}

// SetRotation 将日志写入按大小轮转的文件
func (b *Builder) SetRotation(filename string, opts ...RotationOption) *Builder {
	if strings.TrimSpace(filename) == "" {
		b.err = ErrEmptyFilename
		return b
	}
	l := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	b.rotator = l
	b.output = l
	return b
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例，同时支持动态级别控制
//   - func() error: 清理函数，关闭轮转文件，可重复调用
//   - error: 配置错误
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{Level: b.levelVar}
	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}

	var once sync.Once
	rotator := b.rotator
	cleanup := func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}

	return newLogger(handler, b.levelVar), cleanup, nil
}
