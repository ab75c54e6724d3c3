// xhttpctl 是带重试的 HTTP 命令行客户端，基于 xhttp。
//
// 用法:
//
//	xhttpctl [全局选项] <命令> URL...
//
// 全局选项:
//
//	-c, --config        配置文件（YAML/JSON），命令行参数优先
//	-r, --max-retries   最大重试次数 (默认: 3)
//	    --backoff       指数退避基数 (默认: 300ms)
//	    --jitter        抖动因子 (默认: 0)
//	    --status        触发重试的状态码，可重复或逗号分隔 (默认: 429,500,502,503,504)
//	-t, --timeout       单次尝试超时 (默认: 10s)
//	-H, --header        请求头 "Key: Value"，可重复
//	-d, --data          请求体，@file 表示读取文件
//	    --idempotency-key  Idempotency-Key 请求头，auto 表示自动生成
//	-p, --parallel      多个 URL 时的并发数 (默认: 4)
//	    --log-level     日志级别 (默认: warn)
//	    --log-file      日志文件，按大小轮转
//
// 命令:
//
//	get, post, put, patch, delete, head, options
//
// 退出码:
//
//	0: 所有请求成功
//	1: 至少一个请求失败
//	2: 参数错误（未知命令、缺少 URL、非法重试参数等）
//
// 示例:
//
//	xhttpctl get https://api.example.com/health
//	xhttpctl -r 5 --backoff 1s post -d @order.json https://api.example.com/orders
//	xhttpctl --log-level debug -p 8 get https://a.example.com https://b.example.com
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

// 版本信息（可通过 -ldflags 注入）
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError 参数错误，退出码 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitError 输出已完成，只需设置退出码
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) || errors.Is(err, xretry.ErrInvalidConfig) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xhttpctl",
		Usage:     "带重试的 HTTP 命令行客户端",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		ArgsUsage: "<command> URL...",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Commands:  createCommands(),
		// 逗号可能出现在请求头值中，--status 自行拆分
		DisableSliceFlagSeparator: true,
		OnUsageError:              onUsageError,
		// 禁止 urfave/cli 直接调用 os.Exit，退出码统一由 run 处理
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() > 0 {
				return usagef("unknown command %q", cmd.Args().First())
			}
			_ = cli.ShowRootCommandHelp(cmd)
			return &exitError{code: 2}
		},
	}
}

func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{err: err}
}
