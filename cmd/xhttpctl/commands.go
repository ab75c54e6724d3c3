package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xhttpkit/pkg/config/xconf"
	"github.com/omeyang/xhttpkit/pkg/net/xhttp"
	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

const (
	defaultParallel = 4
	envPrefix       = "XHTTP_"
	autoKey         = "auto"
)

// newClient 构造共享客户端，测试中替换以观察客户端配置
var newClient = xhttp.NewClient

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "配置文件（YAML/JSON），可被 " + envPrefix + "* 环境变量覆盖",
		},
		&cli.IntFlag{
			Name:    "max-retries",
			Aliases: []string{"r"},
			Usage:   "最大重试次数",
			Value:   xretry.DefaultMaxRetries,
		},
		&cli.DurationFlag{
			Name:  "backoff",
			Usage: "指数退避基数",
			Value: xretry.DefaultBackoffFactor,
		},
		&cli.FloatFlag{
			Name:  "jitter",
			Usage: "抖动因子",
		},
		&cli.StringSliceFlag{
			Name:  "status",
			Usage: "触发重试的状态码，可重复或逗号分隔",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "单次尝试超时",
			Value:   xretry.DefaultTimeout,
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   `请求头 "Key: Value"，可重复`,
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "请求体，@file 表示读取文件",
		},
		&cli.StringFlag{
			Name:  "idempotency-key",
			Usage: "Idempotency-Key 请求头，" + autoKey + " 表示自动生成",
		},
		&cli.IntFlag{
			Name:    "parallel",
			Aliases: []string{"p"},
			Usage:   "多个 URL 时的并发数",
			Value:   defaultParallel,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "日志级别 (debug/info/warn/error)",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "日志文件，按大小轮转，默认输出到 stderr",
		},
	}
}

func createCommands() []*cli.Command {
	return []*cli.Command{
		createVerbCommand(http.MethodGet, "发送 GET 请求"),
		createVerbCommand(http.MethodPost, "发送 POST 请求"),
		createVerbCommand(http.MethodPut, "发送 PUT 请求"),
		createVerbCommand(http.MethodPatch, "发送 PATCH 请求"),
		createVerbCommand(http.MethodDelete, "发送 DELETE 请求"),
		createVerbCommand(http.MethodHead, "发送 HEAD 请求"),
		createVerbCommand(http.MethodOptions, "发送 OPTIONS 请求"),
	}
}

func createVerbCommand(method, usage string) *cli.Command {
	return &cli.Command{
		Name:         strings.ToLower(method),
		Usage:        usage,
		ArgsUsage:    "URL...",
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdRequest(ctx, cmd, method)
		},
	}
}

// outcome 单个 URL 的结果
type outcome struct {
	url  string
	resp *xhttp.Response
	err  error
}

func cmdRequest(ctx context.Context, cmd *cli.Command, method string) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return usagef("%s: missing URL", strings.ToLower(method))
	}
	parallel := cmd.Int("parallel")
	if parallel < 1 {
		return usagef("--parallel must be >= 1, got %d", parallel)
	}

	logger, cleanup, err := buildLogger(cmd)
	if err != nil {
		return &usageError{err: err}
	}
	defer func() { _ = cleanup() }()

	opts, timeout, err := requestOptions(cmd, logger)
	if err != nil {
		return err
	}

	// 共享客户端的超时是每次尝试的上限，WithTimeout 只能在此之内缩短
	client := newClient(xhttp.WithClientTimeout(timeout), xhttp.WithClientLogger(logger))
	defer func() { _ = client.Close() }()

	results := make([]outcome, len(urls))
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, u := range urls {
		g.Go(func() error {
			resp, err := client.Request(ctx, method, u, opts...)
			results[i] = outcome{url: u, resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return report(cmd.Root().Writer, cmd.Root().ErrWriter, method, results)
}

// report 按输入顺序输出结果，任一失败返回退出码 1
func report(stdout, stderr io.Writer, method string, results []outcome) error {
	failed := 0
	multi := len(results) > 1
	for _, r := range results {
		if r.err != nil {
			if errors.Is(r.err, xretry.ErrInvalidConfig) {
				return r.err
			}
			failed++
			fmt.Fprintf(stderr, "%s %s: %v\n", method, r.url, r.err)
			continue
		}
		if multi || method == http.MethodHead {
			fmt.Fprintf(stdout, "%s %s -> %s\n", method, r.url, r.resp.Raw().Status())
		}
		if method == http.MethodHead {
			continue
		}
		if body := r.resp.Body(); len(body) > 0 {
			_, _ = stdout.Write(body)
			if body[len(body)-1] != '\n' {
				fmt.Fprintln(stdout)
			}
		}
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func buildLogger(cmd *cli.Command) (xlog.Logger, func() error, error) {
	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cmd.String("log-level"))
	if file := cmd.String("log-file"); file != "" {
		b = b.SetRotation(file, xlog.WithMaxSize(10), xlog.WithMaxBackups(3))
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, cleanup, nil
}

// requestOptions 配置文件提供基础值，显式设置的命令行参数覆盖之。
// 同时返回最终生效的单次尝试超时，用于构造共享客户端。
func requestOptions(cmd *cli.Command, logger xlog.Logger) ([]xhttp.Option, time.Duration, error) {
	opts := []xhttp.Option{xhttp.WithLogger(logger)}
	timeout := cmd.Duration("timeout")
	fromConfig := false
	if path := cmd.String("config"); path != "" {
		cfg, err := xhttp.LoadConfig(path, xconf.WithEnv(envPrefix))
		if err != nil {
			return nil, 0, fmt.Errorf("load config %s: %w", path, err)
		}
		if !cmd.IsSet("timeout") {
			timeout = cfg.Timeout
		}
		opts = append(opts, cfg.Options()...)
		if g := cfg.BreakerGroup(logger); g != nil {
			opts = append(opts, xhttp.WithBreakerGroup(g))
		}
		fromConfig = true
	}
	use := func(name string) bool {
		return !fromConfig || cmd.IsSet(name)
	}

	if use("max-retries") {
		opts = append(opts, xhttp.WithMaxRetries(cmd.Int("max-retries")))
	}
	if use("backoff") {
		opts = append(opts, xhttp.WithBackoffFactor(cmd.Duration("backoff")))
	}
	if use("jitter") {
		opts = append(opts, xhttp.WithJitterFactor(cmd.Float("jitter")))
	}
	if use("timeout") {
		opts = append(opts, xhttp.WithTimeout(cmd.Duration("timeout")))
	}
	if cmd.IsSet("status") {
		codes, err := parseStatusCodes(cmd.StringSlice("status"))
		if err != nil {
			return nil, 0, err
		}
		opts = append(opts, xhttp.WithStatusForcelist(codes...))
	}

	headers, err := parseHeaders(cmd.StringSlice("header"))
	if err != nil {
		return nil, 0, err
	}
	if len(headers) > 0 {
		opts = append(opts, xhttp.WithHeaders(headers))
	}

	if data := cmd.String("data"); data != "" {
		body, err := readData(data)
		if err != nil {
			return nil, 0, err
		}
		opts = append(opts, xhttp.WithBody(body))
	}

	switch key := cmd.String("idempotency-key"); key {
	case "":
	case autoKey:
		opts = append(opts, xhttp.WithIdempotencyKey(""))
	default:
		opts = append(opts, xhttp.WithIdempotencyKey(key))
	}
	return opts, timeout, nil
}

// parseStatusCodes 支持 "--status 429,503" 与重复的 "--status 500"
func parseStatusCodes(values []string) ([]int, error) {
	var codes []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			code, err := strconv.Atoi(part)
			if err != nil || code < 100 || code > 599 {
				return nil, usagef("invalid status code %q", part)
			}
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// parseHeaders 解析 "Key: Value"，值中可以包含冒号
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, usagef("invalid header %q, want \"Key: Value\"", v)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

// readData "@file" 读取文件内容，其余原样作为请求体
func readData(data string) ([]byte, error) {
	name, ok := strings.CutPrefix(data, "@")
	if !ok {
		return []byte(data), nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, &usageError{err: fmt.Errorf("read data file: %w", err)}
	}
	return b, nil
}
