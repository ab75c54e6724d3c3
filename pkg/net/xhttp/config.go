package xhttp

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/omeyang/xhttpkit/pkg/config/xconf"
	"github.com/omeyang/xhttpkit/pkg/observability/xlog"
	"github.com/omeyang/xhttpkit/pkg/resilience/xbreaker"
	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

// Config 可从配置文件加载的请求配置
//
//	max_retries: 5
//	backoff_factor: 200ms
//	jitter_factor: 0.1
//	status_forcelist: [429, 502, 503]
//	timeout: 5s
//	headers:
//	  User-Agent: xhttpkit
//	breaker:
//	  consecutive_failures: 10
//	  open_timeout: 30s
type Config struct {
	MaxRetries      int               `koanf:"max_retries" json:"max_retries"`
	BackoffFactor   time.Duration     `koanf:"backoff_factor" json:"backoff_factor"`
	JitterFactor    float64           `koanf:"jitter_factor" json:"jitter_factor"`
	StatusForcelist []int             `koanf:"status_forcelist" json:"status_forcelist"`
	Timeout         time.Duration     `koanf:"timeout" json:"timeout"`
	Headers         map[string]string `koanf:"headers" json:"headers"`

	// Breaker 为空时不启用熔断
	Breaker *xbreaker.Config `koanf:"breaker" json:"breaker"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxRetries:      xretry.DefaultMaxRetries,
		BackoffFactor:   xretry.DefaultBackoffFactor,
		StatusForcelist: xretry.DefaultStatusForcelist(),
		Timeout:         xretry.DefaultTimeout,
	}
}

func defaultsMap() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"max_retries":      d.MaxRetries,
		"backoff_factor":   d.BackoffFactor.String(),
		"jitter_factor":    d.JitterFactor,
		"status_forcelist": d.StatusForcelist,
		"timeout":          d.Timeout.String(),
	}
}

// Policy 返回对应的重试策略
func (c Config) Policy() xretry.Policy {
	return xretry.Policy{
		MaxRetries:      c.MaxRetries,
		BackoffFactor:   c.BackoffFactor,
		JitterFactor:    c.JitterFactor,
		StatusForcelist: slices.Clone(c.StatusForcelist),
		Timeout:         c.Timeout,
	}
}

// Validate 校验配置，timeout 必须大于 0
func (c Config) Validate() error {
	if err := xretry.Validate(c.MaxRetries, c.BackoffFactor, c.JitterFactor, c.Timeout); err != nil {
		return err
	}
	if c.Breaker != nil {
		if err := c.Breaker.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Options 转换为请求选项，不包含熔断器（见 [ConfigWatcher.Options]）
func (c Config) Options() []Option {
	opts := []Option{WithPolicy(c.Policy())}
	if len(c.Headers) > 0 {
		opts = append(opts, WithHeaders(maps.Clone(c.Headers)))
	}
	return opts
}

// BreakerGroup 按 Breaker 配置创建熔断器组，未配置时返回 nil
func (c Config) BreakerGroup(logger xlog.Logger) *xbreaker.Group {
	if c.Breaker == nil {
		return nil
	}
	opts := append(c.Breaker.Options(), xbreaker.WithLogger(logger))
	return xbreaker.NewGroup(opts...)
}

// LoadConfig 从 YAML/JSON 文件加载配置，缺省字段使用 [DefaultConfig]。
// opts 可追加环境变量等来源，例如 xconf.WithEnv("XHTTP_")。
func LoadConfig(path string, opts ...xconf.Option) (Config, error) {
	cfg, err := xconf.New(path, withDefaults(opts)...)
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(cfg)
}

// ParseConfig 从字节数据解析配置
func ParseConfig(data []byte, format xconf.Format, opts ...xconf.Option) (Config, error) {
	cfg, err := xconf.NewFromBytes(data, format, withDefaults(opts)...)
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(cfg)
}

func withDefaults(opts []xconf.Option) []xconf.Option {
	return append([]xconf.Option{xconf.WithDefaults(defaultsMap())}, opts...)
}

func decodeConfig(cfg xconf.Config) (Config, error) {
	var c Config
	if err := cfg.Unmarshal("", &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// snapshot 一次成功加载的配置及其熔断器组
type snapshot struct {
	cfg   Config
	group *xbreaker.Group
}

// ConfigWatcher 监视配置文件，始终持有最近一次合法的配置。并发安全。
//
// 重载后熔断器组按新配置重建，旧熔断器的统计不会保留。
type ConfigWatcher struct {
	current atomic.Pointer[snapshot]
	watcher *xconf.Watcher
	logger  xlog.Logger
	path    string
}

// WatchConfig 加载配置并开始监视，初次加载失败时返回错误。
//
//	w, err := xhttp.WatchConfig("xhttp.yaml", logger)
//	if err != nil { return err }
//	defer w.Stop()
//	resp, err := xhttp.Get(ctx, url, w.Options()...)
func WatchConfig(path string, logger xlog.Logger, opts ...xconf.Option) (*ConfigWatcher, error) {
	if logger == nil {
		logger = xlog.Nop()
	}
	cfg, err := xconf.New(path, withDefaults(opts)...)
	if err != nil {
		return nil, err
	}
	c, err := decodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	cw := &ConfigWatcher{logger: logger, path: path}
	cw.store(c)

	w, err := xconf.Watch(cfg, cw.onChange)
	if err != nil {
		return nil, err
	}
	cw.watcher = w
	w.Start()
	return cw, nil
}

func (cw *ConfigWatcher) store(c Config) {
	cw.current.Store(&snapshot{cfg: c, group: c.BreakerGroup(cw.logger)})
}

func (cw *ConfigWatcher) onChange(cfg xconf.Config, err error) {
	ctx := context.Background()
	if err != nil {
		cw.logger.Warn(ctx, "config reload failed, keeping previous",
			slog.String("path", cw.path), xlog.Err(err))
		return
	}
	c, err := decodeConfig(cfg)
	if err != nil {
		cw.logger.Warn(ctx, "invalid config, keeping previous",
			slog.String("path", cw.path), xlog.Err(err))
		return
	}
	cw.store(c)
	cw.logger.Info(ctx, "config reloaded",
		slog.String("path", cw.path),
		slog.Int("max_retries", c.MaxRetries),
		slog.Duration("timeout", c.Timeout))
}

// Current 返回当前配置
func (cw *ConfigWatcher) Current() Config {
	return cw.current.Load().cfg
}

// Options 返回当前配置对应的请求选项，包含熔断器组（若已配置）
func (cw *ConfigWatcher) Options() []Option {
	s := cw.current.Load()
	opts := s.cfg.Options()
	if s.group != nil {
		opts = append(opts, WithBreakerGroup(s.group))
	}
	return opts
}

// Stop 停止监视，可重复调用
func (cw *ConfigWatcher) Stop() error {
	if cw.watcher == nil {
		return nil
	}
	if err := cw.watcher.Stop(); err != nil {
		return fmt.Errorf("xhttp: stop config watcher: %w", err)
	}
	return nil
}
