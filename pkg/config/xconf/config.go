package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式
type Format string

// 支持的配置格式
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口
//
// 只提供增值功能，基础读取直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回当前 koanf 实例。Reload 后旧实例仍可用，但内容是旧的。
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空表示全部
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件，解析失败时保留旧配置
	Reload() error

	// Path 返回配置文件路径，字节数据创建的配置返回空
	Path() string

	// Format 返回配置格式
	Format() Format
}

type koanfConfig struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string
	format Format
	opts   *Options

	// reloadMu 串行化 Reload，避免并发重载导致配置回退
	reloadMu sync.Mutex
}

// New 从文件创建配置，格式由扩展名决定（.yaml/.yml/.json）
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	options := applyOptions(opts)
	k, err := build(data, format, options)
	if err != nil {
		return nil, err
	}
	return &koanfConfig{k: k, path: path, format: format, opts: options}, nil
}

// NewFromBytes 从字节数据创建配置，data 为空时只包含默认值和环境变量
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !isValidFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	options := applyOptions(opts)
	k, err := build(data, format, options)
	if err != nil {
		return nil, err
	}
	return &koanfConfig{k: k, format: format, opts: options}, nil
}

func (c *koanfConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	k := c.Client()
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := build(data, c.format, c.opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

func (c *koanfConfig) Path() string {
	return c.path
}

func (c *koanfConfig) Format() Format {
	return c.format
}

// MustUnmarshal 与 Unmarshal 相同，失败时 panic，用于启动阶段
func MustUnmarshal(cfg Config, path string, target any) {
	if err := cfg.Unmarshal(path, target); err != nil {
		panic(err)
	}
}

// DetectFormat 根据扩展名判断格式
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func applyOptions(opts []Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// build 按 默认值 -> 数据 -> 环境变量 的顺序构建 koanf 实例
func build(data []byte, format Format, o *Options) (*koanf.Koanf, error) {
	k := koanf.New(o.Delim)

	if len(o.Defaults) > 0 {
		if err := k.Load(confmap.Provider(o.Defaults, o.Delim), nil); err != nil {
			return nil, fmt.Errorf("%w: defaults: %w", ErrLoadFailed, err)
		}
	}

	if len(data) > 0 {
		var parser koanf.Parser
		switch format {
		case FormatYAML:
			parser = yaml.Parser()
		case FormatJSON:
			parser = json.Parser()
		default:
			return nil, ErrUnsupportedFormat
		}
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	if o.EnvPrefix != "" {
		provider := env.Provider(o.Delim, env.Opt{
			Prefix:        o.EnvPrefix,
			TransformFunc: envKeyTransform(o.EnvPrefix, o.Delim),
			EnvironFunc:   o.Environ,
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("%w: env: %w", ErrLoadFailed, err)
		}
	}
	return k, nil
}

// envKeyTransform XHTTP_BREAKER__FAILURE_RATIO -> breaker.failure_ratio
func envKeyTransform(prefix, delim string) func(k, v string) (string, any) {
	return func(k, v string) (string, any) {
		key := strings.ToLower(strings.TrimPrefix(k, prefix))
		key = strings.ReplaceAll(key, "__", delim)
		if key == "" {
			return "", nil
		}
		return key, v
	}
}
