package xconf

import "maps"

// Options 配置加载选项
type Options struct {
	// Delim 键分隔符，默认 "."
	Delim string

	// Tag 结构体标签名，默认 "koanf"
	Tag string

	// Defaults 默认值，键为以 Delim 分隔的路径
	Defaults map[string]any

	// EnvPrefix 非空时加载该前缀的环境变量
	EnvPrefix string

	// Environ 环境变量来源，默认 os.Environ
	Environ func() []string
}

// Option 配置选项函数
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

// WithDelim 设置键分隔符
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签名
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithDefaults 设置默认值，优先级最低
//
//	xconf.WithDefaults(map[string]any{"max_retries": 3, "timeout": "10s"})
func WithDefaults(defaults map[string]any) Option {
	return func(o *Options) {
		o.Defaults = maps.Clone(defaults)
	}
}

// WithEnv 加载以 prefix 开头的环境变量，优先级最高
func WithEnv(prefix string) Option {
	return func(o *Options) {
		o.EnvPrefix = prefix
	}
}

// WithEnviron 替换环境变量来源，主要用于测试
func WithEnviron(fn func() []string) Option {
	return func(o *Options) {
		o.Environ = fn
	}
}
