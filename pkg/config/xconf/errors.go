package xconf

import "errors"

// 配置加载和解析相关错误。
var (
	ErrEmptyPath         = errors.New("xconf: empty config path")
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	ErrLoadFailed        = errors.New("xconf: failed to load config")
	ErrParseFailed       = errors.New("xconf: failed to parse config")
	ErrUnmarshalFailed   = errors.New("xconf: failed to unmarshal config")

	// ErrNotReloadable 从字节数据创建的配置不支持重载和监视
	ErrNotReloadable = errors.New("xconf: config created from bytes cannot be reloaded")
)
