// Package xconf 加载 xhttpkit 的配置，基于 koanf。
//
// 配置来源按优先级从低到高叠加：
//
//  1. WithDefaults 提供的默认值（confmap）
//  2. 配置文件或字节数据（YAML / JSON，rawbytes）
//  3. WithEnv 指定前缀的环境变量（env/v2）
//
// 环境变量名去掉前缀后转为小写，"__" 表示层级：
//
//	XHTTP_MAX_RETRIES=5              -> max_retries
//	XHTTP_BREAKER__FAILURE_RATIO=0.5 -> breaker.failure_ratio
//
// Unmarshal 允许弱类型转换，时间字段可写成 "300ms"、"10s"。
//
// # 热重载
//
// Watch 基于 fsnotify 监视配置文件所在目录（兼容编辑器的原子写入），
// 内置防抖。Reload 在解析成功后才替换内部实例，失败时保留旧配置。
// 从字节数据创建的 Config 不支持 Reload / Watch。
package xconf
