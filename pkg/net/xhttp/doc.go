// Package xhttp 在 go-resty 客户端之上提供带重试的 HTTP 请求。
//
// 每个请求由 [xretry.Execute] 驱动：单次尝试通过 resty 发出，
// 状态码和错误的分类、退避、最终错误都由 xretry 决定。
//
//	resp, err := xhttp.Get(ctx, "https://api.example.com/items",
//		xhttp.WithMaxRetries(5),
//		xhttp.WithJitterFactor(0.2),
//	)
//	var re *xretry.RequestError
//	if errors.As(err, &re) && re.HasStatus() { ... }
//
// # 客户端所有权
//
// 未通过 [WithClient] 提供客户端时，每次调用会创建一个客户端（超时取
// WithTimeout，默认 10s），并在任何返回路径上关闭它。调用方提供的客户端
// 不会被关闭。也可以直接使用 [Client] 的方法，效果等同于 WithClient。
//
// # 参数校验
//
// 重试参数在首次尝试之前校验，失败返回 [xretry.ErrInvalidConfig]，
// 不会发出任何请求。
//
// # 请求体
//
// 每次尝试都会重新构造请求。请求体应使用可重复读取的值（[]byte、string、
// 结构体），io.Reader 只能被第一次尝试读取。
package xhttp
