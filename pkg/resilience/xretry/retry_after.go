package xretry

import (
	"math"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// HeaderRetryAfter 服务端建议的重试等待时间
const HeaderRetryAfter = "Retry-After"

// MaxDelay 可表示的最大等待时间
const MaxDelay = time.Duration(math.MaxInt64)

// ParseRetryAfter 解析 Retry-After 头，返回等待时间。
// 等价于 ParseRetryAfterAt(value, time.Now())。
func ParseRetryAfter(value string) (time.Duration, bool) {
	return ParseRetryAfterAt(value, time.Now())
}

// ParseRetryAfterAt 以 now 为当前时间解析 Retry-After 头。
//
// 支持两种格式：
//   - 秒数：整数、小数或科学计数法（"120", "1.5", "1e2"），负数原样返回
//   - HTTP-date：RFC 1123 / RFC 850 / ANSI C / RFC 5322，
//     返回 max(0, date-now)，过去的时间不会得到负值
//
// 空值、纯空白或无法解析时返回 false，表示没有服务端提示。
func ParseRetryAfterAt(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, false
		}
		return secondsToDuration(secs), true
	}

	date, ok := parseHTTPDate(value)
	if !ok {
		return 0, false
	}
	delta := date.Sub(now)
	if delta < 0 {
		delta = 0
	}
	return delta, true
}

func parseHTTPDate(value string) (time.Time, bool) {
	if t, err := http.ParseTime(value); err == nil {
		return t, true
	}
	if t, err := mail.ParseDate(value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// secondsToDuration 将秒数转换为 time.Duration，超出范围时截断
func secondsToDuration(secs float64) time.Duration {
	ns := secs * float64(time.Second)
	switch {
	case ns >= float64(math.MaxInt64):
		return MaxDelay
	case ns <= float64(math.MinInt64):
		return time.Duration(math.MinInt64)
	default:
		return time.Duration(ns)
	}
}
