package xretry_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

func ExampleExecute() {
	codes := []int{503, 503, 200}
	var n int
	attempt := func(_ context.Context, _ string) (*xretry.HeaderResponse, error) {
		code := codes[n]
		n++
		return xretry.NewHeaderResponse(code), nil
	}

	var waits []time.Duration
	sleeper := xretry.SleeperFunc(func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})

	resp, err := xretry.Execute(context.Background(), "http://example.com", "GET", attempt,
		xretry.DefaultPolicy(), xretry.WithSleeper(sleeper))
	fmt.Println(resp.StatusCode(), err, waits)
	// Output: 200 <nil> [300ms 600ms]
}

func ExampleExecute_nonRetryable() {
	attempt := func(_ context.Context, _ string) (*xretry.HeaderResponse, error) {
		return xretry.NewHeaderResponse(404), nil
	}
	_, err := xretry.Execute(context.Background(), "http://example.com/missing", "GET", attempt, xretry.DefaultPolicy())

	var re *xretry.RequestError
	if errors.As(err, &re) {
		fmt.Println(re.Error())
		fmt.Println(re.StatusCode, re.Kind)
	}
	// Output:
	// GET request to http://example.com/missing failed with status 404
	// 404 status
}

func ExampleParseRetryAfter() {
	d, ok := xretry.ParseRetryAfter("120")
	fmt.Println(d, ok)
	_, ok = xretry.ParseRetryAfter("soon")
	fmt.Println(ok)
	// Output:
	// 2m0s true
	// false
}

func ExampleValidate() {
	err := xretry.Validate(-1, 300*time.Millisecond, 0)
	fmt.Println(errors.Is(err, xretry.ErrInvalidConfig))
	fmt.Println(err)
	// Output:
	// true
	// xretry: invalid config: max_retries must be >= 0, got -1
}
