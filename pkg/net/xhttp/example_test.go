package xhttp_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/omeyang/xhttpkit/pkg/net/xhttp"
	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

func ExampleGet() {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	}))
	defer srv.Close()

	resp, err := xhttp.Get(context.Background(), srv.URL,
		xhttp.WithMaxRetries(2),
		xhttp.WithBackoffFactor(time.Millisecond))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(resp.StatusCode(), resp.String(), hits.Load())
	// Output: 200 ready 2
}

func ExampleRequest_invalidConfig() {
	_, err := xhttp.Request(context.Background(), http.MethodGet, "http://127.0.0.1:1",
		xhttp.WithTimeout(0))
	fmt.Println(err)
	// Output: xretry: invalid config: timeout must be > 0, got 0s
}

func ExampleNewClient() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	c := xhttp.NewClient(
		xhttp.WithClientTimeout(5*time.Second),
		xhttp.WithClientHeaders(map[string]string{"User-Agent": "inventory-sync/1.0"}),
	)
	defer func() { _ = c.Close() }()

	resp, err := c.Get(context.Background(), srv.URL, xhttp.WithPolicy(xretry.DefaultPolicy()))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(resp.String())
	// Output: inventory-sync/1.0
}
