package xhttp

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xhttpkit/pkg/config/xconf"
	"github.com/omeyang/xhttpkit/pkg/resilience/xbreaker"
	"github.com/omeyang/xhttpkit/pkg/resilience/xretry"
)

const sampleYAML = `
max_retries: 5
backoff_factor: 200ms
jitter_factor: 0.1
status_forcelist: [429, 503]
timeout: 5s
headers:
  X-Client: xhttpkit
breaker:
  consecutive_failures: 3
  open_timeout: 30s
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleYAML), xconf.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.BackoffFactor)
	assert.InDelta(t, 0.1, cfg.JitterFactor, 1e-9)
	assert.Equal(t, []int{429, 503}, cfg.StatusForcelist)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "xhttpkit", cfg.Headers["X-Client"])
	require.NotNil(t, cfg.Breaker)
	assert.Equal(t, uint32(3), cfg.Breaker.ConsecutiveFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"max_retries": 1}`), xconf.FormatJSON)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, def.BackoffFactor, cfg.BackoffFactor)
	assert.Equal(t, def.StatusForcelist, cfg.StatusForcelist)
	assert.Equal(t, def.Timeout, cfg.Timeout)
	assert.Nil(t, cfg.Breaker)
}

func TestParseConfig_Env(t *testing.T) {
	environ := func() []string {
		return []string{"XHTTP_MAX_RETRIES=9", "XHTTP_TIMEOUT=2s", "OTHER=1"}
	}
	cfg, err := ParseConfig([]byte(sampleYAML), xconf.FormatYAML,
		xconf.WithEnv("XHTTP_"), xconf.WithEnviron(environ))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"negative retries", "max_retries: -1"},
		{"zero timeout", "timeout: 0s"},
		{"negative jitter", "jitter_factor: -0.5"},
		{"breaker ratio", "breaker:\n  failure_ratio: 1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), xconf.FormatYAML)
			require.Error(t, err)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	var seen values
	srv := newTestServer(t, func(_ int, _ http.ResponseWriter, r *http.Request) {
		seen.Add(r.Header.Get("X-Client"))
	})
	cfg, err := ParseConfig([]byte(sampleYAML), xconf.FormatYAML)
	require.NoError(t, err)

	_, err = Get(context.Background(), srv.URL, cfg.Options()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"xhttpkit"}, seen.All())

	p := cfg.Policy()
	assert.Equal(t, 5, p.MaxRetries)
	assert.NoError(t, p.Validate())
}

func TestConfig_BreakerGroup(t *testing.T) {
	assert.Nil(t, DefaultConfig().BreakerGroup(nil))

	cfg, err := ParseConfig([]byte(sampleYAML), xconf.FormatYAML)
	require.NoError(t, err)
	g := cfg.BreakerGroup(nil)
	require.NotNil(t, g)
	b := g.Get("api")
	p, ok := b.TripPolicy().(*xbreaker.ConsecutiveFailuresPolicy)
	require.True(t, ok)
	assert.Equal(t, uint32(3), p.Threshold())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xhttp.yaml")
	writeFile(t, path, sampleYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxRetries)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, xconf.ErrLoadFailed)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "xhttp.toml"))
	require.ErrorIs(t, err, xconf.ErrUnsupportedFormat)
}

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xhttp.yaml")
	writeFile(t, path, "max_retries: 1\n")

	w, err := WatchConfig(path, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Equal(t, 1, w.Current().MaxRetries)
	assert.Len(t, w.Options(), 1)

	writeFile(t, path, sampleYAML)
	require.Eventually(t, func() bool {
		return w.Current().MaxRetries == 5
	}, 5*time.Second, 20*time.Millisecond)
	// headers + breaker group
	assert.Len(t, w.Options(), 3)

	// 非法配置不替换当前值
	writeFile(t, path, "max_retries: -3\n")
	time.Sleep(3 * xconf.DefaultDebounce)
	assert.Equal(t, 5, w.Current().MaxRetries)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatchConfig_InvalidInitial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xhttp.yaml")
	writeFile(t, path, "timeout: -1s\n")

	_, err := WatchConfig(path, nil)
	require.ErrorIs(t, err, xretry.ErrInvalidConfig)
}
