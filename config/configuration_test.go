package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/di"
)

type serverOptions struct {
	Host string   `json:"host"`
	Port int      `json:"port"`
	Tags []string `json:"tags"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigurationGet(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{"host": "localhost", "port": 8080, "debug": true},
			"name":   "demo",
		}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Get("server:host"))
	assert.Equal(t, "localhost", cfg.Get("server.host"))
	assert.Equal(t, "8080", cfg.Get("server:port"))
	assert.Equal(t, "", cfg.Get("server:missing"))
	assert.Equal(t, "fallback", cfg.GetWithDefault("server:missing", "fallback"))

	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	debug, err := cfg.GetBool("server:debug")
	require.NoError(t, err)
	assert.True(t, debug)

	_, err = cfg.GetInt("server:missing")
	assert.Error(t, err)
	_, err = cfg.GetInt("name")
	assert.Error(t, err)

	assert.True(t, cfg.Exists("server"))
	assert.False(t, cfg.Exists("name:nested"))
}

func TestConfigurationSectionAndBind(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{"host": "localhost", "port": 8080, "tags": []any{"a", "b"}},
		}).
		Build()
	require.NoError(t, err)

	section := cfg.GetSection("server")
	assert.Equal(t, "localhost", section.Get("host"))
	assert.Empty(t, cfg.GetSection("missing").GetAll())

	var opts serverOptions
	require.NoError(t, cfg.Bind("server", &opts))
	assert.Equal(t, serverOptions{Host: "localhost", Port: 8080, Tags: []string{"a", "b"}}, opts)

	loaded, err := Load[serverOptions](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, opts, loaded)

	assert.Error(t, cfg.Bind("missing", &opts))

	all := cfg.GetAll()
	all["server"].(map[string]any)["host"] = "changed"
	assert.Equal(t, "localhost", cfg.Get("server:host"))
}

func TestConfigurationSourceOrder(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{"server":{"host":"json","port":1}}`)
	yamlPath := writeFile(t, dir, "app.yaml", "server:\n  port: 2\n")
	t.Setenv("IOCTEST_SERVER_HOST", "env")

	cfg, err := NewConfigurationBuilder().
		AddJsonFile(jsonPath).
		AddFile(yamlPath).
		AddEnvironmentVariables("IOCTEST_").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "env", cfg.Get("server:host"))
	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 2, port)
}

func TestConfigurationMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewConfigurationBuilder().AddYamlFile(missing, true).Build()
	assert.NoError(t, err)

	_, err = NewConfigurationBuilder().AddYamlFile(missing).Build()
	assert.Error(t, err)
}

func TestEnvironmentVariableSource(t *testing.T) {
	t.Setenv("IOCENV_DB_POOL_SIZE", "10")
	t.Setenv("IOCENV_DB_ENABLED", "true")
	t.Setenv("IOCENV_DB_DSN", "file::memory:")

	data, err := (&EnvironmentVariableSource{Prefix: "IOCENV_"}).Load()
	require.NoError(t, err)

	db := data["db"].(map[string]any)
	assert.Equal(t, 10, db["pool"].(map[string]any)["size"])
	assert.Equal(t, true, db["enabled"])
	assert.Equal(t, "file::memory:", db["dsn"])
}

func TestDecodeValue(t *testing.T) {
	assert.Equal(t, map[string]any{"a": float64(1)}, decodeValue([]byte(`{"a":1}`)))
	assert.Equal(t, map[string]any{"b": 2}, decodeValue([]byte("b: 2")))
	assert.Equal(t, "plain text", decodeValue([]byte("plain text")))
}

func TestReloadableConfiguration(t *testing.T) {
	src := &InMemorySource{Data: map[string]any{"server": map[string]any{"host": "a"}}}
	cfg, err := NewConfigurationBuilder().Add(src).BuildReloadable()
	require.NoError(t, err)

	var calls int
	cfg.OnReload(func() { calls++ })

	src.Data = map[string]any{"server": map[string]any{"host": "b"}}
	require.NoError(t, cfg.Reload())

	assert.Equal(t, "b", cfg.Get("server:host"))
	assert.Equal(t, 1, calls)
}

func TestOptionsCache(t *testing.T) {
	src := &InMemorySource{Data: map[string]any{"server": map[string]any{"host": "a", "tags": []any{"x"}}}}
	cfg, err := NewConfigurationBuilder().Add(src).BuildReloadable()
	require.NoError(t, err)

	cache := NewOptionsCache[serverOptions](cfg, "server")
	monitor := NewOptionMonitor(cache)
	static := NewOption(cache.Get())
	snapshot := cache.Snapshot()

	snapshot.Tags[0] = "mutated"
	assert.Equal(t, "x", cache.Get().Tags[0])

	src.Data = map[string]any{"server": map[string]any{"host": "b"}}
	require.NoError(t, cfg.Reload())

	assert.Equal(t, "b", monitor.Value().Host)
	assert.Equal(t, "a", static.Value().Host)
}

func TestOptionsCacheMissingSection(t *testing.T) {
	cfg, err := NewConfigurationBuilder().Build()
	require.NoError(t, err)

	cache := NewOptionsCache[serverOptions](cfg, "server")
	assert.Equal(t, serverOptions{}, cache.Get())
	assert.Error(t, cache.Err())
}

func TestProvide(t *testing.T) {
	src := &InMemorySource{Data: map[string]any{"server": map[string]any{"host": "a", "port": 1}}}
	cfg, err := NewConfigurationBuilder().Add(src).BuildReloadable()
	require.NoError(t, err)

	r := di.NewRegistry()
	c := r.Default()
	require.NoError(t, Provide[serverOptions](c, cfg, "server"))
	require.True(t, ResetOnReload(cfg, c))

	opts, err := di.ResolveType[serverOptions](c)
	require.NoError(t, err)
	assert.Equal(t, "a", opts.Host)

	monitor, err := di.ResolveType[OptionMonitor[serverOptions]](c)
	require.NoError(t, err)
	static, err := di.ResolveType[Option[serverOptions]](c)
	require.NoError(t, err)

	child, err := r.NewContainer("request")
	require.NoError(t, err)
	snap, err := di.ResolveType[OptionSnapshot[serverOptions]](child)
	require.NoError(t, err)

	src.Data = map[string]any{"server": map[string]any{"host": "b", "port": 2}}
	require.NoError(t, cfg.Reload())

	assert.Equal(t, "b", monitor.Value().Host)
	assert.Equal(t, "a", snap.Value().Host)

	opts, err = di.ResolveType[serverOptions](c)
	require.NoError(t, err)
	assert.Equal(t, "b", opts.Host)

	again, err := di.ResolveType[Option[serverOptions]](c)
	require.NoError(t, err)
	assert.NotSame(t, static, again)
	assert.Equal(t, "b", again.Value().Host)
}

func TestProvideRejectsInvalidSection(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{"server": "not an object"}).Build()
	require.NoError(t, err)

	err = Provide[serverOptions](di.NewRegistry().Default(), cfg, "server")
	assert.Error(t, err)
}

func TestResetOnReloadStaticConfiguration(t *testing.T) {
	cfg, err := NewConfigurationBuilder().Build()
	require.NoError(t, err)
	assert.False(t, ResetOnReload(cfg, di.NewRegistry().Default()))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yaml", "server:\n  host: a\n")

	cfg, err := NewConfigurationBuilder().AddYamlFile(path).BuildReloadable()
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		reloaded bool
	)
	cfg.OnReload(func() {
		mu.Lock()
		reloaded = true
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cfg.Watch(ctx, WatchOptions{Debounce: 20 * time.Millisecond}) }()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("server:\n  host: b\n"), 0o644)
		mu.Lock()
		defer mu.Unlock()
		return reloaded
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, "b", cfg.Get("server:host"))

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchWithoutFiles(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{}).BuildReloadable()
	require.NoError(t, err)
	assert.NoError(t, cfg.Watch(context.Background(), WatchOptions{}))
}

func BenchmarkConfigGet(b *testing.B) {
	cfg, _ := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{"host": "localhost", "port": 8080},
		}).
		BuildReloadable()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg.Get("server:host")
	}
}
