package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

type timeouts struct {
	Read  time.Duration `json:"read"`
	Write time.Duration `json:"write"`
	Idle  time.Duration `json:"idle"`
}

func newRuntime(t *testing.T, out *bytes.Buffer) *core.Runtime {
	t.Helper()
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(core.WithLogging(func(b *logging.LoggingBuilder) {
		b.AddConsole(logging.ConsoleLoggerOptions{Output: out})
	})))
	t.Cleanup(func() { _ = rt.Registry.Close() })
	return rt
}

func TestDurationCodec(t *testing.T) {
	var got timeouts
	require.NoError(t, json.Unmarshal([]byte(`{"read":"1.5s","write":2000000,"idle":null}`), &got))
	assert.Equal(t, 1500*time.Millisecond, got.Read)
	assert.Equal(t, 2*time.Millisecond, got.Write)
	assert.Zero(t, got.Idle)

	assert.Error(t, json.Unmarshal([]byte(`{"read":"soon"}`), &got))
	assert.Error(t, json.Unmarshal([]byte(`{"read":true}`), &got))
}

func TestNewRegistersConfiguration(t *testing.T) {
	t.Setenv("IOCTEST_SERVER_PORT", "9090")
	rt := newRuntime(t, &bytes.Buffer{})
	assert.Nil(t, FromRuntime(rt))

	require.NoError(t, rt.Apply(New(
		WithInMemory(map[string]any{"server": map[string]any{"host": "localhost", "port": 8080}}),
		WithEnv("IOCTEST_"),
	)))

	cfg := FromRuntime(rt)
	require.NotNil(t, cfg)
	assert.Equal(t, "9090", cfg.Get("server:port"))

	resolved, err := di.ResolveType[Configuration](rt.Container)
	require.NoError(t, err)
	assert.Equal(t, "localhost", resolved.Get("server:host"))

	reloadable, err := di.ResolveType[*ReloadableConfiguration](rt.Container)
	require.NoError(t, err)
	assert.Same(t, cfg, reloadable)
}

func TestBindSection(t *testing.T) {
	rt := newRuntime(t, &bytes.Buffer{})
	assert.ErrorContains(t, rt.Apply(Bind[timeouts]("http")), "requires config.New")

	require.NoError(t, rt.Apply(
		New(WithInMemory(map[string]any{"http": map[string]any{"read": "3s", "write": "1m"}})),
		Bind[timeouts]("http"),
	))

	got, err := di.ResolveType[timeouts](rt.Container)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, got.Read)
	assert.Equal(t, time.Minute, got.Write)

	monitor, err := di.ResolveType[OptionMonitor[timeouts]](rt.Container)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, monitor.Value().Read)
}

func TestSettingsAdjustLogLevel(t *testing.T) {
	var out bytes.Buffer
	rt := newRuntime(t, &out)
	rt.Logger.Debug("hidden message")
	assert.NotContains(t, out.String(), "hidden message")

	require.NoError(t, rt.Apply(New(WithInMemory(map[string]any{
		SettingsSection: map[string]any{"logLevel": "debug"},
	}))))
	rt.Logger.Debug("visible message")
	assert.Contains(t, out.String(), "visible message")

	rt2 := newRuntime(t, &bytes.Buffer{})
	err := rt2.Apply(New(WithInMemory(map[string]any{
		SettingsSection: map[string]any{"logLevel": "loud"},
	})))
	assert.ErrorContains(t, err, "config: ioc settings")
}
