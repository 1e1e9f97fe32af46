package etcd_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/etcd"
	"github.com/gocrud/ioc/logging"
)

// registryService 依赖 etcd 客户端的服务
type registryService struct {
	Master *clientv3.Client `di:"etcd:master"`
	Slave  *clientv3.Client `di:"etcd:slave,?"`
}

func newRuntime(t *testing.T) *core.Runtime {
	t.Helper()
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(core.WithLogging(func(b *logging.LoggingBuilder) {
		b.AddConsole(logging.ConsoleLoggerOptions{Output: &bytes.Buffer{}})
	})))
	return rt
}

func offline(o *etcd.ClientOptions) {
	o.Ping = false
	o.Lazy = true
}

func TestEtcdClients(t *testing.T) {
	rt := newRuntime(t)
	require.NoError(t, rt.Apply(etcd.New(
		etcd.WithClient("master", offline),
		etcd.WithClient("default", offline, func(o *etcd.ClientOptions) {
			o.Endpoints = []string{"127.0.0.1:23790"}
		}),
	)))

	ctor := di.Struct[registryService]()
	require.NoError(t, di.Service(rt.Container, ctor))
	require.NoError(t, di.InjectTagged(rt.Container, ctor))
	svc, err := di.ResolveType[*registryService](rt.Container)
	require.NoError(t, err)
	require.NotNil(t, svc.Master)
	assert.Nil(t, svc.Slave)
	assert.Equal(t, []string{"localhost:2379"}, svc.Master.Endpoints())

	def, err := di.ResolveType[*clientv3.Client](rt.Container)
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:23790"}, def.Endpoints())

	all, err := di.ResolveMany[*clientv3.Client](rt.Container, etcd.ClientsToken)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, rt.Registry.Close())
	assert.Error(t, svc.Master.Ctx().Err())
}

func TestBuilderErrors(t *testing.T) {
	_, err := etcd.NewBuilder().
		AddClient("a", func(o *etcd.ClientOptions) { o.Endpoints = nil }).
		AddClient("b", func(o *etcd.ClientOptions) { o.DialTimeout = 0 }).
		AddClient("c", nil).
		AddClient("c", nil).
		Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints are required")
	assert.Contains(t, err.Error(), "dial timeout must be positive")
	assert.Contains(t, err.Error(), `client "c" already configured`)
}

func TestFromConfig(t *testing.T) {
	rt := newRuntime(t)
	require.NoError(t, rt.Apply(
		config.New(config.WithInMemory(map[string]any{
			"etcd": map[string]any{
				"discovery": map[string]any{
					"endpoints":   []any{"10.0.0.1:2379", "10.0.0.2:2379"},
					"dialTimeout": "3s",
					"ping":        false,
					"lazy":        true,
				},
			},
		})),
		etcd.New(etcd.FromConfig("etcd")),
	))

	client, err := di.Resolve[*clientv3.Client](rt.Container, etcd.ClientID("discovery"))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:2379", "10.0.0.2:2379"}, client.Endpoints())
	require.NoError(t, rt.Registry.Close())
}
