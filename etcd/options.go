package etcd

import (
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// ClientOptions etcd 客户端配置选项
type ClientOptions struct {
	Name               string        `json:"name"`               // 客户端名称
	Endpoints          []string      `json:"endpoints"`          // etcd 服务器地址列表
	DialTimeout        time.Duration `json:"dialTimeout"`        // 连接超时时间
	Username           string        `json:"username"`           // 用户名（可选）
	Password           string        `json:"password"`           // 密码（可选）
	AutoSyncInterval   time.Duration `json:"autoSyncInterval"`   // 自动同步间隔（可选）
	MaxCallSendMsgSize int           `json:"maxCallSendMsgSize"` // 最大发送消息大小（可选）
	MaxCallRecvMsgSize int           `json:"maxCallRecvMsgSize"` // 最大接收消息大小（可选）
	Ping               bool          `json:"ping"`               // 创建后查询第一个节点的状态
	Lazy               bool          `json:"lazy"`               // 首次解析时才创建客户端
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:        name,
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
		Ping:        true,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return errors.New("etcd: client name is required")
	}
	if len(o.Endpoints) == 0 {
		return errors.New("etcd: endpoints are required")
	}
	if o.DialTimeout <= 0 {
		return errors.New("etcd: dial timeout must be positive")
	}
	return nil
}

func (o *ClientOptions) config() clientv3.Config {
	cfg := clientv3.Config{
		Endpoints:          o.Endpoints,
		DialTimeout:        o.DialTimeout,
		AutoSyncInterval:   o.AutoSyncInterval,
		MaxCallSendMsgSize: o.MaxCallSendMsgSize,
		MaxCallRecvMsgSize: o.MaxCallRecvMsgSize,
	}
	if o.Username != "" {
		cfg.Username = o.Username
		cfg.Password = o.Password
	}
	return cfg
}
