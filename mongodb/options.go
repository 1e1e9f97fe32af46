package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Options MongoDB 客户端配置选项
type Options struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
	// Database 默认数据库，非空时 default 客户端同时以 *mongo.Database 注册
	Database    string        `json:"database"`
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	MaxPoolSize uint64        `json:"maxPoolSize"`
	MinPoolSize uint64        `json:"minPoolSize"`
	Timeout     time.Duration `json:"timeout"`
	Ping        bool          `json:"ping"`
	Lazy        bool          `json:"lazy"`
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name, uri string) *Options {
	return &Options{
		Name:        name,
		URI:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
		Ping:        true,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return errors.New("mongodb: client name is required")
	}
	if o.URI == "" {
		return errors.New("mongodb: uri is required")
	}
	if o.Timeout <= 0 {
		return errors.New("mongodb: timeout must be positive")
	}
	if o.MinPoolSize > o.MaxPoolSize && o.MaxPoolSize > 0 {
		return errors.New("mongodb: min pool size exceeds max pool size")
	}
	return nil
}

func (o *Options) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(o.URI)
	if o.Username != "" || o.Password != "" {
		opts.SetAuth(options.Credential{Username: o.Username, Password: o.Password})
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	opts.SetConnectTimeout(o.Timeout)
	opts.SetServerSelectionTimeout(o.Timeout)
	return opts
}
