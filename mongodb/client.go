package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client 命名的 MongoDB 客户端，容器关闭时断开连接
type Client struct {
	*mongo.Client
	name     string
	database string
	timeout  time.Duration
}

// Name 返回客户端名称
func (c *Client) Name() string { return c.name }

// DB 返回配置的默认数据库，未配置时返回 nil
func (c *Client) DB() *mongo.Database {
	if c.database == "" {
		return nil
	}
	return c.Client.Database(c.database)
}

// Close 断开连接
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return errors.Wrapf(c.Client.Disconnect(ctx), "mongodb: disconnect %q", c.name)
}

// Connect 按配置创建客户端，Ping 为 true 时验证服务器可达
func Connect(ctx context.Context, o Options) (*Client, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	mc, err := mongo.Connect(o.clientOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "mongodb: connect %q", o.Name)
	}
	client := &Client{Client: mc, name: o.Name, database: o.Database, timeout: o.Timeout}
	if !o.Ping {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "mongodb: ping %q", o.Name)
	}
	return client, nil
}
