package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/trace"
)

// Client Watermill 消息客户端
type Client struct {
	Publisher   message.Publisher
	config      Config
	redisClient *redis.Client
}

// NewClient 创建基于 Redis Streams 的消息客户端
func NewClient(config Config) (*Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	// 测试 Redis 连接
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		newWatermillLogger(config.ServiceName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	return &Client{
		Publisher:   publisher,
		config:      config,
		redisClient: redisClient,
	}, nil
}

// NewClientWithPublisher 使用已有的 Publisher 创建客户端（测试中可传入 gochannel）
func NewClientWithPublisher(publisher message.Publisher, config Config) *Client {
	return &Client{
		Publisher: publisher,
		config:    config,
	}
}

// Logger 返回 logx 适配的 Watermill 日志
func (c *Client) Logger() watermill.LoggerAdapter {
	return newWatermillLogger(c.config.ServiceName)
}

// Close 关闭客户端
func (c *Client) Close() error {
	if err := c.Publisher.Close(); err != nil {
		return fmt.Errorf("failed to close publisher: %w", err)
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	return nil
}

// Publish 发布消息（便捷方法）
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("source_service", c.config.ServiceName)
	if traceID := trace.TraceIDFromContext(ctx); traceID != "" {
		msg.Metadata.Set("trace_id", traceID)
	}
	msg.SetContext(ctx)

	start := time.Now()
	err := c.Publisher.Publish(topic, msg)
	if c.config.EnableMetrics {
		status := "success"
		if err != nil {
			status = "error"
		}
		publishTotal.WithLabelValues(status).Inc()
		publishDuration.Observe(time.Since(start).Seconds())
	}
	return err
}
