package messaging

// Config 消息中间件配置
type Config struct {
	// Redis 连接配置（Redis Streams 作为消息通道）
	Redis RedisConfig

	// ServiceName 服务名称，写入消息 Metadata
	ServiceName string `json:",default=event-api"`

	// EnableMetrics 是否记录 Prometheus 发布指标
	EnableMetrics bool `json:",default=true"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string `json:",default=localhost:6379"`
	Password string `json:",optional"`
	DB       int    `json:",optional"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		ServiceName:   "event-api",
		EnableMetrics: true,
	}
}
