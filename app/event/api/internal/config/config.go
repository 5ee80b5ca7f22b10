package config

import (
	"time"

	"event-platform/app/event/api/internal/cron"
	"event-platform/common/coldstore"
	"event-platform/common/delayqueue"
	"event-platform/common/messaging"

	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/rest"
)

type Config struct {
	rest.RestConf

	// JWT 认证配置
	Auth struct {
		AccessSecret string
		AccessExpire int64
	}

	// 数据存储
	MySQL    MySQLConfig
	BizRedis redis.RedisConf // 延迟队列、分布式锁、限流共用

	// 通知推送（Redis Streams）
	Messaging messaging.Config

	// 定时任务
	Jobs JobsConfig

	// 定时扫描（定时发布、审计归档）
	Cron cron.Config

	// 审计归档
	Archive     ArchiveConfig
	ColdStorage coldstore.Config

	// 报名限流
	JoinLimit JoinLimitConfig
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	Host            string `json:",default=127.0.0.1"`
	Port            int    `json:",default=3306"`
	Username        string
	Password        string
	Database        string
	MaxOpenConns    int  `json:",default=100"`  // 最大打开连接数
	MaxIdleConns    int  `json:",default=10"`   // 最大空闲连接数
	ConnMaxLifetime int  `json:",default=3600"` // 连接生命周期（秒）
	AutoMigrate     bool `json:",default=false"`
}

// JobsConfig 提醒/反馈任务配置
type JobsConfig struct {
	Queue delayqueue.Config
	// FeedbackDelay 活动结束后多久发送反馈邀请
	FeedbackDelay time.Duration `json:",default=1h"`
}

// ArchiveConfig 审计归档配置
type ArchiveConfig struct {
	PageSize int `json:",default=500"`
}

// JoinLimitConfig 报名接口令牌桶限流
type JoinLimitConfig struct {
	Enabled bool `json:",default=true"`
	Rate    int  `json:",default=100"` // 每秒允许的请求数
	Burst   int  `json:",default=200"` // 突发容量
}
