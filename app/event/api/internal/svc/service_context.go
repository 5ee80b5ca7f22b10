package svc

import (
	"fmt"
	"time"

	"event-platform/app/event/api/internal/archive"
	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/config"
	"event-platform/app/event/api/internal/jobs"
	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/model"
	"event-platform/common/coldstore"
	"event-platform/common/constants"
	"event-platform/common/delayqueue"
	"event-platform/common/messaging"

	"github.com/zeromicro/go-zero/core/limit"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServiceContext struct {
	Config config.Config

	// 数据存储
	DB    *gorm.DB
	Store model.Store
	Redis *redis.Redis

	// 通知推送（未连上 Redis Streams 时为 nil，只落库不推送）
	Messaging *messaging.Client
	Notifier  *notify.Notifier

	// 定时任务
	Queue  *delayqueue.Queue
	Jobs   *jobs.Engine
	Worker *jobs.Worker

	Capacity *capacity.Manager
	Archiver *archive.Archiver

	// 报名限流（未启用时为 nil）
	JoinLimiter *limit.TokenLimiter

	Now func() time.Time
}

func NewServiceContext(c config.Config) *ServiceContext {
	// 1. 数据库
	db := initDB(c.MySQL)
	store := model.NewGormStore(db)

	// 2. 业务 Redis（延迟队列、分布式锁、限流）
	rds := initRedis(c.BizRedis)

	// 3. 通知推送
	msgClient, err := messaging.NewClient(c.Messaging)
	if err != nil {
		// 推送是尽力而为，连接失败不阻止启动
		logx.Errorf("初始化消息客户端失败，通知只落库不推送: %v", err)
		msgClient = nil
	}
	var pub notify.Publisher
	if msgClient != nil {
		pub = msgClient
	}
	notifier := notify.NewNotifier(store, pub)

	// 4. 定时任务
	queue := delayqueue.NewQueue(rds, c.Jobs.Queue)
	worker := jobs.NewWorker(store, notifier)
	queue.OnExecute(worker.Execute)

	// 5. 报名限流
	var joinLimiter *limit.TokenLimiter
	if c.JoinLimit.Enabled {
		joinLimiter = limit.NewTokenLimiter(c.JoinLimit.Rate, c.JoinLimit.Burst, rds, constants.JoinLimitPrefix)
	}

	return &ServiceContext{
		Config:      c,
		DB:          db,
		Store:       store,
		Redis:       rds,
		Messaging:   msgClient,
		Notifier:    notifier,
		Queue:       queue,
		Jobs:        jobs.NewEngine(queue, c.Jobs.FeedbackDelay),
		Worker:      worker,
		Capacity:    capacity.NewManager(),
		Archiver:    archive.NewArchiver(store, coldstore.NewStorage(c.ColdStorage), c.Archive.PageSize),
		JoinLimiter: joinLimiter,
		Now:         time.Now,
	}
}

// Close 释放资源
func (s *ServiceContext) Close() {
	if s.Messaging != nil {
		if err := s.Messaging.Close(); err != nil {
			logx.Errorf("关闭消息客户端失败: %v", err)
		}
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// initDB 初始化数据库连接
func initDB(c config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(buildMySQLDSN(c)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		logx.Errorf("连接数据库失败: %v", err)
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetime) * time.Second)

	if c.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			panic(err)
		}
	}

	logx.Info("数据库连接成功")
	return db
}

// initRedis 初始化 Redis 连接
func initRedis(c redis.RedisConf) *redis.Redis {
	rds := redis.MustNewRedis(c)
	logx.Info("Redis 连接成功")
	return rds
}

func buildMySQLDSN(c config.MySQLConfig) string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}
