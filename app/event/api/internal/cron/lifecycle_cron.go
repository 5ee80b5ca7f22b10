package cron

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"event-platform/app/event/api/internal/archive"
	"event-platform/app/event/model"
	"event-platform/common/constants"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"golang.org/x/sync/errgroup"
)

const (
	sweepPublish = "publish_due"
	sweepArchive = "archive_audit"

	defaultInterval    = time.Minute
	defaultBatchSize   = 100
	defaultConcurrency = 4
	defaultArchiveDays = 30
)

// PublishFunc 发布一个到期的定时活动（与手动发布走同一套逻辑）
type PublishFunc func(ctx context.Context, eventID int64) error

// Config 定时扫描配置
type Config struct {
	Interval time.Duration `json:",default=1m"`
	// ArchiveAfterDays 取消或结束多少天后归档审计日志
	ArchiveAfterDays int `json:",default=30"`
	// Concurrency 归档并发数
	Concurrency int `json:",default=4"`
	BatchSize   int `json:",default=100"`
}

// Report 一轮扫描结果
type Report struct {
	Published int
	Archived  int
	Failed    int
}

// LifecycleCron 活动生命周期定时扫描
//
// 功能说明：
//   - 发布到期的定时活动（publishAt <= now）
//   - 归档已取消/已结束活动的审计日志
//
// 每个扫描使用独立的 Redis 分布式锁，多实例部署时只有一个实例执行
type LifecycleCron struct {
	rds      *redis.Redis
	store    model.Store
	publish  PublishFunc
	archiver *archive.Archiver
	config   Config
	now      func() time.Time

	stopChan chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
}

// NewLifecycleCron 创建定时扫描
func NewLifecycleCron(rds *redis.Redis, store model.Store, publish PublishFunc, archiver *archive.Archiver, config Config) *LifecycleCron {
	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}
	if config.ArchiveAfterDays <= 0 {
		config.ArchiveAfterDays = defaultArchiveDays
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	return &LifecycleCron{
		rds:      rds,
		store:    store,
		publish:  publish,
		archiver: archiver,
		config:   config,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// WithClock 替换时钟（测试用）
func (c *LifecycleCron) WithClock(now func() time.Time) *LifecycleCron {
	c.now = now
	return c
}

// Start 启动定时扫描（重复调用无效）
func (c *LifecycleCron) Start() {
	if !c.running.CompareAndSwap(false, true) {
		logx.Info("[LifecycleCron] 定时任务已在运行中，跳过重复启动")
		return
	}
	logx.Infof("[LifecycleCron] 启动，执行间隔: %s", c.config.Interval)

	go func() {
		c.RunOnce(context.Background())

		ticker := time.NewTicker(c.config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.RunOnce(context.Background())
			case <-c.stopChan:
				logx.Info("[LifecycleCron] 定时任务已停止")
				return
			}
		}
	}()
}

// Stop 停止定时扫描
func (c *LifecycleCron) Stop() {
	if !c.running.Load() {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.running.Store(false)
}

// RunOnce 执行一轮扫描（也供运维手动触发）
func (c *LifecycleCron) RunOnce(ctx context.Context) Report {
	var report Report
	now := c.now()

	c.withLock(ctx, sweepPublish, func(ctx context.Context) {
		published, failed := c.publishDue(ctx, now)
		report.Published += published
		report.Failed += failed
	})
	c.withLock(ctx, sweepArchive, func(ctx context.Context) {
		archived, failed := c.archiveSweep(ctx, now)
		report.Archived += archived
		report.Failed += failed
	})
	return report
}

func (c *LifecycleCron) withLock(ctx context.Context, sweep string, fn func(ctx context.Context)) {
	lock := NewRedisLock(c.rds, constants.GetCronLockKey(sweep), constants.LockExpireSweep)
	locked, err := lock.TryLock(ctx)
	if err != nil {
		logx.WithContext(ctx).Errorf("[LifecycleCron] 获取锁失败: sweep=%s, err=%v", sweep, err)
		return
	}
	if !locked {
		// 其他实例正在执行
		return
	}
	defer func() {
		if err := lock.Unlock(ctx); err != nil {
			logx.WithContext(ctx).Errorf("[LifecycleCron] 释放锁失败: sweep=%s, err=%v", sweep, err)
		}
	}()
	fn(ctx)
}

// publishDue 发布到期的定时活动，单个失败不影响其他
func (c *LifecycleCron) publishDue(ctx context.Context, now time.Time) (int, int) {
	due, err := c.store.Events().ListDueScheduled(ctx, now.Unix(), c.config.BatchSize)
	if err != nil {
		logx.WithContext(ctx).Errorf("[LifecycleCron] 查询到期定时活动失败: %v", err)
		return 0, 1
	}

	published, failed := 0, 0
	for _, e := range due {
		if err := c.publish(ctx, e.ID); err != nil {
			failed++
			logx.WithContext(ctx).Errorf("[LifecycleCron] 定时发布失败: event=%d, err=%v", e.ID, err)
			continue
		}
		published++
	}
	if published > 0 {
		logx.WithContext(ctx).Infof("[LifecycleCron] 定时发布完成: %d 个", published)
	}
	return published, failed
}

// archiveSweep 并发归档审计日志，归档失败的活动下一轮重试
func (c *LifecycleCron) archiveSweep(ctx context.Context, now time.Time) (int, int) {
	before := now.AddDate(0, 0, -c.config.ArchiveAfterDays).Unix()
	events, err := c.store.Events().ListArchivable(ctx, before, c.config.BatchSize)
	if err != nil {
		logx.WithContext(ctx).Errorf("[LifecycleCron] 查询待归档活动失败: %v", err)
		return 0, 1
	}

	var archived, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for _, e := range events {
		eventID := e.ID
		g.Go(func() error {
			res, err := c.archiver.Archive(gctx, eventID)
			if err != nil {
				failed.Add(1)
				logx.WithContext(gctx).Errorf("[LifecycleCron] 归档失败: event=%d, err=%v", eventID, err)
				return nil
			}
			if res.Marked {
				archived.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(archived.Load()), int(failed.Load())
}
