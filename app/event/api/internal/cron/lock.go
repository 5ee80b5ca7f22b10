package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/threading"
)

// ==================== 分布式锁 ====================
//
// 多实例部署时保证同一扫描只有一个实例执行：
//   - SETNX + TTL，value 为实例 token，只有持有者能释放和续期
//   - 持有期间看门狗每 TTL/3 续期一次

var (
	unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`)
)

// RedisLock Redis 分布式锁
type RedisLock struct {
	rds       *redis.Redis
	key       string
	token     string
	ttl       time.Duration
	stopRenew chan struct{}
	renewDone chan struct{}
}

// NewRedisLock 创建分布式锁
func NewRedisLock(rds *redis.Redis, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		rds:   rds,
		key:   key,
		token: uuid.NewString(),
		ttl:   ttl,
	}
}

// TryLock 尝试获取锁，成功后启动看门狗
func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	seconds := int(l.ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	ok, err := l.rds.SetnxExCtx(ctx, l.key, l.token, seconds)
	if err != nil {
		return false, fmt.Errorf("获取分布式锁失败: %w", err)
	}
	if ok {
		l.startWatchdog()
	}
	return ok, nil
}

// Unlock 释放锁（token 不匹配时不删除）
func (l *RedisLock) Unlock(ctx context.Context) error {
	l.stopWatchdog()

	result, err := l.rds.ScriptRunCtx(ctx, unlockScript, []string{l.key}, l.token)
	if err != nil {
		return fmt.Errorf("释放分布式锁失败: %w", err)
	}
	if fmt.Sprint(result) == "0" {
		logx.Infof("[RedisLock] 锁已过期或被其他实例持有: key=%s", l.key)
	}
	return nil
}

// Refresh 续期
func (l *RedisLock) Refresh(ctx context.Context) error {
	result, err := l.rds.ScriptRunCtx(ctx, refreshScript, []string{l.key}, l.token, l.ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("续期分布式锁失败: %w", err)
	}
	if fmt.Sprint(result) == "0" {
		return fmt.Errorf("锁已过期或被其他实例持有: key=%s", l.key)
	}
	return nil
}

func (l *RedisLock) startWatchdog() {
	l.stopRenew = make(chan struct{})
	l.renewDone = make(chan struct{})

	interval := l.ttl / 3
	if interval < time.Second {
		interval = time.Second
	}

	stop, done := l.stopRenew, l.renewDone
	threading.GoSafe(func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := l.Refresh(context.Background()); err != nil {
					logx.Errorf("[RedisLock] 续期失败: key=%s, err=%v", l.key, err)
					return
				}
			}
		}
	})
}

func (l *RedisLock) stopWatchdog() {
	if l.stopRenew == nil {
		return
	}
	close(l.stopRenew)
	<-l.renewDone
	l.stopRenew = nil
	l.renewDone = nil
}
