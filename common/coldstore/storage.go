package coldstore

import (
	"context"
	"fmt"

	"event-platform/common/breakerx"

	"github.com/zeromicro/go-zero/core/logx"
)

// Storage 冷存储（归档文件写入）
// 同一 key 重复写入会覆盖，调用方依赖这一点实现幂等重试
type Storage interface {
	// Put 写入对象，返回可定位的地址（如 qiniu://bucket/key、file:///dir/key）
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Config 冷存储配置
type Config struct {
	Qiniu    QiniuConfig `json:",optional"`
	LocalDir string      `json:",default=data/archive"`
	// Breaker 七牛上传熔断，打开期间直接写本地
	Breaker breakerx.Config `json:",optional"`
}

// NewStorage 根据配置创建冷存储
// 配置了七牛云时以七牛为主、本地磁盘兜底，否则只写本地磁盘
func NewStorage(c Config) Storage {
	local := NewLocalStorage(c.LocalDir)
	if c.Qiniu.AccessKey == "" || c.Qiniu.SecretKey == "" || c.Qiniu.Bucket == "" {
		logx.Infof("[ColdStore] 未配置七牛云，归档写入本地目录: %s", c.LocalDir)
		return local
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = "coldstore-qiniu"
	}
	return NewFallbackStorage(NewQiniuStorage(c.Qiniu), local, breakerx.New(c.Breaker))
}

// FallbackStorage 主存储失败（或熔断打开）时写入备用存储
type FallbackStorage struct {
	primary  Storage
	fallback Storage
	brk      *breakerx.Breaker
}

// NewFallbackStorage 创建带熔断的主备存储，brk 为 nil 时使用默认配置
func NewFallbackStorage(primary, fallback Storage, brk *breakerx.Breaker) *FallbackStorage {
	if brk == nil {
		brk = breakerx.New(breakerx.Config{Name: "coldstore-primary"})
	}
	return &FallbackStorage{
		primary:  primary,
		fallback: fallback,
		brk:      brk,
	}
}

// Put 先写主存储，失败后写备用存储；两者都失败时返回错误
func (s *FallbackStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	var location string
	primaryErr := s.brk.DoCtx(ctx, func() error {
		loc, err := s.primary.Put(ctx, key, data)
		if err != nil {
			return err
		}
		location = loc
		return nil
	})
	if primaryErr == nil {
		return location, nil
	}

	logx.WithContext(ctx).Errorf("[ColdStore] 主存储写入失败，改写备用存储: key=%s, err=%v", key, primaryErr)
	location, err := s.fallback.Put(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("cold storage unavailable: primary: %v, fallback: %w", primaryErr, err)
	}
	return location, nil
}
