package constants

import (
	"strconv"
	"time"
)

// Redis Key 前缀规范
// 格式: {业务}:{模块}:{具体标识}
// 示例: event:lock:cron:publish, event:limit:join

const (
	// ============ 定时任务队列 Redis Key ============

	// DelayQueuePrefix 延迟队列默认前缀
	// 实际 key: {prefix}:ready / {prefix}:processing / {prefix}:payload
	DelayQueuePrefix = "event:jobs"

	// ============ 活动服务 Redis Key ============

	// LockCronPrefix 定时扫描分布式锁前缀
	// 格式: event:lock:cron:{sweep}
	LockCronPrefix = "event:lock:cron:"
	// JoinLimitPrefix 报名限流前缀
	JoinLimitPrefix = "event:limit:join"
)

// ============ 过期时间 ============

const (
	// LockExpireSweep 扫描任务锁过期时间
	LockExpireSweep = 5 * time.Minute
)

// ============ 通知 Topic ============

const (
	// TopicNotificationAddedPrefix 新通知推送 topic 前缀
	TopicNotificationAddedPrefix = "notification-added:"
	// TopicNotificationBadgePrefix 未读角标推送 topic 前缀
	TopicNotificationBadgePrefix = "notification-badge:"
)

// ============ Key 生成辅助函数 ============

// GetCronLockKey 获取定时扫描锁 key
func GetCronLockKey(sweep string) string {
	return LockCronPrefix + sweep
}

// NotificationAddedTopic 用户新通知 topic
func NotificationAddedTopic(recipientID int64) string {
	return TopicNotificationAddedPrefix + strconv.FormatInt(recipientID, 10)
}

// NotificationBadgeTopic 用户未读角标 topic
func NotificationBadgeTopic(recipientID int64) string {
	return TopicNotificationBadgePrefix + strconv.FormatInt(recipientID, 10)
}
