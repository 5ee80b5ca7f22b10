/**
 * @projectName: event-platform
 * @package: idgen
 * @className: idgen
 * @description: 幂等键与定时任务ID生成工具
 * @version: 1.0
 */

package idgen

import (
	"fmt"
	"strings"
)

// ==================== 说明 ====================
// 主键ID使用 MySQL 自增ID（GORM autoIncrement）
//
// 本文件只提供幂等键生成工具：
//   - DedupeKey：通知去重键，同一键只会落库一次
//   - JobID：定时任务ID，同一活动同一提醒的ID固定，便于覆盖和清理
// ==================== 幂等键生成器 ====================

// DedupeKey 生成通知去重键
// 格式: {kind}:{recipientID}:{entityID}:{version}
// 示例: event_canceled:1001:42:1718000000
func DedupeKey(kind string, recipientID, entityID int64, version interface{}) string {
	return join(kind, recipientID, entityID, version)
}

// JobID 生成定时任务ID
// 格式: event:{eventID}:{kind}:{offsetSeconds}
// 示例: event:42:reminder:3600
func JobID(eventID int64, kind string, offsetSeconds int64) string {
	return join("event", eventID, kind, offsetSeconds)
}

// join 以冒号拼接各段
func join(parts ...interface{}) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprint(&b, part)
	}
	return b.String()
}
