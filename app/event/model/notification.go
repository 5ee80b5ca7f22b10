package model

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
)

// ==================== 通知类型 ====================

const (
	NotifyEventCanceled  = "event_canceled"
	NotifyEventUpdated   = "event_updated"
	NotifyEventReminder  = "event_reminder"
	NotifyEventFeedback  = "event_feedback"
	NotifyMemberPromoted = "member_promoted"
	NotifyMemberApproved = "member_approved"
	NotifyMemberRejected = "member_rejected"
	NotifyMemberInvited  = "member_invited"
	NotifyJoinRequested  = "join_requested"
)

// EntityTypeEvent 通知关联实体类型
const EntityTypeEvent = "event"

// Notification 通知模型
// DedupeKey 唯一，同一逻辑通知重复投递只会落库一次
type Notification struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind        string `gorm:"type:varchar(32);not null;comment:通知类型" json:"kind"`
	RecipientID int64  `gorm:"index:idx_recipient_created,priority:1;not null;comment:接收人" json:"recipient_id"`
	ActorID     int64  `gorm:"default:0;comment:触发人(0=系统)" json:"actor_id"`
	EntityType  string `gorm:"type:varchar(32);not null;comment:关联实体类型" json:"entity_type"`
	EntityID    int64  `gorm:"not null;comment:关联实体ID" json:"entity_id"`
	DedupeKey   string `gorm:"type:varchar(191);uniqueIndex:uk_dedupe_key;not null;comment:去重键" json:"dedupe_key"`

	Data json.RawMessage `gorm:"type:json" json:"data"`

	IsRead    bool  `gorm:"default:false;comment:是否已读" json:"is_read"`
	ReadAt    int64 `gorm:"default:0;comment:阅读时间" json:"read_at"`
	CreatedAt int64 `gorm:"autoCreateTime;index:idx_recipient_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ==================== NotificationModel 数据访问层 ====================

type gormNotificationRepo struct {
	db *gorm.DB
}

// InsertSkipDuplicates 逐条插入，去重键冲突的跳过，返回实际插入的记录
func (m *gormNotificationRepo) InsertSkipDuplicates(ctx context.Context, rows []*Notification) ([]*Notification, error) {
	inserted := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		err := m.db.WithContext(ctx).Create(row).Error
		if isDuplicateKey(err) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted = append(inserted, row)
	}
	return inserted, nil
}

// ListByRecipient 分页查询用户通知
func (m *gormNotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit int) ([]*Notification, int64, error) {
	var (
		rows  []*Notification
		total int64
	)

	query := m.db.WithContext(ctx).Model(&Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UnreadCount 获取未读通知数量
func (m *gormNotificationRepo) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 标记已读，ids 为空时标记全部
func (m *gormNotificationRepo) MarkRead(ctx context.Context, recipientID int64, ids []int64, at int64) (int64, error) {
	query := m.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	result := query.Updates(map[string]interface{}{
		"is_read": true,
		"read_at": at,
	})
	return result.RowsAffected, result.Error
}
