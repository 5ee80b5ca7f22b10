package model

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
)

// EventAuditLog 活动审计日志（只追加，归档后删除）
type EventAuditLog struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID    int64           `gorm:"index:idx_event_id,priority:1;not null;comment:活动ID" json:"event_id"`
	Action     string          `gorm:"type:varchar(32);not null;comment:动作" json:"action"`
	FromStatus int8            `gorm:"not null;comment:变更前状态" json:"from_status"`
	ToStatus   int8            `gorm:"not null;comment:变更后状态" json:"to_status"`
	ActorID    int64           `gorm:"not null;comment:操作人ID(0=系统)" json:"actor_id"`
	Detail     json.RawMessage `gorm:"type:json;comment:变更详情" json:"detail,omitempty"`
	CreatedAt  int64           `gorm:"autoCreateTime" json:"created_at"`
}

func (EventAuditLog) TableName() string {
	return "event_audit_logs"
}

type gormAuditLogRepo struct {
	db *gorm.DB
}

// Insert 追加日志
func (m *gormAuditLogRepo) Insert(ctx context.Context, log *EventAuditLog) error {
	return m.db.WithContext(ctx).Create(log).Error
}

// ListPage 按 ID 升序分页（游标为上一页最后一条的 ID）
func (m *gormAuditLogRepo) ListPage(ctx context.Context, eventID, afterID int64, limit int) ([]*EventAuditLog, error) {
	var logs []*EventAuditLog
	err := m.db.WithContext(ctx).
		Where("event_id = ? AND id > ?", eventID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// CountByEvent 统计活动日志条数
func (m *gormAuditLogRepo) CountByEvent(ctx context.Context, eventID int64) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&EventAuditLog{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

// DeleteUpTo 删除已导出的日志（id <= maxID）
func (m *gormAuditLogRepo) DeleteUpTo(ctx context.Context, eventID, maxID int64) (int64, error) {
	result := m.db.WithContext(ctx).
		Where("event_id = ? AND id <= ?", eventID, maxID).
		Delete(&EventAuditLog{})
	return result.RowsAffected, result.Error
}
