package model

import (
	"context"

	"gorm.io/gorm"
)

// ==================== 仓储接口 ====================

// EventRepo 活动仓储
type EventRepo interface {
	Insert(ctx context.Context, event *Event) error
	FindByID(ctx context.Context, id int64) (*Event, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Event, error)
	Save(ctx context.Context, event *Event) error
	UpdateJoinedCount(ctx context.Context, id int64, joined uint32) error
	ListDueScheduled(ctx context.Context, now int64, limit int) ([]*Event, error)
	ListArchivable(ctx context.Context, before int64, limit int) ([]*Event, error)
	MarkAuditArchived(ctx context.Context, id int64, at int64) error
	ClearAuditArchived(ctx context.Context, id int64) error
}

// MemberRepo 成员仓储
type MemberRepo interface {
	Insert(ctx context.Context, member *EventMember) error
	FindByEventUser(ctx context.Context, eventID, userID int64) (*EventMember, error)
	CountByStatus(ctx context.Context, eventID int64, status int8) (int64, error)
	CountJoinedByRole(ctx context.Context, eventID int64, role int8) (int64, error)
	ListByStatusFIFO(ctx context.Context, eventID int64, status int8, limit int) ([]*EventMember, error)
	ListUserIDsByStatuses(ctx context.Context, eventID int64, statuses []int8) ([]int64, error)
	UpdateStatus(ctx context.Context, member *EventMember) error
}

// NotificationRepo 通知仓储
type NotificationRepo interface {
	InsertSkipDuplicates(ctx context.Context, rows []*Notification) ([]*Notification, error)
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit int) ([]*Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID int64) (int64, error)
	MarkRead(ctx context.Context, recipientID int64, ids []int64, at int64) (int64, error)
}

// AuditLogRepo 审计日志仓储
type AuditLogRepo interface {
	Insert(ctx context.Context, log *EventAuditLog) error
	ListPage(ctx context.Context, eventID, afterID int64, limit int) ([]*EventAuditLog, error)
	CountByEvent(ctx context.Context, eventID int64) (int64, error)
	DeleteUpTo(ctx context.Context, eventID, maxID int64) (int64, error)
}

// Store 事务性仓储
// Transact 内的 fn 返回 error 时整体回滚；tx 只能在 fn 内使用
type Store interface {
	Transact(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Events() EventRepo
	Members() MemberRepo
	Notifications() NotificationRepo
	AuditLogs() AuditLogRepo
}

// ==================== gorm 实现 ====================

type gormStore struct {
	db *gorm.DB
}

// NewGormStore 基于 gorm 的 Store
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transact(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

func (s *gormStore) Events() EventRepo {
	return &gormEventRepo{db: s.db}
}

func (s *gormStore) Members() MemberRepo {
	return &gormMemberRepo{db: s.db}
}

func (s *gormStore) Notifications() NotificationRepo {
	return &gormNotificationRepo{db: s.db}
}

func (s *gormStore) AuditLogs() AuditLogRepo {
	return &gormAuditLogRepo{db: s.db}
}

// AutoMigrate 建表（开发环境使用，生产环境走 DDL 脚本）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Event{}, &EventMember{}, &Notification{}, &EventAuditLog{})
}
