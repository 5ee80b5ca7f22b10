package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== Event 活动模型 ====================

type Event struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID int64 `gorm:"index;not null;comment:组织者用户ID" json:"owner_id"`

	Title       string `gorm:"type:varchar(100);not null;comment:活动标题" json:"title"`
	Description string `gorm:"type:text;comment:活动详情" json:"description"`

	// 状态与时间（unix 秒，0 表示未设置）
	Status    int8  `gorm:"default:0;index:idx_status_publish,priority:1;comment:状态: 0草稿 1定时发布 2已发布" json:"status"`
	PublishAt int64 `gorm:"default:0;index:idx_status_publish,priority:2;comment:定时发布时间" json:"publish_at"`
	StartAt   int64 `gorm:"not null;comment:开始时间" json:"start_at"`
	EndAt     int64 `gorm:"not null;index;comment:结束时间" json:"end_at"`

	// 参与模式与名额（仅 CUSTOM 允许为空）
	Mode        int8    `gorm:"not null;comment:参与模式: 1一对一 2小组 3自定义" json:"mode"`
	MinCapacity *uint32 `gorm:"comment:最少人数" json:"min_capacity"`
	MaxCapacity *uint32 `gorm:"comment:最多人数" json:"max_capacity"`

	// 会议形式
	MeetingKind int8     `gorm:"not null;comment:会议形式: 1线上 2线下 3混合" json:"meeting_kind"`
	MeetingURL  string   `gorm:"type:varchar(500);default:'';comment:线上会议链接" json:"meeting_url"`
	Latitude    *float64 `gorm:"type:decimal(10,7);comment:纬度" json:"latitude"`
	Longitude   *float64 `gorm:"type:decimal(10,7);comment:经度" json:"longitude"`

	// 报名时间窗口（分钟）
	JoinOpensMinutesBeforeStart     *int32 `gorm:"comment:开始前多少分钟开放报名" json:"join_opens_minutes_before_start"`
	JoinCutoffMinutesBeforeStart    *int32 `gorm:"comment:开始前多少分钟截止报名" json:"join_cutoff_minutes_before_start"`
	LateJoinCutoffMinutesAfterStart *int32 `gorm:"comment:开始后多少分钟内允许迟到加入" json:"late_join_cutoff_minutes_after_start"`
	AllowJoinLate                   bool   `gorm:"default:false;comment:是否允许开始后加入" json:"allow_join_late"`

	RequireApproval bool `gorm:"default:false;comment:是否需要审批" json:"require_approval"`
	WaitlistEnabled bool `gorm:"default:true;comment:满员后是否进入候补" json:"waitlist_enabled"`

	// 取消
	CanceledAt   int64  `gorm:"default:0;index;comment:取消时间" json:"canceled_at"`
	CanceledByID int64  `gorm:"default:0;comment:取消人" json:"canceled_by_id"`
	CancelReason string `gorm:"type:varchar(500);default:'';comment:取消原因" json:"cancel_reason"`

	// 软删除（不使用 gorm.DeletedAt，已删除活动仍需可读）
	DeletedAt    int64  `gorm:"default:0;comment:删除时间" json:"deleted_at"`
	DeletedByID  int64  `gorm:"default:0;comment:删除人" json:"deleted_by_id"`
	DeleteReason string `gorm:"type:varchar(500);default:'';comment:删除原因" json:"delete_reason"`

	AuditArchivedAt int64 `gorm:"default:0;comment:审计日志归档时间" json:"audit_archived_at"`

	// 冗余计数，始终由 JOINED 成员数重算
	JoinedCount uint32 `gorm:"default:0;comment:已加入人数" json:"joined_count"`

	// 乐观锁
	Version   uint32 `gorm:"default:0;comment:乐观锁版本号" json:"version"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// StatusText 获取状态文本
func (e *Event) StatusText() string {
	if e.IsDeleted() {
		return "已删除"
	}
	if e.IsCanceled() {
		return "已取消"
	}
	if text, ok := EventStatusText[e.Status]; ok {
		return text
	}
	return "未知"
}

// IsCanceled 是否已取消
func (e *Event) IsCanceled() bool {
	return e.CanceledAt > 0
}

// IsDeleted 是否已软删除
func (e *Event) IsDeleted() bool {
	return e.DeletedAt > 0
}

// IsReadOnly 取消或删除后只读
func (e *Event) IsReadOnly() bool {
	return e.IsCanceled() || e.IsDeleted()
}

// IsPublished 是否已发布
func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// Max 最大人数，未设置返回 0, false
func (e *Event) Max() (uint32, bool) {
	if e.MaxCapacity == nil {
		return 0, false
	}
	return *e.MaxCapacity, true
}

// Clone 深拷贝（指针字段单独复制）
func (e *Event) Clone() *Event {
	c := *e
	c.MinCapacity = cloneUint32(e.MinCapacity)
	c.MaxCapacity = cloneUint32(e.MaxCapacity)
	c.Latitude = cloneFloat64(e.Latitude)
	c.Longitude = cloneFloat64(e.Longitude)
	c.JoinOpensMinutesBeforeStart = cloneInt32(e.JoinOpensMinutesBeforeStart)
	c.JoinCutoffMinutesBeforeStart = cloneInt32(e.JoinCutoffMinutesBeforeStart)
	c.LateJoinCutoffMinutesAfterStart = cloneInt32(e.LateJoinCutoffMinutesAfterStart)
	return &c
}

func cloneUint32(p *uint32) *uint32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt32(p *int32) *int32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat64(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ==================== EventModel 数据访问层 ====================

type gormEventRepo struct {
	db *gorm.DB
}

// Insert 创建活动
func (m *gormEventRepo) Insert(ctx context.Context, event *Event) error {
	return m.db.WithContext(ctx).Create(event).Error
}

// FindByID 根据ID查询（已软删除的活动同样返回）
func (m *gormEventRepo) FindByID(ctx context.Context, id int64) (*Event, error) {
	var event Event
	err := m.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate 查询并加行锁（事务内使用，串行化同一活动的并发修改）
func (m *gormEventRepo) FindByIDForUpdate(ctx context.Context, id int64) (*Event, error) {
	var event Event
	err := m.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Save 保存活动全部可变字段（带乐观锁），成功后 event.Version 自增
func (m *gormEventRepo) Save(ctx context.Context, event *Event) error {
	result := m.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND version = ?", event.ID, event.Version).
		Updates(map[string]interface{}{
			"title":                                event.Title,
			"description":                          event.Description,
			"status":                               event.Status,
			"publish_at":                           event.PublishAt,
			"start_at":                             event.StartAt,
			"end_at":                               event.EndAt,
			"mode":                                 event.Mode,
			"min_capacity":                         event.MinCapacity,
			"max_capacity":                         event.MaxCapacity,
			"meeting_kind":                         event.MeetingKind,
			"meeting_url":                          event.MeetingURL,
			"latitude":                             event.Latitude,
			"longitude":                            event.Longitude,
			"join_opens_minutes_before_start":      event.JoinOpensMinutesBeforeStart,
			"join_cutoff_minutes_before_start":     event.JoinCutoffMinutesBeforeStart,
			"late_join_cutoff_minutes_after_start": event.LateJoinCutoffMinutesAfterStart,
			"allow_join_late":                      event.AllowJoinLate,
			"require_approval":                     event.RequireApproval,
			"waitlist_enabled":                     event.WaitlistEnabled,
			"canceled_at":                          event.CanceledAt,
			"canceled_by_id":                       event.CanceledByID,
			"cancel_reason":                        event.CancelReason,
			"deleted_at":                           event.DeletedAt,
			"deleted_by_id":                        event.DeletedByID,
			"delete_reason":                        event.DeleteReason,
			"joined_count":                         event.JoinedCount,
			"version":                              gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventConcurrentUpdate
	}
	event.Version++
	return nil
}

// UpdateJoinedCount 回写已加入人数（事务内、行锁之后调用）
func (m *gormEventRepo) UpdateJoinedCount(ctx context.Context, id int64, joined uint32) error {
	return m.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Update("joined_count", joined).Error
}

// ListDueScheduled 查询到期需要发布的定时活动
func (m *gormEventRepo) ListDueScheduled(ctx context.Context, now int64, limit int) ([]*Event, error) {
	var events []*Event
	err := m.db.WithContext(ctx).
		Where("status = ? AND publish_at > 0 AND publish_at <= ?", EventStatusScheduled, now).
		Where("canceled_at = 0 AND deleted_at = 0").
		Order("publish_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// ListArchivable 查询可以归档审计日志的活动：取消或结束早于 before 且尚未归档
func (m *gormEventRepo) ListArchivable(ctx context.Context, before int64, limit int) ([]*Event, error) {
	var events []*Event
	err := m.db.WithContext(ctx).
		Where("audit_archived_at = 0").
		Where("(canceled_at > 0 AND canceled_at <= ?) OR end_at <= ?", before, before).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// MarkAuditArchived 标记审计日志已归档（只在未归档时生效）
func (m *gormEventRepo) MarkAuditArchived(ctx context.Context, id int64, at int64) error {
	return m.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND audit_archived_at = 0", id).
		Update("audit_archived_at", at).Error
}

// ClearAuditArchived 归档后又追加了日志时清除标记，下一轮扫描重新导出
func (m *gormEventRepo) ClearAuditArchived(ctx context.Context, id int64) error {
	return m.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND audit_archived_at > 0", id).
		Update("audit_archived_at", 0).Error
}
