package model

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ==================== EventMember 活动成员模型 ====================
// 成员记录不做物理删除，只做状态流转

type EventMember struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	EventID int64 `gorm:"uniqueIndex:uk_event_user,priority:1;index:idx_event_status_queued,priority:1;not null;comment:活动ID" json:"event_id"`
	UserID  int64 `gorm:"uniqueIndex:uk_event_user,priority:2;index:idx_user_id;not null;comment:用户ID" json:"user_id"`

	Role   int8 `gorm:"not null;default:3;comment:角色: 1组织者 2协管 3参与者" json:"role"`
	Status int8 `gorm:"not null;index:idx_event_status_queued,priority:2;comment:状态: 1已加入 2待审批 3已邀请 4候补 5已拒绝 6已禁止 7已退出" json:"status"`

	// QueuedAt 候补/申请/邀请的排队时间，用于 FIFO
	QueuedAt    int64 `gorm:"default:0;index:idx_event_status_queued,priority:3;comment:排队时间" json:"queued_at"`
	JoinedAt    int64 `gorm:"default:0;comment:加入时间" json:"joined_at"`
	InvitedByID int64 `gorm:"default:0;comment:邀请人" json:"invited_by_id"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EventMember) TableName() string {
	return "event_members"
}

// StatusText 获取状态文本
func (m *EventMember) StatusText() string {
	if text, ok := MemberStatusText[m.Status]; ok {
		return text
	}
	return "未知"
}

// IsStaff 组织者或协管
func (m *EventMember) IsStaff() bool {
	return m.Role == RoleOwner || m.Role == RoleModerator
}

// ==================== EventMemberModel 数据访问层 ====================

type gormMemberRepo struct {
	db *gorm.DB
}

// Insert 创建成员记录，(event_id, user_id) 冲突返回 ErrMemberExists
func (m *gormMemberRepo) Insert(ctx context.Context, member *EventMember) error {
	err := m.db.WithContext(ctx).Create(member).Error
	if isDuplicateKey(err) {
		return ErrMemberExists
	}
	return err
}

// FindByEventUser 根据活动ID和用户ID查询
func (m *gormMemberRepo) FindByEventUser(ctx context.Context, eventID, userID int64) (*EventMember, error) {
	var member EventMember
	err := m.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// CountByStatus 统计某状态的成员数
func (m *gormMemberRepo) CountByStatus(ctx context.Context, eventID int64, status int8) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&EventMember{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&count).Error
	return count, err
}

// CountJoinedByRole 统计某角色的已加入成员数
func (m *gormMemberRepo) CountJoinedByRole(ctx context.Context, eventID int64, role int8) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&EventMember{}).
		Where("event_id = ? AND status = ? AND role = ?", eventID, MemberStatusJoined, role).
		Count(&count).Error
	return count, err
}

// ListByStatusFIFO 按排队顺序查询某状态的成员
func (m *gormMemberRepo) ListByStatusFIFO(ctx context.Context, eventID int64, status int8, limit int) ([]*EventMember, error) {
	var members []*EventMember
	err := m.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, status).
		Order("queued_at ASC, id ASC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

// ListUserIDsByStatuses 查询处于指定状态的成员用户ID
func (m *gormMemberRepo) ListUserIDsByStatuses(ctx context.Context, eventID int64, statuses []int8) ([]int64, error) {
	if len(statuses) == 0 {
		return []int64{}, nil
	}
	var userIDs []int64
	err := m.db.WithContext(ctx).
		Model(&EventMember{}).
		Where("event_id = ? AND status IN ?", eventID, statuses).
		Order("id ASC").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// UpdateStatus 更新成员状态相关字段
func (m *gormMemberRepo) UpdateStatus(ctx context.Context, member *EventMember) error {
	result := m.db.WithContext(ctx).
		Model(&EventMember{}).
		Where("id = ?", member.ID).
		Updates(map[string]interface{}{
			"role":          member.Role,
			"status":        member.Status,
			"queued_at":     member.QueuedAt,
			"joined_at":     member.JoinedAt,
			"invited_by_id": member.InvitedByID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// isDuplicateKey 判断是否为 MySQL 唯一键冲突（1062）
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
