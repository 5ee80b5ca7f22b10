// Package logic 提供各业务 logic 共用的事务封装与类型转换
package logic

import (
	"event-platform/app/event/api/internal/capacity"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"
)

// ==================== Event 转换 ====================

// ConvertEventToInfo 活动模型转为接口返回结构
func ConvertEventToInfo(e *model.Event) types.EventInfo {
	if e == nil {
		return types.EventInfo{}
	}
	return types.EventInfo{
		Id:                              e.ID,
		OwnerId:                         e.OwnerID,
		Title:                           e.Title,
		Description:                     e.Description,
		Status:                          e.Status,
		StatusText:                      e.StatusText(),
		PublishAt:                       e.PublishAt,
		StartAt:                         e.StartAt,
		EndAt:                           e.EndAt,
		Mode:                            e.Mode,
		MinCapacity:                     e.MinCapacity,
		MaxCapacity:                     e.MaxCapacity,
		MeetingKind:                     e.MeetingKind,
		MeetingUrl:                      e.MeetingURL,
		Latitude:                        e.Latitude,
		Longitude:                       e.Longitude,
		JoinOpensMinutesBeforeStart:     e.JoinOpensMinutesBeforeStart,
		JoinCutoffMinutesBeforeStart:    e.JoinCutoffMinutesBeforeStart,
		LateJoinCutoffMinutesAfterStart: e.LateJoinCutoffMinutesAfterStart,
		AllowJoinLate:                   e.AllowJoinLate,
		RequireApproval:                 e.RequireApproval,
		WaitlistEnabled:                 e.WaitlistEnabled,
		CanceledAt:                      e.CanceledAt,
		CancelReason:                    e.CancelReason,
		DeletedAt:                       e.DeletedAt,
		DeleteReason:                    e.DeleteReason,
		AuditArchivedAt:                 e.AuditArchivedAt,
		JoinedCount:                     e.JoinedCount,
		Version:                         e.Version,
		CreatedAt:                       e.CreatedAt,
		UpdatedAt:                       e.UpdatedAt,
	}
}

// ==================== Member 转换 ====================

// ConvertOutcomeToMemberResp 成员变更结果转为接口返回结构
func ConvertOutcomeToMemberResp(out *capacity.Outcome) *types.MemberResp {
	if out == nil || out.Member == nil {
		return &types.MemberResp{}
	}
	m := out.Member
	return &types.MemberResp{
		EventId:     m.EventID,
		UserId:      m.UserID,
		Role:        m.Role,
		Status:      m.Status,
		StatusText:  m.StatusText(),
		QueuedAt:    m.QueuedAt,
		JoinedAt:    m.JoinedAt,
		JoinedCount: out.JoinedCount,
		Promoted:    MemberUserIDs(out.Promoted),
	}
}

// MemberUserIDs 取成员的用户ID列表
func MemberUserIDs(members []*model.EventMember) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// ==================== Notification 转换 ====================

// ConvertNotificationsToInfo 批量转换通知
func ConvertNotificationsToInfo(rows []*model.Notification) []types.NotificationInfo {
	result := make([]types.NotificationInfo, 0, len(rows))
	for _, n := range rows {
		result = append(result, types.NotificationInfo{
			Id:         n.ID,
			Kind:       n.Kind,
			ActorId:    n.ActorID,
			EntityType: n.EntityType,
			EntityId:   n.EntityID,
			Data:       string(n.Data),
			IsRead:     n.IsRead,
			ReadAt:     n.ReadAt,
			CreatedAt:  n.CreatedAt,
		})
	}
	return result
}
