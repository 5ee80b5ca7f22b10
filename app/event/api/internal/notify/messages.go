package notify

import "encoding/json"

// AddedMessage notification-added:{recipientId} 消息体
type AddedMessage struct {
	ID         int64           `json:"id"`
	Kind       string          `json:"kind"`
	ActorID    int64           `json:"actor_id"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// BadgeMessage notification-badge:{recipientId} 消息体，客户端收到后重新拉取未读数
type BadgeMessage struct {
	RecipientID int64 `json:"recipient_id"`
	ChangedAt   int64 `json:"changed_at"`
}

// ==================== 通知数据 ====================

// CanceledData 活动取消
type CanceledData struct {
	Title  string `json:"title"`
	Reason string `json:"reason,omitempty"`
}

// UpdatedData 活动信息变更
type UpdatedData struct {
	Title         string   `json:"title"`
	ChangedFields []string `json:"changed_fields"`
}

// ReminderData 活动开始提醒
type ReminderData struct {
	Title         string `json:"title"`
	StartAt       int64  `json:"start_at"`
	OffsetSeconds int64  `json:"offset_seconds"`
}

// FeedbackData 活动结束后的反馈邀请
type FeedbackData struct {
	Title string `json:"title"`
	EndAt int64  `json:"end_at"`
}

// MemberData 成员状态变化（转正/审批/邀请/申请）
type MemberData struct {
	Title  string `json:"title"`
	UserID int64  `json:"user_id,omitempty"`
}
