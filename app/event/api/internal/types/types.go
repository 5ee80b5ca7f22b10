// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

// ==================== 活动 ====================

type EventInfo struct {
	Id                              int64    `json:"id"`
	OwnerId                         int64    `json:"ownerId"`
	Title                           string   `json:"title"`
	Description                     string   `json:"description"`
	Status                          int8     `json:"status"`
	StatusText                      string   `json:"statusText"`
	PublishAt                       int64    `json:"publishAt"`
	StartAt                         int64    `json:"startAt"`
	EndAt                           int64    `json:"endAt"`
	Mode                            int8     `json:"mode"`
	MinCapacity                     *uint32  `json:"minCapacity"`
	MaxCapacity                     *uint32  `json:"maxCapacity"`
	MeetingKind                     int8     `json:"meetingKind"`
	MeetingUrl                      string   `json:"meetingUrl"`
	Latitude                        *float64 `json:"latitude"`
	Longitude                       *float64 `json:"longitude"`
	JoinOpensMinutesBeforeStart     *int32   `json:"joinOpensMinutesBeforeStart"`
	JoinCutoffMinutesBeforeStart    *int32   `json:"joinCutoffMinutesBeforeStart"`
	LateJoinCutoffMinutesAfterStart *int32   `json:"lateJoinCutoffMinutesAfterStart"`
	AllowJoinLate                   bool     `json:"allowJoinLate"`
	RequireApproval                 bool     `json:"requireApproval"`
	WaitlistEnabled                 bool     `json:"waitlistEnabled"`
	CanceledAt                      int64    `json:"canceledAt"`
	CancelReason                    string   `json:"cancelReason"`
	DeletedAt                       int64    `json:"deletedAt"`
	DeleteReason                    string   `json:"deleteReason"`
	AuditArchivedAt                 int64    `json:"auditArchivedAt"`
	JoinedCount                     uint32   `json:"joinedCount"`
	Version                         uint32   `json:"version"`
	CreatedAt                       int64    `json:"createdAt"`
	UpdatedAt                       int64    `json:"updatedAt"`
}

type CreateEventReq struct {
	Title                           string   `json:"title"`
	Description                     string   `json:"description,optional"`
	StartAt                         int64    `json:"startAt"`
	EndAt                           int64    `json:"endAt"`
	Mode                            int8     `json:"mode"`
	MinCapacity                     *uint32  `json:"minCapacity,optional"`
	MaxCapacity                     *uint32  `json:"maxCapacity,optional"`
	MeetingKind                     int8     `json:"meetingKind"`
	MeetingUrl                      string   `json:"meetingUrl,optional"`
	Latitude                        *float64 `json:"latitude,optional"`
	Longitude                       *float64 `json:"longitude,optional"`
	JoinOpensMinutesBeforeStart     *int32   `json:"joinOpensMinutesBeforeStart,optional"`
	JoinCutoffMinutesBeforeStart    *int32   `json:"joinCutoffMinutesBeforeStart,optional"`
	LateJoinCutoffMinutesAfterStart *int32   `json:"lateJoinCutoffMinutesAfterStart,optional"`
	AllowJoinLate                   bool     `json:"allowJoinLate,optional"`
	RequireApproval                 bool     `json:"requireApproval,optional"`
	WaitlistEnabled                 *bool    `json:"waitlistEnabled,optional"`
	// Publish=true 创建后立即发布；PublishAt>0 创建后定时发布
	Publish   bool  `json:"publish,optional"`
	PublishAt int64 `json:"publishAt,optional"`
}

// UpdateEventReq 局部更新，未传的字段保持不变
type UpdateEventReq struct {
	Id int64 `path:"id"`
	// Version>0 时做乐观锁校验
	Version                         uint32   `json:"version,optional"`
	Title                           *string  `json:"title,optional"`
	Description                     *string  `json:"description,optional"`
	StartAt                         *int64   `json:"startAt,optional"`
	EndAt                           *int64   `json:"endAt,optional"`
	Mode                            *int8    `json:"mode,optional"`
	MinCapacity                     *uint32  `json:"minCapacity,optional"`
	MaxCapacity                     *uint32  `json:"maxCapacity,optional"`
	MeetingKind                     *int8    `json:"meetingKind,optional"`
	MeetingUrl                      *string  `json:"meetingUrl,optional"`
	Latitude                        *float64 `json:"latitude,optional"`
	Longitude                       *float64 `json:"longitude,optional"`
	JoinOpensMinutesBeforeStart     *int32   `json:"joinOpensMinutesBeforeStart,optional"`
	JoinCutoffMinutesBeforeStart    *int32   `json:"joinCutoffMinutesBeforeStart,optional"`
	LateJoinCutoffMinutesAfterStart *int32   `json:"lateJoinCutoffMinutesAfterStart,optional"`
	AllowJoinLate                   *bool    `json:"allowJoinLate,optional"`
	RequireApproval                 *bool    `json:"requireApproval,optional"`
	WaitlistEnabled                 *bool    `json:"waitlistEnabled,optional"`
}

type UpdateEventResp struct {
	Event         EventInfo `json:"event"`
	ChangedFields []string  `json:"changedFields"`
	Promoted      []int64   `json:"promoted"`
}

type EventIdReq struct {
	Id int64 `path:"id"`
}

type CancelEventReq struct {
	Id     int64  `path:"id"`
	Reason string `json:"reason,optional"`
}

type DeleteEventReq struct {
	Id     int64  `path:"id"`
	Reason string `json:"reason,optional"`
}

type ScheduleEventReq struct {
	Id        int64 `path:"id"`
	PublishAt int64 `json:"publishAt"`
}

type ArchiveAuditResp struct {
	AlreadyArchived bool   `json:"alreadyArchived"`
	Archived        bool   `json:"archived"`
	Rows            int    `json:"rows"`
	Location        string `json:"location"`
	Remaining       int64  `json:"remaining"`
}

// ==================== 成员 ====================

type MemberReq struct {
	Id     int64 `path:"id"`
	UserId int64 `path:"userId"`
}

type MemberResp struct {
	EventId     int64   `json:"eventId"`
	UserId      int64   `json:"userId"`
	Role        int8    `json:"role"`
	Status      int8    `json:"status"`
	StatusText  string  `json:"statusText"`
	QueuedAt    int64   `json:"queuedAt"`
	JoinedAt    int64   `json:"joinedAt"`
	JoinedCount uint32  `json:"joinedCount"`
	Promoted    []int64 `json:"promoted"`
}

// ==================== 通知 ====================

type NotificationInfo struct {
	Id         int64  `json:"id"`
	Kind       string `json:"kind"`
	ActorId    int64  `json:"actorId"`
	EntityType string `json:"entityType"`
	EntityId   int64  `json:"entityId"`
	Data       string `json:"data"`
	IsRead     bool   `json:"isRead"`
	ReadAt     int64  `json:"readAt"`
	CreatedAt  int64  `json:"createdAt"`
}

type ListNotificationsReq struct {
	Page       int  `form:"page,default=1"`
	PageSize   int  `form:"pageSize,default=20"`
	UnreadOnly bool `form:"unreadOnly,optional"`
}

type ListNotificationsResp struct {
	List     []NotificationInfo `json:"list"`
	Total    int64              `json:"total"`
	Unread   int64              `json:"unread"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

type MarkReadReq struct {
	// 为空表示全部已读
	Ids []int64 `json:"ids,optional"`
}

type MarkReadResp struct {
	Affected int64 `json:"affected"`
}
