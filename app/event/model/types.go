package model

import "errors"

// ==================== 活动状态 ====================
// 取消、删除不是独立状态，由 CanceledAt / DeletedAt 时间戳表示

const (
	EventStatusDraft     int8 = 0 // 草稿
	EventStatusScheduled int8 = 1 // 定时发布
	EventStatusPublished int8 = 2 // 已发布
)

// EventStatusText 状态文本映射
var EventStatusText = map[int8]string{
	EventStatusDraft:     "草稿",
	EventStatusScheduled: "定时发布",
	EventStatusPublished: "已发布",
}

// ==================== 参与模式 ====================

const (
	ModeOneToOne int8 = 1 // 一对一
	ModeGroup    int8 = 2 // 小组
	ModeCustom   int8 = 3 // 自定义
)

// ==================== 会议形式 ====================

const (
	MeetingOnline int8 = 1 // 线上
	MeetingOnsite int8 = 2 // 线下
	MeetingHybrid int8 = 3 // 混合
)

// ==================== 成员角色 ====================

const (
	RoleOwner       int8 = 1 // 组织者
	RoleModerator   int8 = 2 // 协管
	RoleParticipant int8 = 3 // 参与者
)

// ==================== 成员状态 ====================

const (
	MemberStatusJoined   int8 = 1 // 已加入
	MemberStatusPending  int8 = 2 // 待审批
	MemberStatusInvited  int8 = 3 // 已邀请
	MemberStatusWaitlist int8 = 4 // 候补
	MemberStatusRejected int8 = 5 // 已拒绝
	MemberStatusBanned   int8 = 6 // 已禁止
	MemberStatusLeft     int8 = 7 // 已退出
)

// MemberStatusText 成员状态文本映射
var MemberStatusText = map[int8]string{
	MemberStatusJoined:   "已加入",
	MemberStatusPending:  "待审批",
	MemberStatusInvited:  "已邀请",
	MemberStatusWaitlist: "候补",
	MemberStatusRejected: "已拒绝",
	MemberStatusBanned:   "已禁止",
	MemberStatusLeft:     "已退出",
}

// ==================== 审计动作 ====================

const (
	AuditActionCreate      = "create"
	AuditActionUpdate      = "update"
	AuditActionPublish     = "publish"
	AuditActionSchedule    = "schedule"
	AuditActionUnpublish   = "unpublish"
	AuditActionCancel      = "cancel"
	AuditActionDelete      = "delete"
	AuditActionJoin        = "join"
	AuditActionLeave       = "leave"
	AuditActionInvite      = "invite"
	AuditActionApprove     = "approve"
	AuditActionReject      = "reject"
	AuditActionBan         = "ban"
	AuditActionAutoPublish = "auto_publish"
)

// ==================== 错误定义 ====================

var (
	ErrEventNotFound         = errors.New("活动不存在")
	ErrEventConcurrentUpdate = errors.New("并发更新冲突，请重试")
	ErrMemberNotFound        = errors.New("成员记录不存在")
	ErrMemberExists          = errors.New("成员记录已存在")
)

// 分页参数

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
