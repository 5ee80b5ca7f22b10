// Package capacity 名额与候补管理
//
// 所有方法都必须在事务内、活动行已被 FindByIDForUpdate 锁住之后调用。
// 已加入人数只从 CountByStatus(JOINED) 重算，从不增减计数器。
package capacity

import (
	"context"
	"errors"
	"math"
	"time"

	"event-platform/app/event/model"
	"event-platform/common/errorx"
)

// unlimitedBatch 未设置上限时单次最多处理的候补人数
const unlimitedBatch = 500

// Outcome 成员变更结果
type Outcome struct {
	Member *model.EventMember
	// Changed=false 表示幂等命中（如重复报名）
	Changed bool
	// Promoted 本次因名额释放/扩容而转正的候补成员
	Promoted    []*model.EventMember
	JoinedCount uint32
}

// Manager 名额管理器
type Manager struct{}

// NewManager 创建名额管理器
func NewManager() *Manager {
	return &Manager{}
}

// FreeSlots 剩余名额；未设置上限时返回 math.MaxInt32
// 一对一活动在组织者/协管之外最多再加入 1 名参与者
func (m *Manager) FreeSlots(ctx context.Context, tx model.Store, e *model.Event) (int64, error) {
	max, ok := e.Max()
	if !ok {
		return math.MaxInt32, nil
	}

	joined, err := tx.Members().CountByStatus(ctx, e.ID, model.MemberStatusJoined)
	if err != nil {
		return 0, err
	}
	free := int64(max) - joined

	if e.Mode == model.ModeOneToOne {
		participants, err := tx.Members().CountJoinedByRole(ctx, e.ID, model.RoleParticipant)
		if err != nil {
			return 0, err
		}
		if ceiling := 1 - participants; ceiling < free {
			free = ceiling
		}
	}
	if free < 0 {
		free = 0
	}
	return free, nil
}

// SeatOwner 创建活动时组织者以 JOINED 身份入座（占用名额）
func (m *Manager) SeatOwner(ctx context.Context, tx model.Store, e *model.Event, now time.Time) (*Outcome, error) {
	owner := &model.EventMember{
		EventID:  e.ID,
		UserID:   e.OwnerID,
		Role:     model.RoleOwner,
		Status:   model.MemberStatusJoined,
		QueuedAt: now.Unix(),
		JoinedAt: now.Unix(),
	}
	if err := tx.Members().Insert(ctx, owner); err != nil {
		return nil, err
	}
	joined, err := m.Recount(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	return &Outcome{Member: owner, Changed: true, JoinedCount: joined}, nil
}

// Join 用户报名
//   - 已加入/待审批/候补：幂等返回
//   - 被拒绝/被禁止：返回错误
//   - 已邀请：接受邀请，不需要审批
//   - 需要审批：进入 PENDING
//   - 有名额：JOINED；无名额且开启候补：WAITLIST；否则 CodeEventFull
func (m *Manager) Join(ctx context.Context, tx model.Store, e *model.Event, userID int64, now time.Time) (*Outcome, error) {
	member, err := tx.Members().FindByEventUser(ctx, e.ID, userID)
	if err != nil && !errors.Is(err, model.ErrMemberNotFound) {
		return nil, err
	}

	isNew := member == nil
	invited := false
	if !isNew {
		switch member.Status {
		case model.MemberStatusJoined, model.MemberStatusPending, model.MemberStatusWaitlist:
			return &Outcome{Member: member, JoinedCount: e.JoinedCount}, nil
		case model.MemberStatusBanned:
			return nil, errorx.New(errorx.CodeMemberBanned)
		case model.MemberStatusRejected:
			return nil, errorx.New(errorx.CodeMemberRejected)
		case model.MemberStatusInvited:
			invited = true
		}
	} else {
		member = &model.EventMember{
			EventID: e.ID,
			UserID:  userID,
			Role:    model.RoleParticipant,
		}
	}

	switch {
	case e.RequireApproval && !invited:
		member.Status = model.MemberStatusPending
		member.QueuedAt = now.Unix()
	default:
		free, err := m.FreeSlots(ctx, tx, e)
		if err != nil {
			return nil, err
		}
		switch {
		case free > 0:
			member.Status = model.MemberStatusJoined
			member.JoinedAt = now.Unix()
		case e.WaitlistEnabled:
			member.Status = model.MemberStatusWaitlist
			member.QueuedAt = now.Unix()
		default:
			return nil, errorx.New(errorx.CodeEventFull)
		}
	}

	if isNew {
		err = tx.Members().Insert(ctx, member)
	} else {
		err = tx.Members().UpdateStatus(ctx, member)
	}
	if err != nil {
		return nil, err
	}

	joined, err := m.Recount(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	return &Outcome{Member: member, Changed: true, JoinedCount: joined}, nil
}

// Leave 成员退出，释放的名额按 FIFO 转正候补
func (m *Manager) Leave(ctx context.Context, tx model.Store, e *model.Event, userID int64, now time.Time) (*Outcome, error) {
	member, err := m.findMember(ctx, tx, e.ID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role == model.RoleOwner {
		return nil, errorx.NewWithMessage(errorx.CodeMemberStatusInvalid, "组织者不能退出活动")
	}
	switch member.Status {
	case model.MemberStatusLeft:
		return &Outcome{Member: member, JoinedCount: e.JoinedCount}, nil
	case model.MemberStatusJoined, model.MemberStatusPending, model.MemberStatusWaitlist, model.MemberStatusInvited:
	default:
		return nil, errorx.New(errorx.CodeMemberStatusInvalid)
	}

	wasJoined := member.Status == model.MemberStatusJoined
	member.Status = model.MemberStatusLeft
	if err := tx.Members().UpdateStatus(ctx, member); err != nil {
		return nil, err
	}
	return m.afterRelease(ctx, tx, e, member, wasJoined, now)
}

// Approve 审批通过：有名额转为 JOINED，否则进入候补（未开启候补则 CodeEventFull）
func (m *Manager) Approve(ctx context.Context, tx model.Store, e *model.Event, userID int64, now time.Time) (*Outcome, error) {
	member, err := m.findMember(ctx, tx, e.ID, userID)
	if err != nil {
		return nil, err
	}
	if member.Status == model.MemberStatusJoined {
		return &Outcome{Member: member, JoinedCount: e.JoinedCount}, nil
	}
	if member.Status != model.MemberStatusPending {
		return nil, errorx.NewWithMessage(errorx.CodeMemberStatusInvalid, "只能审批待审批的成员")
	}

	free, err := m.FreeSlots(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	switch {
	case free > 0:
		member.Status = model.MemberStatusJoined
		member.JoinedAt = now.Unix()
	case e.WaitlistEnabled:
		// 保留申请时间作为候补排队时间
		member.Status = model.MemberStatusWaitlist
	default:
		return nil, errorx.New(errorx.CodeEventFull)
	}
	if err := tx.Members().UpdateStatus(ctx, member); err != nil {
		return nil, err
	}

	joined, err := m.Recount(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	return &Outcome{Member: member, Changed: true, JoinedCount: joined}, nil
}

// Reject 拒绝待审批/候补/已邀请的成员
func (m *Manager) Reject(ctx context.Context, tx model.Store, e *model.Event, userID int64) (*Outcome, error) {
	member, err := m.findMember(ctx, tx, e.ID, userID)
	if err != nil {
		return nil, err
	}
	switch member.Status {
	case model.MemberStatusRejected:
		return &Outcome{Member: member, JoinedCount: e.JoinedCount}, nil
	case model.MemberStatusPending, model.MemberStatusWaitlist, model.MemberStatusInvited:
	default:
		return nil, errorx.NewWithMessage(errorx.CodeMemberStatusInvalid, "只能拒绝待审批、候补或已邀请的成员")
	}

	member.Status = model.MemberStatusRejected
	if err := tx.Members().UpdateStatus(ctx, member); err != nil {
		return nil, err
	}
	joined, err := m.Recount(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	return &Outcome{Member: member, Changed: true, JoinedCount: joined}, nil
}

// Invite 邀请用户（不占名额，接受邀请时才计入）
func (m *Manager) Invite(ctx context.Context, tx model.Store, e *model.Event, inviterID, userID int64, now time.Time) (*Outcome, error) {
	member, err := tx.Members().FindByEventUser(ctx, e.ID, userID)
	if err != nil && !errors.Is(err, model.ErrMemberNotFound) {
		return nil, err
	}

	if member == nil {
		member = &model.EventMember{
			EventID:     e.ID,
			UserID:      userID,
			Role:        model.RoleParticipant,
			Status:      model.MemberStatusInvited,
			QueuedAt:    now.Unix(),
			InvitedByID: inviterID,
		}
		if err := tx.Members().Insert(ctx, member); err != nil {
			return nil, err
		}
		return &Outcome{Member: member, Changed: true, JoinedCount: e.JoinedCount}, nil
	}

	switch member.Status {
	case model.MemberStatusInvited:
		return &Outcome{Member: member, JoinedCount: e.JoinedCount}, nil
	case model.MemberStatusBanned:
		return nil, errorx.New(errorx.CodeMemberBanned)
	case model.MemberStatusLeft, model.MemberStatusRejected:
	default:
		return nil, errorx.NewWithMessage(errorx.CodeMemberStatusInvalid, "该用户已在活动中")
	}

	member.Status = model.MemberStatusInvited
	member.QueuedAt = now.Unix()
	member.InvitedByID = inviterID
	if err := tx.Members().UpdateStatus(ctx, member); err != nil {
		return nil, err
	}
	return &Outcome{Member: member, Changed: true, JoinedCount: e.JoinedCount}, nil
}

// Ban 禁止用户参加，原为 JOINED 时释放名额
func (m *Manager) Ban(ctx context.Context, tx model.Store, e *model.Event, userID int64, now time.Time) (*Outcome, error) {
	member, err := tx.Members().FindByEventUser(ctx, e.ID, userID)
	if err != nil && !errors.Is(err, model.ErrMemberNotFound) {
		return nil, err
	}
	if member == nil {
		member = &model.EventMember{
			EventID: e.ID,
			UserID:  userID,
			Role:    model.RoleParticipant,
			Status:  model.MemberStatusBanned,
		}
		if err := tx.Members().Insert(ctx, member); err != nil {
			return nil, err
		}
		return &Outcome{Member: member, Changed: true, JoinedCount: e.JoinedCount}, nil
	}
	if member.Role == model.RoleOwner {
		return nil, errorx.NewWithMessage(errorx.CodeMemberStatusInvalid, "不能禁止组织者")
	}
	if member.Status == model.MemberStatusBanned {
		return &Outcome{Member: member, JoinedCount: e.JoinedCount}, nil
	}

	wasJoined := member.Status == model.MemberStatusJoined
	member.Status = model.MemberStatusBanned
	if err := tx.Members().UpdateStatus(ctx, member); err != nil {
		return nil, err
	}
	return m.afterRelease(ctx, tx, e, member, wasJoined, now)
}

// Promote 按 FIFO 把候补转为 JOINED，最多 limit 人（limit<=0 表示填满剩余名额）
func (m *Manager) Promote(ctx context.Context, tx model.Store, e *model.Event, limit int, now time.Time) ([]*model.EventMember, error) {
	free, err := m.FreeSlots(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	if free <= 0 {
		return nil, nil
	}

	n := free
	if limit > 0 && int64(limit) < n {
		n = int64(limit)
	}
	if n > unlimitedBatch {
		n = unlimitedBatch
	}

	candidates, err := tx.Members().ListByStatusFIFO(ctx, e.ID, model.MemberStatusWaitlist, int(n))
	if err != nil {
		return nil, err
	}
	promoted := make([]*model.EventMember, 0, len(candidates))
	for _, c := range candidates {
		c.Status = model.MemberStatusJoined
		c.JoinedAt = now.Unix()
		if err := tx.Members().UpdateStatus(ctx, c); err != nil {
			return nil, err
		}
		promoted = append(promoted, c)
	}

	if _, err := m.Recount(ctx, tx, e); err != nil {
		return nil, err
	}
	return promoted, nil
}

// Recount 从 JOINED 成员数重算并回写 JoinedCount
func (m *Manager) Recount(ctx context.Context, tx model.Store, e *model.Event) (uint32, error) {
	joined, err := tx.Members().CountByStatus(ctx, e.ID, model.MemberStatusJoined)
	if err != nil {
		return 0, err
	}
	e.JoinedCount = uint32(joined)
	if err := tx.Events().UpdateJoinedCount(ctx, e.ID, e.JoinedCount); err != nil {
		return 0, err
	}
	return e.JoinedCount, nil
}

func (m *Manager) afterRelease(ctx context.Context, tx model.Store, e *model.Event, member *model.EventMember, wasJoined bool, now time.Time) (*Outcome, error) {
	out := &Outcome{Member: member, Changed: true}
	if wasJoined {
		promoted, err := m.Promote(ctx, tx, e, 0, now)
		if err != nil {
			return nil, err
		}
		out.Promoted = promoted
	}
	joined, err := m.Recount(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	out.JoinedCount = joined
	return out, nil
}

func (m *Manager) findMember(ctx context.Context, tx model.Store, eventID, userID int64) (*model.EventMember, error) {
	member, err := tx.Members().FindByEventUser(ctx, eventID, userID)
	if errors.Is(err, model.ErrMemberNotFound) {
		return nil, errorx.New(errorx.CodeMemberNotFound)
	}
	return member, err
}
