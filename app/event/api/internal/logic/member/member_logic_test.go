package member

import (
	"sync"
	"testing"
	"time"

	"event-platform/app/event/api/internal/logic/event"
	"event-platform/app/event/api/internal/logic/logictest"
	"event-platform/app/event/api/internal/types"
	"event-platform/app/event/model"
	"event-platform/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/limit"
)

const ownerID int64 = 1

func u32(v uint32) *uint32 { return &v }
func i32(v int32) *int32   { return &v }

func newEvent(t *testing.T, env *logictest.Env, maxCap uint32, mutate func(req *types.CreateEventReq)) int64 {
	t.Helper()
	req := &types.CreateEventReq{
		Title:       "羽毛球约局",
		StartAt:     logictest.Base.Add(2 * time.Hour).Unix(),
		EndAt:       logictest.Base.Add(4 * time.Hour).Unix(),
		Mode:        model.ModeGroup,
		MinCapacity: u32(1),
		MaxCapacity: u32(maxCap),
		MeetingKind: model.MeetingOnsite,
		Publish:     true,
	}
	lat, lng := 31.23, 121.47
	req.Latitude, req.Longitude = &lat, &lng
	if mutate != nil {
		mutate(req)
	}
	info, err := event.NewCreateEventLogic(logictest.As(ownerID), env.Svc).CreateEvent(req)
	require.NoError(t, err)
	return info.Id
}

func joinAs(env *logictest.Env, eventID, userID int64) (*types.MemberResp, error) {
	return NewJoinEventLogic(logictest.As(userID), env.Svc).JoinEvent(&types.EventIdReq{Id: eventID})
}

func assertCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errorx.Is(err, code), "want code %d, got %v", code, err)
}

func TestJoinAdmitsThenWaitlists(t *testing.T) {
	env := logictest.New(t)
	id := newEvent(t, env, 2, nil)

	resp, err := joinAs(env, id, 2)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, resp.Status)
	assert.Equal(t, uint32(2), resp.JoinedCount)

	resp, err = joinAs(env, id, 3)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusWaitlist, resp.Status)

	// 重复报名幂等
	resp, err = joinAs(env, id, 2)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, resp.Status)
	assert.Len(t, env.Store.AuditLogList(id), 4)

	// 退出后候补转正
	resp, err = NewLeaveEventLogic(logictest.As(2), env.Svc).LeaveEvent(&types.EventIdReq{Id: id})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusLeft, resp.Status)
	assert.Equal(t, []int64{3}, resp.Promoted)
	assert.Equal(t, uint32(2), resp.JoinedCount)
	assert.Len(t, env.Notifications(3, model.NotifyMemberPromoted), 1)
}

func TestConcurrentJoinOnLastSlot(t *testing.T) {
	env := logictest.New(t)
	id := newEvent(t, env, 2, func(req *types.CreateEventReq) {
		req.MinCapacity = u32(2)
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []int64{2, 3} {
		wg.Add(1)
		go func(i int, uid int64) {
			defer wg.Done()
			_, errs[i] = joinAs(env, id, uid)
		}(i, uid)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	statuses := env.Statuses(id)
	joined := 0
	for _, uid := range []int64{2, 3} {
		if statuses[uid] == model.MemberStatusJoined {
			joined++
		} else {
			assert.Equal(t, model.MemberStatusWaitlist, statuses[uid])
		}
	}
	assert.Equal(t, 1, joined)
	assert.Equal(t, uint32(2), env.Store.Event(id).JoinedCount)
}

func TestJoinPreconditions(t *testing.T) {
	env := logictest.New(t)

	t.Run("draft", func(t *testing.T) {
		id := newEvent(t, env, 10, func(req *types.CreateEventReq) { req.Publish = false })
		_, err := joinAs(env, id, 2)
		assertCode(t, err, errorx.CodeEventStatusInvalid)
	})

	t.Run("cutoff passed", func(t *testing.T) {
		id := newEvent(t, env, 10, func(req *types.CreateEventReq) {
			req.JoinCutoffMinutesBeforeStart = i32(150)
		})
		_, err := joinAs(env, id, 2)
		assertCode(t, err, errorx.CodeJoinWindowClosed)
	})

	t.Run("full without waitlist", func(t *testing.T) {
		waitlist := false
		id := newEvent(t, env, 1, func(req *types.CreateEventReq) { req.WaitlistEnabled = &waitlist })
		_, err := joinAs(env, id, 2)
		assertCode(t, err, errorx.CodeEventFull)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := joinAs(env, 9999, 2)
		assertCode(t, err, errorx.CodeEventNotFound)
	})
}

func TestApprovalFlow(t *testing.T) {
	env := logictest.New(t)
	id := newEvent(t, env, 10, func(req *types.CreateEventReq) { req.RequireApproval = true })

	resp, err := joinAs(env, id, 2)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusPending, resp.Status)
	assert.Len(t, env.Notifications(ownerID, model.NotifyJoinRequested), 1)

	_, err = NewReviewMemberLogic(logictest.As(3), env.Svc).ApproveMember(&types.MemberReq{Id: id, UserId: 2})
	assertCode(t, err, errorx.CodeEventPermissionDenied)

	resp, err = NewReviewMemberLogic(logictest.As(ownerID), env.Svc).ApproveMember(&types.MemberReq{Id: id, UserId: 2})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, resp.Status)
	assert.Equal(t, uint32(2), resp.JoinedCount)
	assert.Len(t, env.Notifications(2, model.NotifyMemberApproved), 1)

	_, err = joinAs(env, id, 4)
	require.NoError(t, err)
	resp, err = NewReviewMemberLogic(logictest.As(ownerID), env.Svc).RejectMember(&types.MemberReq{Id: id, UserId: 4})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusRejected, resp.Status)
	assert.Len(t, env.Notifications(4, model.NotifyMemberRejected), 1)

	_, err = joinAs(env, id, 4)
	assertCode(t, err, errorx.CodeMemberRejected)
}

func TestInviteSkipsApproval(t *testing.T) {
	env := logictest.New(t)
	id := newEvent(t, env, 10, func(req *types.CreateEventReq) { req.RequireApproval = true })

	resp, err := NewInviteMemberLogic(logictest.As(ownerID), env.Svc).InviteMember(&types.MemberReq{Id: id, UserId: 5})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusInvited, resp.Status)
	assert.Len(t, env.Notifications(5, model.NotifyMemberInvited), 1)

	resp, err = joinAs(env, id, 5)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, resp.Status)

	_, err = NewInviteMemberLogic(logictest.As(ownerID), env.Svc).InviteMember(&types.MemberReq{Id: id, UserId: 5})
	assertCode(t, err, errorx.CodeMemberStatusInvalid)

	// 普通参与者不能邀请
	_, err = NewInviteMemberLogic(logictest.As(5), env.Svc).InviteMember(&types.MemberReq{Id: id, UserId: 6})
	assertCode(t, err, errorx.CodeEventPermissionDenied)
}

func TestBanPromotesWaitlist(t *testing.T) {
	env := logictest.New(t)
	id := newEvent(t, env, 2, nil)
	_, err := joinAs(env, id, 2)
	require.NoError(t, err)
	_, err = joinAs(env, id, 3)
	require.NoError(t, err)

	resp, err := NewReviewMemberLogic(logictest.As(ownerID), env.Svc).BanMember(&types.MemberReq{Id: id, UserId: 2})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusBanned, resp.Status)
	assert.Equal(t, []int64{3}, resp.Promoted)

	_, err = joinAs(env, id, 2)
	assertCode(t, err, errorx.CodeMemberBanned)

	_, err = NewReviewMemberLogic(logictest.As(ownerID), env.Svc).BanMember(&types.MemberReq{Id: id, UserId: ownerID})
	assertCode(t, err, errorx.CodeMemberStatusInvalid)
}

func TestOwnerCannotLeave(t *testing.T) {
	env := logictest.New(t)
	id := newEvent(t, env, 10, nil)

	_, err := NewLeaveEventLogic(logictest.As(ownerID), env.Svc).LeaveEvent(&types.EventIdReq{Id: id})
	assertCode(t, err, errorx.CodeMemberStatusInvalid)

	_, err = NewLeaveEventLogic(logictest.As(8), env.Svc).LeaveEvent(&types.EventIdReq{Id: id})
	assertCode(t, err, errorx.CodeMemberNotFound)
}

func TestJoinRateLimited(t *testing.T) {
	env := logictest.New(t)
	id := newEvent(t, env, 100, nil)
	env.Svc.JoinLimiter = limit.NewTokenLimiter(1, 1, env.Svc.Redis, "test:event:join")

	limited := 0
	for uid := int64(2); uid < 7; uid++ {
		_, err := joinAs(env, id, uid)
		if errorx.Is(err, errorx.CodeTooManyRequests) {
			limited++
			continue
		}
		require.NoError(t, err)
	}
	assert.Greater(t, limited, 0)
}
