package capacity

import (
	"context"
	"sync"
	"testing"
	"time"

	"event-platform/app/event/model"
	"event-platform/app/event/model/modeltest"
	"event-platform/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newEvent(t *testing.T, store *modeltest.Store, mode int8, max uint32, mutate func(e *model.Event)) *model.Event {
	t.Helper()
	e := &model.Event{
		OwnerID:         1,
		Title:           "周末读书会",
		Status:          model.EventStatusPublished,
		StartAt:         now.Add(24 * time.Hour).Unix(),
		EndAt:           now.Add(26 * time.Hour).Unix(),
		Mode:            mode,
		MaxCapacity:     &max,
		MeetingKind:     model.MeetingOnline,
		MeetingURL:      "https://meet.example.com/abc",
		WaitlistEnabled: true,
	}
	if mutate != nil {
		mutate(e)
	}
	require.NoError(t, store.Events().Insert(context.Background(), e))

	_, err := withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return NewManager().SeatOwner(ctx, tx, e, now)
	})
	require.NoError(t, err)
	return store.Event(e.ID)
}

func withEvent(store model.Store, eventID int64, fn func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error)) (*Outcome, error) {
	var out *Outcome
	err := store.Transact(context.Background(), func(ctx context.Context, tx model.Store) error {
		e, err := tx.Events().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		out, err = fn(ctx, tx, e)
		return err
	})
	return out, err
}

func join(store model.Store, eventID, userID int64, at time.Time) (*Outcome, error) {
	return withEvent(store, eventID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return NewManager().Join(ctx, tx, e, userID, at)
	})
}

func statuses(store *modeltest.Store, eventID int64) map[int64]int8 {
	out := map[int64]int8{}
	for _, m := range store.MemberList(eventID) {
		out[m.UserID] = m.Status
	}
	return out
}

func TestJoinAdmitsThenWaitlists(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 3, nil)

	out, err := join(store, e.ID, 2, now)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, out.Member.Status)

	out, err = join(store, e.ID, 3, now)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, out.Member.Status)
	assert.Equal(t, uint32(3), out.JoinedCount)

	out, err = join(store, e.ID, 4, now)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusWaitlist, out.Member.Status)
	assert.Equal(t, uint32(3), store.Event(e.ID).JoinedCount)

	// 重复报名幂等
	out, err = join(store, e.ID, 4, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, now.Unix(), out.Member.QueuedAt)
}

func TestJoinFullWithoutWaitlist(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 2, func(e *model.Event) { e.WaitlistEnabled = false })

	_, err := join(store, e.ID, 2, now)
	require.NoError(t, err)

	_, err = join(store, e.ID, 3, now)
	assert.True(t, errorx.Is(err, errorx.CodeEventFull))
	assert.Len(t, store.MemberList(e.ID), 2)
}

func TestConcurrentJoinLastSlot(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 2, func(e *model.Event) { e.WaitlistEnabled = false })

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		full    int
	)
	for _, uid := range []int64{2, 3} {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, err := join(store, e.ID, uid, now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errorx.Is(err, errorx.CodeEventFull):
				full++
			}
		}(uid)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, full)
	assert.Equal(t, uint32(2), store.Event(e.ID).JoinedCount)
}

func TestRequireApproval(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 2, func(e *model.Event) { e.RequireApproval = true })
	m := NewManager()

	out, err := join(store, e.ID, 2, now)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusPending, out.Member.Status)

	out, err = join(store, e.ID, 3, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusPending, out.Member.Status)

	out, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Approve(ctx, tx, e, 2, now)
	})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, out.Member.Status)

	// 名额已满，审批通过后进入候补
	out, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Approve(ctx, tx, e, 3, now)
	})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusWaitlist, out.Member.Status)

	_, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Approve(ctx, tx, e, 99, now)
	})
	assert.True(t, errorx.Is(err, errorx.CodeMemberNotFound))
}

func TestRejectedAndBannedCannotJoin(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 5, func(e *model.Event) { e.RequireApproval = true })
	m := NewManager()

	_, err := join(store, e.ID, 2, now)
	require.NoError(t, err)
	_, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Reject(ctx, tx, e, 2)
	})
	require.NoError(t, err)
	_, err = join(store, e.ID, 2, now)
	assert.True(t, errorx.Is(err, errorx.CodeMemberRejected))

	_, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Ban(ctx, tx, e, 3, now)
	})
	require.NoError(t, err)
	_, err = join(store, e.ID, 3, now)
	assert.True(t, errorx.Is(err, errorx.CodeMemberBanned))

	_, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Ban(ctx, tx, e, 1, now)
	})
	assert.True(t, errorx.Is(err, errorx.CodeMemberStatusInvalid))
}

func TestLeavePromotesFIFO(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 2, nil)

	_, err := join(store, e.ID, 2, now)
	require.NoError(t, err)
	for i, uid := range []int64{5, 3, 4} {
		_, err := join(store, e.ID, uid, now.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
	}

	out, err := withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return NewManager().Leave(ctx, tx, e, 2, now.Add(time.Hour))
	})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusLeft, out.Member.Status)
	require.Len(t, out.Promoted, 1)
	assert.Equal(t, int64(5), out.Promoted[0].UserID)
	assert.Equal(t, uint32(2), out.JoinedCount)

	got := statuses(store, e.ID)
	assert.Equal(t, model.MemberStatusWaitlist, got[3])
	assert.Equal(t, model.MemberStatusWaitlist, got[4])

	// 退出的用户可以重新报名
	out, err = join(store, e.ID, 2, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusWaitlist, out.Member.Status)

	_, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return NewManager().Leave(ctx, tx, e, 1, now)
	})
	assert.True(t, errorx.Is(err, errorx.CodeMemberStatusInvalid))
}

func TestPromoteAfterCapacityRaise(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeCustom, 10, nil)

	for uid := int64(2); uid <= 10; uid++ {
		_, err := join(store, e.ID, uid, now)
		require.NoError(t, err)
	}
	for i := 0; i < 7; i++ {
		_, err := join(store, e.ID, int64(100+i), now.Add(time.Duration(i+1)*time.Second))
		require.NoError(t, err)
	}
	require.Equal(t, uint32(10), store.Event(e.ID).JoinedCount)

	var promoted []*model.EventMember
	err := store.Transact(context.Background(), func(ctx context.Context, tx model.Store) error {
		e, err := tx.Events().FindByIDForUpdate(ctx, e.ID)
		if err != nil {
			return err
		}
		max := uint32(15)
		e.MaxCapacity = &max
		if err := tx.Events().Save(ctx, e); err != nil {
			return err
		}
		promoted, err = NewManager().Promote(ctx, tx, e, 0, now)
		return err
	})
	require.NoError(t, err)

	require.Len(t, promoted, 5)
	for i, m := range promoted {
		assert.Equal(t, int64(100+i), m.UserID)
	}
	assert.Equal(t, uint32(15), store.Event(e.ID).JoinedCount)
	got := statuses(store, e.ID)
	assert.Equal(t, model.MemberStatusWaitlist, got[105])
	assert.Equal(t, model.MemberStatusWaitlist, got[106])
}

func TestOneToOneCeiling(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeOneToOne, 2, nil)

	out, err := join(store, e.ID, 2, now)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, out.Member.Status)

	out, err = join(store, e.ID, 3, now)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusWaitlist, out.Member.Status)
	assert.Equal(t, uint32(2), store.Event(e.ID).JoinedCount)
}

func TestInviteThenAccept(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 3, func(e *model.Event) { e.RequireApproval = true })
	m := NewManager()

	out, err := withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Invite(ctx, tx, e, 1, 2, now)
	})
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusInvited, out.Member.Status)
	assert.Equal(t, int64(1), out.Member.InvitedByID)
	assert.Equal(t, uint32(1), store.Event(e.ID).JoinedCount)

	// 受邀者接受邀请不需要审批
	out, err = join(store, e.ID, 2, now)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusJoined, out.Member.Status)

	_, err = withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return m.Invite(ctx, tx, e, 1, 2, now)
	})
	assert.True(t, errorx.Is(err, errorx.CodeMemberStatusInvalid))
}

func TestBanJoinedMemberPromotes(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeGroup, 2, nil)

	_, err := join(store, e.ID, 2, now)
	require.NoError(t, err)
	_, err = join(store, e.ID, 3, now.Add(time.Minute))
	require.NoError(t, err)

	out, err := withEvent(store, e.ID, func(ctx context.Context, tx model.Store, e *model.Event) (*Outcome, error) {
		return NewManager().Ban(ctx, tx, e, 2, now)
	})
	require.NoError(t, err)
	require.Len(t, out.Promoted, 1)
	assert.Equal(t, int64(3), out.Promoted[0].UserID)
	assert.Equal(t, uint32(2), out.JoinedCount)
}

func TestUnlimitedCapacity(t *testing.T) {
	store := modeltest.NewStore()
	e := newEvent(t, store, model.ModeCustom, 0, func(e *model.Event) { e.MaxCapacity = nil })

	for uid := int64(2); uid < 30; uid++ {
		out, err := join(store, e.ID, uid, now)
		require.NoError(t, err)
		assert.Equal(t, model.MemberStatusJoined, out.Member.Status)
	}
	assert.Equal(t, uint32(29), store.Event(e.ID).JoinedCount)
}
