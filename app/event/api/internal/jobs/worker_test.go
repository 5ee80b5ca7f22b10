package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"event-platform/app/event/api/internal/notify"
	"event-platform/app/event/model"
	"event-platform/app/event/model/modeltest"
	"event-platform/common/delayqueue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, store *modeltest.Store, startAt time.Time) *model.Event {
	t.Helper()
	ctx := context.Background()
	e := &model.Event{
		OwnerID: 1,
		Title:   "周末读书会",
		Status:  model.EventStatusPublished,
		StartAt: startAt.Unix(),
		EndAt:   startAt.Add(2 * time.Hour).Unix(),
		Mode:    model.ModeGroup,
	}
	require.NoError(t, store.Events().Insert(ctx, e))
	for uid, status := range map[int64]int8{
		1: model.MemberStatusJoined,
		2: model.MemberStatusJoined,
		3: model.MemberStatusWaitlist,
		4: model.MemberStatusJoined,
	} {
		role := model.RoleParticipant
		if uid == 1 {
			role = model.RoleOwner
		}
		require.NoError(t, store.Members().Insert(ctx, &model.EventMember{EventID: e.ID, UserID: uid, Role: role, Status: status}))
	}
	return e
}

func reminderJob(t *testing.T, e *model.Event, offset time.Duration) delayqueue.Job {
	payload, err := json.Marshal(Payload{
		EventID:       e.ID,
		Kind:          KindReminder,
		OffsetSeconds: int64(offset / time.Second),
		StartAt:       e.StartAt,
	})
	require.NoError(t, err)
	return delayqueue.Job{ID: ReminderJobID(e.ID, offset), Payload: payload, Attempt: 1}
}

func recipientsOf(rows []*model.Notification) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.RecipientID)
	}
	return out
}

func TestWorkerRemindsJoinedMembersOnce(t *testing.T) {
	store := modeltest.NewStore()
	worker := NewWorker(store, notify.NewNotifier(store, nil))
	e := seedEvent(t, store, base.Add(time.Hour))
	ctx := context.Background()

	job := reminderJob(t, e, time.Hour)
	require.NoError(t, worker.Execute(ctx, job))
	// 至少一次投递：重复执行不会重复通知
	require.NoError(t, worker.Execute(ctx, job))

	rows := store.NotificationList()
	assert.ElementsMatch(t, []int64{1, 2, 4}, recipientsOf(rows))
	for _, r := range rows {
		assert.Equal(t, model.NotifyEventReminder, r.Kind)
	}
}

func TestWorkerSkipsStaleJobs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(e *model.Event)
	}{
		{name: "canceled", mutate: func(e *model.Event) { e.CanceledAt = base.Unix() }},
		{name: "deleted", mutate: func(e *model.Event) { e.CanceledAt = base.Unix(); e.DeletedAt = base.Unix() }},
		{name: "unpublished", mutate: func(e *model.Event) { e.Status = model.EventStatusDraft }},
		{name: "rescheduled", mutate: func(e *model.Event) { e.StartAt += 7200; e.EndAt += 7200 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := modeltest.NewStore()
			worker := NewWorker(store, notify.NewNotifier(store, nil))
			e := seedEvent(t, store, base.Add(time.Hour))
			job := reminderJob(t, e, time.Hour)

			tt.mutate(e)
			require.NoError(t, store.Events().Save(ctx, e))

			require.NoError(t, worker.Execute(ctx, job))
			assert.Empty(t, store.NotificationList())
		})
	}
}

func TestWorkerMissingEventAndBadPayload(t *testing.T) {
	store := modeltest.NewStore()
	worker := NewWorker(store, notify.NewNotifier(store, nil))
	ctx := context.Background()

	assert.NoError(t, worker.Execute(ctx, delayqueue.Job{ID: "x", Payload: []byte(`{"event_id":999,"kind":"reminder"}`)}))
	assert.NoError(t, worker.Execute(ctx, delayqueue.Job{ID: "y", Payload: []byte(`not json`)}))
}

func TestWorkerFeedbackSkipsOwner(t *testing.T) {
	store := modeltest.NewStore()
	worker := NewWorker(store, notify.NewNotifier(store, nil))
	e := seedEvent(t, store, base.Add(-3*time.Hour))

	payload, err := json.Marshal(Payload{EventID: e.ID, Kind: KindFeedback, OffsetSeconds: 3600, EndAt: e.EndAt})
	require.NoError(t, err)
	require.NoError(t, worker.Execute(context.Background(), delayqueue.Job{ID: "f", Payload: payload}))

	rows := store.NotificationList()
	assert.ElementsMatch(t, []int64{2, 4}, recipientsOf(rows))
}

func TestWorkerNotifyFailureRetries(t *testing.T) {
	store := modeltest.NewStore()
	worker := NewWorker(store, notify.NewNotifier(store, nil))
	e := seedEvent(t, store, base.Add(time.Hour))
	store.FailNotifications(assert.AnError)

	assert.Error(t, worker.Execute(context.Background(), reminderJob(t, e, time.Hour)))
}

func TestEngineAndWorkerThroughQueue(t *testing.T) {
	engine, q, c := newTestEngine(t)
	store := modeltest.NewStore()
	worker := NewWorker(store, notify.NewNotifier(store, nil))
	q.OnExecute(worker.Execute)
	ctx := context.Background()

	e := seedEvent(t, store, base.Add(20*time.Minute))
	n, err := engine.EnqueueReminders(ctx, e.ID, e.StartAt)
	require.NoError(t, err)
	require.Equal(t, 10, n) // 15m 与 9m..1m

	c.Set(base.Add(6 * time.Minute))
	ran, err := q.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.Len(t, store.NotificationList(), 3)

	// 活动取消后到期的任务不再产生通知
	e = store.Event(e.ID)
	e.CanceledAt = c.Now().Unix()
	require.NoError(t, store.Events().Save(ctx, e))

	c.Set(base.Add(20 * time.Minute))
	ran, err = q.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, ran)
	assert.Len(t, store.NotificationList(), 3)
}
