// Package modeltest 提供内存版 model.Store，供上层用例测试使用
package modeltest

import (
	"context"
	"sort"
	"sync"
	"time"

	"event-platform/app/event/model"
)

type state struct {
	nextID        int64
	events        map[int64]*model.Event
	members       map[int64]*model.EventMember
	notifications map[int64]*model.Notification
	auditLogs     map[int64]*model.EventAuditLog
}

func newState() *state {
	return &state{
		events:        map[int64]*model.Event{},
		members:       map[int64]*model.EventMember{},
		notifications: map[int64]*model.Notification{},
		auditLogs:     map[int64]*model.EventAuditLog{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for id, e := range s.events {
		c.events[id] = e.Clone()
	}
	for id, m := range s.members {
		v := *m
		c.members[id] = &v
	}
	for id, n := range s.notifications {
		v := *n
		c.notifications[id] = &v
	}
	for id, l := range s.auditLogs {
		v := *l
		c.auditLogs[id] = &v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store 内存版 Store
// 事务串行执行（相当于对所有活动加行锁），fn 返回错误时回滚到事务开始前的快照
type Store struct {
	txMu *sync.Mutex
	mu   *sync.Mutex
	st   **state
	inTx bool

	notifyErr *error
}

// NewStore 创建内存 Store
func NewStore() *Store {
	st := newState()
	var notifyErr error
	return &Store{
		txMu:      &sync.Mutex{},
		mu:        &sync.Mutex{},
		st:        &st,
		notifyErr: &notifyErr,
	}
}

func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx model.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := (*s.st).clone()
	s.mu.Unlock()

	tx := *s
	tx.inTx = true
	if err := fn(ctx, &tx); err != nil {
		s.mu.Lock()
		*s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Events() model.EventRepo {
	return eventRepo{s}
}

func (s *Store) Members() model.MemberRepo {
	return memberRepo{s}
}

func (s *Store) Notifications() model.NotificationRepo {
	return notificationRepo{s}
}

func (s *Store) AuditLogs() model.AuditLogRepo {
	return auditLogRepo{s}
}

// FailNotifications 之后的通知写入都返回 err（传 nil 恢复）
func (s *Store) FailNotifications(err error) {
	s.mu.Lock()
	*s.notifyErr = err
	s.mu.Unlock()
}

// ==================== 测试辅助查询 ====================

// Event 返回活动副本
func (s *Store) Event(id int64) *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := (*s.st).events[id]; ok {
		return e.Clone()
	}
	return nil
}

// MemberList 返回活动的全部成员（按 ID 升序）
func (s *Store) MemberList(eventID int64) []*model.EventMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.EventMember
	for _, m := range (*s.st).members {
		if m.EventID == eventID {
			v := *m
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NotificationList 返回全部通知（按 ID 升序）
func (s *Store) NotificationList() []*model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Notification
	for _, n := range (*s.st).notifications {
		v := *n
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AuditLogList 返回活动的审计日志（按 ID 升序）
func (s *Store) AuditLogList(eventID int64) []*model.EventAuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.EventAuditLog
	for _, l := range (*s.st).auditLogs {
		if l.EventID == eventID {
			v := *l
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func nowUnix() int64 {
	return time.Now().Unix()
}

// ==================== EventRepo ====================

type eventRepo struct{ s *Store }

func (r eventRepo) Insert(_ context.Context, event *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := *r.s.st
	event.ID = st.id()
	if event.CreatedAt == 0 {
		event.CreatedAt = nowUnix()
	}
	event.UpdatedAt = event.CreatedAt
	st.events[event.ID] = event.Clone()
	return nil
}

func (r eventRepo) FindByID(_ context.Context, id int64) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := (*r.s.st).events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return e.Clone(), nil
}

func (r eventRepo) FindByIDForUpdate(ctx context.Context, id int64) (*model.Event, error) {
	return r.FindByID(ctx, id)
}

func (r eventRepo) Save(_ context.Context, event *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := (*r.s.st).events[event.ID]
	if !ok || stored.Version != event.Version {
		return model.ErrEventConcurrentUpdate
	}
	next := event.Clone()
	next.OwnerID = stored.OwnerID
	next.CreatedAt = stored.CreatedAt
	next.AuditArchivedAt = stored.AuditArchivedAt
	next.Version = stored.Version + 1
	next.UpdatedAt = nowUnix()
	(*r.s.st).events[event.ID] = next
	event.Version++
	return nil
}

func (r eventRepo) UpdateJoinedCount(_ context.Context, id int64, joined uint32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := (*r.s.st).events[id]; ok {
		e.JoinedCount = joined
	}
	return nil
}

func (r eventRepo) ListDueScheduled(_ context.Context, now int64, limit int) ([]*model.Event, error) {
	return r.list(limit, func(e *model.Event) bool {
		return e.Status == model.EventStatusScheduled && e.PublishAt > 0 && e.PublishAt <= now &&
			e.CanceledAt == 0 && e.DeletedAt == 0
	}, func(a, b *model.Event) bool {
		if a.PublishAt != b.PublishAt {
			return a.PublishAt < b.PublishAt
		}
		return a.ID < b.ID
	}), nil
}

func (r eventRepo) ListArchivable(_ context.Context, before int64, limit int) ([]*model.Event, error) {
	return r.list(limit, func(e *model.Event) bool {
		return e.AuditArchivedAt == 0 &&
			((e.CanceledAt > 0 && e.CanceledAt <= before) || e.EndAt <= before)
	}, func(a, b *model.Event) bool {
		return a.ID < b.ID
	}), nil
}

func (r eventRepo) list(limit int, match func(*model.Event) bool, less func(a, b *model.Event) bool) []*model.Event {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Event
	for _, e := range (*r.s.st).events {
		if match(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r eventRepo) MarkAuditArchived(_ context.Context, id int64, at int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := (*r.s.st).events[id]; ok && e.AuditArchivedAt == 0 {
		e.AuditArchivedAt = at
	}
	return nil
}

func (r eventRepo) ClearAuditArchived(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := (*r.s.st).events[id]; ok {
		e.AuditArchivedAt = 0
	}
	return nil
}

// ==================== MemberRepo ====================

type memberRepo struct{ s *Store }

func (r memberRepo) Insert(_ context.Context, member *model.EventMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := *r.s.st
	for _, m := range st.members {
		if m.EventID == member.EventID && m.UserID == member.UserID {
			return model.ErrMemberExists
		}
	}
	member.ID = st.id()
	if member.CreatedAt == 0 {
		member.CreatedAt = nowUnix()
	}
	v := *member
	st.members[member.ID] = &v
	return nil
}

func (r memberRepo) FindByEventUser(_ context.Context, eventID, userID int64) (*model.EventMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range (*r.s.st).members {
		if m.EventID == eventID && m.UserID == userID {
			v := *m
			return &v, nil
		}
	}
	return nil, model.ErrMemberNotFound
}

func (r memberRepo) CountByStatus(_ context.Context, eventID int64, status int8) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range (*r.s.st).members {
		if m.EventID == eventID && m.Status == status {
			n++
		}
	}
	return n, nil
}

func (r memberRepo) CountJoinedByRole(_ context.Context, eventID int64, role int8) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range (*r.s.st).members {
		if m.EventID == eventID && m.Status == model.MemberStatusJoined && m.Role == role {
			n++
		}
	}
	return n, nil
}

func (r memberRepo) ListByStatusFIFO(_ context.Context, eventID int64, status int8, limit int) ([]*model.EventMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.EventMember
	for _, m := range (*r.s.st).members {
		if m.EventID == eventID && m.Status == status {
			v := *m
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QueuedAt != out[j].QueuedAt {
			return out[i].QueuedAt < out[j].QueuedAt
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memberRepo) ListUserIDsByStatuses(_ context.Context, eventID int64, statuses []int8) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[int8]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	var members []*model.EventMember
	for _, m := range (*r.s.st).members {
		if m.EventID == eventID && want[m.Status] {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	out := make([]int64, 0, len(members))
	for _, m := range members {
		out = append(out, m.UserID)
	}
	return out, nil
}

func (r memberRepo) UpdateStatus(_ context.Context, member *model.EventMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := (*r.s.st).members[member.ID]
	if !ok {
		return model.ErrMemberNotFound
	}
	stored.Role = member.Role
	stored.Status = member.Status
	stored.QueuedAt = member.QueuedAt
	stored.JoinedAt = member.JoinedAt
	stored.InvitedByID = member.InvitedByID
	stored.UpdatedAt = nowUnix()
	return nil
}

// ==================== NotificationRepo ====================

type notificationRepo struct{ s *Store }

func (r notificationRepo) InsertSkipDuplicates(_ context.Context, rows []*model.Notification) ([]*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := *r.s.notifyErr; err != nil {
		return nil, err
	}
	st := *r.s.st
	keys := map[string]bool{}
	for _, n := range st.notifications {
		keys[n.DedupeKey] = true
	}
	inserted := make([]*model.Notification, 0, len(rows))
	for _, row := range rows {
		if keys[row.DedupeKey] {
			continue
		}
		row.ID = st.id()
		if row.CreatedAt == 0 {
			row.CreatedAt = nowUnix()
		}
		v := *row
		st.notifications[row.ID] = &v
		keys[row.DedupeKey] = true
		inserted = append(inserted, row)
	}
	return inserted, nil
}

func (r notificationRepo) ListByRecipient(_ context.Context, recipientID int64, unreadOnly bool, offset, limit int) ([]*model.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Notification
	for _, n := range (*r.s.st).notifications {
		if n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
			v := *n
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	if offset >= len(out) {
		return []*model.Notification{}, total, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r notificationRepo) UnreadCount(_ context.Context, recipientID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, row := range (*r.s.st).notifications {
		if row.RecipientID == recipientID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r notificationRepo) MarkRead(_ context.Context, recipientID int64, ids []int64, at int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for _, row := range (*r.s.st).notifications {
		if row.RecipientID != recipientID || row.IsRead {
			continue
		}
		if len(ids) > 0 && !want[row.ID] {
			continue
		}
		row.IsRead = true
		row.ReadAt = at
		n++
	}
	return n, nil
}

// ==================== AuditLogRepo ====================

type auditLogRepo struct{ s *Store }

func (r auditLogRepo) Insert(_ context.Context, log *model.EventAuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := *r.s.st
	log.ID = st.id()
	if log.CreatedAt == 0 {
		log.CreatedAt = nowUnix()
	}
	v := *log
	st.auditLogs[log.ID] = &v
	return nil
}

func (r auditLogRepo) ListPage(_ context.Context, eventID, afterID int64, limit int) ([]*model.EventAuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.EventAuditLog
	for _, l := range (*r.s.st).auditLogs {
		if l.EventID == eventID && l.ID > afterID {
			v := *l
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r auditLogRepo) CountByEvent(_ context.Context, eventID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, l := range (*r.s.st).auditLogs {
		if l.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r auditLogRepo) DeleteUpTo(_ context.Context, eventID, maxID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, l := range (*r.s.st).auditLogs {
		if l.EventID == eventID && l.ID <= maxID {
			delete((*r.s.st).auditLogs, id)
			n++
		}
	}
	return n, nil
}
