package model

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(gdb), mock
}

func TestEventFindByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `events` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Events().FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventFindByIDForUpdateLocksRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM ` + "`events`" + ` WHERE id = \? .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status", "start_at", "end_at", "version"}).
			AddRow(7, 100, EventStatusPublished, 2000, 3000, 3))

	event, err := store.Events().FindByIDForUpdate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(100), event.OwnerID)
	assert.Equal(t, uint32(3), event.Version)
	assert.True(t, event.IsPublished())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventSaveOptimisticLock(t *testing.T) {
	store, mock := newMockStore(t)
	event := &Event{ID: 7, Title: "x", Version: 3}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `events` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := store.Events().Save(context.Background(), event)
	assert.ErrorIs(t, err, ErrEventConcurrentUpdate)
	assert.Equal(t, uint32(3), event.Version)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `events` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Events().Save(context.Background(), event))
	assert.Equal(t, uint32(4), event.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberInsertDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `event_members`")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.Members().Insert(context.Background(), &EventMember{EventID: 1, UserID: 2, Status: MemberStatusJoined})
	assert.ErrorIs(t, err, ErrMemberExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberCountByStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `event_members` WHERE event_id = ? AND status = ?")).
		WithArgs(int64(1), MemberStatusJoined).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(5))

	n, err := store.Members().CountByStatus(context.Background(), 1, MemberStatusJoined)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationInsertSkipDuplicates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `notifications`")).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `notifications`")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	rows := []*Notification{
		{Kind: NotifyEventCanceled, RecipientID: 1, EntityType: EntityTypeEvent, EntityID: 9, DedupeKey: "a"},
		{Kind: NotifyEventCanceled, RecipientID: 2, EntityType: EntityTypeEvent, EntityID: 9, DedupeKey: "b"},
	}
	inserted, err := store.Notifications().InsertSkipDuplicates(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, int64(10), inserted[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationInsertOtherErrorStops(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `notifications`")).
		WillReturnError(errors.New("connection reset"))

	_, err := store.Notifications().InsertSkipDuplicates(context.Background(), []*Notification{{DedupeKey: "a"}, {DedupeKey: "b"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogDeleteUpTo(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `event_audit_logs` WHERE event_id = ? AND id <= ?")).
		WithArgs(int64(3), int64(120)).
		WillReturnResult(sqlmock.NewResult(0, 20))

	n, err := store.AuditLogs().DeleteUpTo(context.Background(), 3, 120)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactRollback(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `event_audit_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.Transact(context.Background(), func(ctx context.Context, tx Store) error {
		if err := tx.AuditLogs().Insert(ctx, &EventAuditLog{EventID: 1, Action: AuditActionCreate}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactCommit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `events` SET `audit_archived_at`=")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Transact(context.Background(), func(ctx context.Context, tx Store) error {
		return tx.Events().MarkAuditArchived(ctx, 1, 1700000000)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventListDueScheduledQuery(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `events` WHERE (status = ? AND publish_at > 0 AND publish_at <= ?) AND (canceled_at = 0 AND deleted_at = 0) ORDER BY publish_at ASC, id ASC LIMIT")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "publish_at"}).
			AddRow(3, EventStatusScheduled, 1700000000))

	events, err := store.Events().ListDueScheduled(context.Background(), 1700000100, 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(3), events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventListArchivableQuery(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `events` WHERE audit_archived_at = 0 AND ((canceled_at > 0 AND canceled_at <= ?) OR end_at <= ?) ORDER BY id ASC LIMIT")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "canceled_at", "end_at"}).
			AddRow(5, 1690000000, 1700000000).
			AddRow(6, 0, 1690000000))

	events, err := store.Events().ListArchivable(context.Background(), 1695000000, 20)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(5), events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventClearAuditArchived(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `events` SET `audit_archived_at`=?") + ".*" +
		regexp.QuoteMeta("WHERE id = ? AND audit_archived_at > 0")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Events().ClearAuditArchived(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}
