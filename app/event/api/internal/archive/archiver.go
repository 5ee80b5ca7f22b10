// Package archive 审计日志归档：导出 → 删除 → 标记
//
// 只有导出成功后才删除热数据；标记在最后一步设置，
// 中途崩溃时下一轮会重新导出尚未删除的行，对象 key 由首尾 ID 决定，重试会覆盖同一对象。
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-platform/app/event/model"
	"event-platform/common/coldstore"

	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultPageSize 导出时每页读取条数
const DefaultPageSize = 500

// Result 单个活动的归档结果
type Result struct {
	EventID int64
	// AlreadyArchived 之前已归档，本次未做任何事
	AlreadyArchived bool
	Rows            int
	Location        string
	// Remaining 导出期间新追加、留待下一轮的日志数
	Remaining int64
	Marked    bool
}

// Archiver 审计日志归档器
type Archiver struct {
	store    model.Store
	storage  coldstore.Storage
	pageSize int
	now      func() time.Time
}

// NewArchiver 创建归档器
func NewArchiver(store model.Store, storage coldstore.Storage, pageSize int) *Archiver {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Archiver{
		store:    store,
		storage:  storage,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (a *Archiver) WithClock(now func() time.Time) *Archiver {
	a.now = now
	return a
}

// ObjectKey 归档对象 key
func ObjectKey(eventID, firstID, lastID int64) string {
	return fmt.Sprintf("audit/event-%d/%d-%d.jsonl", eventID, firstID, lastID)
}

// Archive 归档一个活动的审计日志，已归档时直接返回
func (a *Archiver) Archive(ctx context.Context, eventID int64) (*Result, error) {
	start := time.Now()
	res, err := a.archive(ctx, eventID)
	observe(res, err, time.Since(start))
	return res, err
}

func (a *Archiver) archive(ctx context.Context, eventID int64) (*Result, error) {
	logger := logx.WithContext(ctx)
	res := &Result{EventID: eventID}

	event, err := a.store.Events().FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.AuditArchivedAt > 0 {
		res.AlreadyArchived = true
		return res, nil
	}

	data, firstID, lastID, rows, err := a.export(ctx, eventID)
	if err != nil {
		return nil, err
	}
	res.Rows = rows

	if rows > 0 {
		location, err := a.storage.Put(ctx, ObjectKey(eventID, firstID, lastID), data)
		if err != nil {
			return nil, fmt.Errorf("upload audit export: %w", err)
		}
		res.Location = location
	}

	err = a.store.Transact(ctx, func(ctx context.Context, tx model.Store) error {
		locked, err := tx.Events().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if locked.AuditArchivedAt > 0 {
			res.AlreadyArchived = true
			return nil
		}

		if rows > 0 {
			if _, err := tx.AuditLogs().DeleteUpTo(ctx, eventID, lastID); err != nil {
				return err
			}
		}
		remaining, err := tx.AuditLogs().CountByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		res.Remaining = remaining
		if remaining > 0 {
			return nil
		}
		res.Marked = true
		return tx.Events().MarkAuditArchived(ctx, eventID, a.now().Unix())
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("[Archive] 归档完成: event=%d, rows=%d, location=%s, remaining=%d",
		eventID, rows, res.Location, res.Remaining)
	return res, nil
}

// export 按 ID 升序分页读取并序列化为 JSON Lines
func (a *Archiver) export(ctx context.Context, eventID int64) ([]byte, int64, int64, int, error) {
	var (
		buf     bytes.Buffer
		enc     = json.NewEncoder(&buf)
		afterID int64
		firstID int64
		rows    int
	)
	for {
		page, err := a.store.AuditLogs().ListPage(ctx, eventID, afterID, a.pageSize)
		if err != nil {
			return nil, 0, 0, 0, err
		}
		for _, row := range page {
			if err := enc.Encode(row); err != nil {
				return nil, 0, 0, 0, fmt.Errorf("encode audit log %d: %w", row.ID, err)
			}
			if firstID == 0 {
				firstID = row.ID
			}
			afterID = row.ID
			rows++
		}
		if len(page) < a.pageSize {
			break
		}
	}
	return buf.Bytes(), firstID, afterID, rows, nil
}
