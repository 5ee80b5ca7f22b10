package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-platform/app/event/model"
	"event-platform/common/constants"
	"event-platform/common/utils/idgen"

	"github.com/zeromicro/go-zero/core/logx"
)

// publishTimeout 单条推送超时
const publishTimeout = 3 * time.Second

// Publisher 推送通道（messaging.Client 实现）
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Request 一次通知扇出请求
type Request struct {
	Recipients []int64
	Kind       string
	// ActorID 触发人，不会通知自己；0 表示系统
	ActorID    int64
	EntityType string
	EntityID   int64
	// Version 参与去重键计算，同一 (Kind, 接收人, 实体, Version) 只会落库一次
	Version interface{}
	Data    interface{}
}

// Notifier 通知扇出
// 落库是权威结果；推送只做一次尽力投递，失败只记日志，客户端可以拉取补齐
type Notifier struct {
	store model.Store
	pub   Publisher
	now   func() time.Time
}

// NewNotifier 创建通知扇出器，pub 为 nil 时只落库不推送
func NewNotifier(store model.Store, pub Publisher) *Notifier {
	return &Notifier{
		store: store,
		pub:   pub,
		now:   time.Now,
	}
}

// Notify 落库并推送，返回本次实际新增的通知
func (n *Notifier) Notify(ctx context.Context, req Request) ([]*model.Notification, error) {
	recipients := dedupeRecipients(req.Recipients, req.ActorID)
	if len(recipients) == 0 {
		return nil, nil
	}

	var data json.RawMessage
	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal notification data: %w", err)
		}
		data = raw
	}

	entityType := req.EntityType
	if entityType == "" {
		entityType = model.EntityTypeEvent
	}

	rows := make([]*model.Notification, 0, len(recipients))
	for _, rid := range recipients {
		rows = append(rows, &model.Notification{
			Kind:        req.Kind,
			RecipientID: rid,
			ActorID:     req.ActorID,
			EntityType:  entityType,
			EntityID:    req.EntityID,
			DedupeKey:   idgen.DedupeKey(req.Kind, rid, req.EntityID, req.Version),
			Data:        data,
		})
	}

	inserted, err := n.store.Notifications().InsertSkipDuplicates(ctx, rows)
	if err != nil {
		return nil, err
	}
	notifyTotal.WithLabelValues(req.Kind).Add(float64(len(inserted)))
	if skipped := len(rows) - len(inserted); skipped > 0 {
		logx.WithContext(ctx).Infof("[Notify] 跳过重复通知: kind=%s, entity=%d, skipped=%d", req.Kind, req.EntityID, skipped)
	}

	for _, row := range inserted {
		n.push(ctx, row)
	}
	return inserted, nil
}

// push 推送新通知与角标变化，失败只记日志
func (n *Notifier) push(ctx context.Context, row *model.Notification) {
	if n.pub == nil {
		return
	}

	added, err := json.Marshal(AddedMessage{
		ID:         row.ID,
		Kind:       row.Kind,
		ActorID:    row.ActorID,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		Data:       row.Data,
		CreatedAt:  row.CreatedAt,
	})
	if err != nil {
		logx.WithContext(ctx).Errorf("[Notify] 序列化失败: id=%d, err=%v", row.ID, err)
		return
	}
	n.publish(ctx, constants.NotificationAddedTopic(row.RecipientID), added)

	badge, _ := json.Marshal(BadgeMessage{RecipientID: row.RecipientID, ChangedAt: n.now().Unix()})
	n.publish(ctx, constants.NotificationBadgeTopic(row.RecipientID), badge)
}

func (n *Notifier) publish(ctx context.Context, topic string, payload []byte) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := n.pub.Publish(pubCtx, topic, payload); err != nil {
		pushFailedTotal.Inc()
		logx.WithContext(ctx).Errorf("[Notify] 推送失败: topic=%s, err=%v", topic, err)
	}
}

// dedupeRecipients 去重并排除触发人，保持原有顺序
func dedupeRecipients(ids []int64, actorID int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || (actorID > 0 && id == actorID) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
