package notify

import (
	"context"
	"encoding/json"

	"event-platform/app/event/model"
	"event-platform/common/constants"
)

// Page 通知分页结果
type Page struct {
	List   []*model.Notification
	Total  int64
	Unread int64
}

// List 拉取用户通知（推送丢失时以此为准）
func (n *Notifier) List(ctx context.Context, recipientID int64, unreadOnly bool, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}

	list, total, err := n.store.Notifications().ListByRecipient(ctx, recipientID, unreadOnly, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	unread, err := n.store.Notifications().UnreadCount(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return &Page{List: list, Total: total, Unread: unread}, nil
}

// MarkRead 标记已读（ids 为空表示全部），返回更新条数
// 有更新时推送角标变化
func (n *Notifier) MarkRead(ctx context.Context, recipientID int64, ids []int64) (int64, error) {
	affected, err := n.store.Notifications().MarkRead(ctx, recipientID, ids, n.now().Unix())
	if err != nil {
		return 0, err
	}
	if affected > 0 && n.pub != nil {
		badge, _ := json.Marshal(BadgeMessage{RecipientID: recipientID, ChangedAt: n.now().Unix()})
		n.publish(ctx, constants.NotificationBadgeTopic(recipientID), badge)
	}
	return affected, nil
}
