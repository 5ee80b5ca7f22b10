// Package lifecycle 活动状态机
//
// 状态流转：
//
//	DRAFT ──publish──▶ PUBLISHED ──unpublish──▶ DRAFT
//	DRAFT ──schedule─▶ SCHEDULED ──publish────▶ PUBLISHED
//	                   SCHEDULED ──unpublish──▶ DRAFT
//	任意状态 ──cancel──▶ 已取消（CanceledAt）──30天后 delete──▶ 已删除（DeletedAt）
//
// 取消、删除后活动只读；取消后仍允许下架（发布管理）。
// 这里只修改内存中的活动，持久化和副作用由调用方负责。
package lifecycle

import (
	"time"

	"event-platform/app/event/model"
	"event-platform/common/errorx"
)

// DeleteAfterCancel 取消多久后才能删除
const DeleteAfterCancel = 30 * 24 * time.Hour

// Transition 一次状态变更的结果，Changed=false 表示幂等命中，调用方不应产生副作用
type Transition struct {
	From    int8
	To      int8
	Changed bool
}

func unchanged(e *model.Event) Transition {
	return Transition{From: e.Status, To: e.Status}
}

// validTransitions 合法的状态流转
var validTransitions = map[int8][]int8{
	model.EventStatusDraft:     {model.EventStatusScheduled, model.EventStatusPublished},
	model.EventStatusScheduled: {model.EventStatusPublished, model.EventStatusDraft},
	model.EventStatusPublished: {model.EventStatusDraft},
}

// CanTransition 判断状态流转是否合法
func CanTransition(from, to int8) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EnsureMutable 已取消或已删除的活动不能修改
func EnsureMutable(e *model.Event) error {
	if e.IsDeleted() {
		return errorx.NewWithMessage(errorx.CodeEventReadOnly, "活动已删除，不能修改")
	}
	if e.IsCanceled() {
		return errorx.NewWithMessage(errorx.CodeEventReadOnly, "活动已取消，不能修改")
	}
	return nil
}

// Publish 发布活动，已发布时幂等返回
func Publish(e *model.Event, now time.Time) (Transition, error) {
	if err := EnsureMutable(e); err != nil {
		return Transition{}, err
	}
	if e.Status == model.EventStatusPublished {
		return unchanged(e), nil
	}
	if !CanTransition(e.Status, model.EventStatusPublished) {
		return Transition{}, errorx.New(errorx.CodeEventStatusInvalid)
	}

	t := Transition{From: e.Status, To: model.EventStatusPublished, Changed: true}
	e.Status = model.EventStatusPublished
	e.PublishAt = now.Unix()
	return t, nil
}

// Unpublish 下架（或取消定时发布）回到草稿，取消后的活动同样允许
func Unpublish(e *model.Event) (Transition, error) {
	if e.IsDeleted() {
		return Transition{}, errorx.NewWithMessage(errorx.CodeEventReadOnly, "活动已删除，不能修改")
	}
	if e.Status == model.EventStatusDraft {
		return unchanged(e), nil
	}

	t := Transition{From: e.Status, To: model.EventStatusDraft, Changed: true}
	e.Status = model.EventStatusDraft
	e.PublishAt = 0
	return t, nil
}

// SchedulePublication 设置定时发布，publishAt 必须在 (now, startAt) 之间
func SchedulePublication(e *model.Event, publishAt int64, now time.Time) (Transition, error) {
	if err := EnsureMutable(e); err != nil {
		return Transition{}, err
	}
	switch e.Status {
	case model.EventStatusScheduled:
		return Transition{}, errorx.New(errorx.CodeEventAlreadyScheduled)
	case model.EventStatusPublished:
		return Transition{}, errorx.New(errorx.CodeEventAlreadyPublished)
	}
	if publishAt <= now.Unix() || publishAt >= e.StartAt {
		return Transition{}, errorx.New(errorx.CodeEventPublishAtInvalid)
	}

	t := Transition{From: e.Status, To: model.EventStatusScheduled, Changed: true}
	e.Status = model.EventStatusScheduled
	e.PublishAt = publishAt
	return t, nil
}

// Cancel 取消活动，重复取消幂等返回
func Cancel(e *model.Event, actorID int64, reason string, now time.Time) (Transition, error) {
	if e.IsDeleted() {
		return Transition{}, errorx.NewWithMessage(errorx.CodeEventReadOnly, "活动已删除，不能修改")
	}
	if e.IsCanceled() {
		return unchanged(e), nil
	}

	e.CanceledAt = now.Unix()
	e.CanceledByID = actorID
	e.CancelReason = reason
	return Transition{From: e.Status, To: e.Status, Changed: true}, nil
}

// SoftDelete 软删除，要求已取消且满 30 天
func SoftDelete(e *model.Event, actorID int64, reason string, now time.Time) (Transition, error) {
	if e.IsDeleted() {
		return Transition{}, errorx.NewWithMessage(errorx.CodeEventReadOnly, "活动已删除")
	}
	if !e.IsCanceled() {
		return Transition{}, errorx.NewWithMessage(errorx.CodeEventDeleteTooEarly, "活动需要先取消才能删除")
	}
	if now.Sub(time.Unix(e.CanceledAt, 0)) < DeleteAfterCancel {
		return Transition{}, errorx.New(errorx.CodeEventDeleteTooEarly)
	}

	e.DeletedAt = now.Unix()
	e.DeletedByID = actorID
	e.DeleteReason = reason
	return Transition{From: e.Status, To: e.Status, Changed: true}, nil
}
