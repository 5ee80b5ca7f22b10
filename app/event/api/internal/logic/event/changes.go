package event

import (
	"event-platform/app/event/model"
)

// changedFields 逐字段比较更新前后的活动，返回发生变化的字段名（接口字段名）
func changedFields(before, after *model.Event) []string {
	var fields []string
	add := func(changed bool, name string) {
		if changed {
			fields = append(fields, name)
		}
	}

	add(before.Title != after.Title, "title")
	add(before.Description != after.Description, "description")
	add(before.StartAt != after.StartAt, "startAt")
	add(before.EndAt != after.EndAt, "endAt")
	add(before.Mode != after.Mode, "mode")
	add(!equalUint32(before.MinCapacity, after.MinCapacity), "minCapacity")
	add(!equalUint32(before.MaxCapacity, after.MaxCapacity), "maxCapacity")
	add(before.MeetingKind != after.MeetingKind, "meetingKind")
	add(before.MeetingURL != after.MeetingURL, "meetingUrl")
	add(!equalFloat64(before.Latitude, after.Latitude) || !equalFloat64(before.Longitude, after.Longitude), "location")
	add(!equalInt32(before.JoinOpensMinutesBeforeStart, after.JoinOpensMinutesBeforeStart), "joinOpensMinutesBeforeStart")
	add(!equalInt32(before.JoinCutoffMinutesBeforeStart, after.JoinCutoffMinutesBeforeStart), "joinCutoffMinutesBeforeStart")
	add(!equalInt32(before.LateJoinCutoffMinutesAfterStart, after.LateJoinCutoffMinutesAfterStart), "lateJoinCutoffMinutesAfterStart")
	add(before.AllowJoinLate != after.AllowJoinLate, "allowJoinLate")
	add(before.RequireApproval != after.RequireApproval, "requireApproval")
	add(before.WaitlistEnabled != after.WaitlistEnabled, "waitlistEnabled")
	return fields
}

func containsField(fields []string, names ...string) bool {
	for _, f := range fields {
		for _, n := range names {
			if f == n {
				return true
			}
		}
	}
	return false
}

func equalUint32(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt32(a, b *int32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalFloat64(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
