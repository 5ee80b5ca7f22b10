// Package validate 活动字段校验（纯函数，无 I/O）
// 更新时必须传入合并后的完整活动，不能只校验补丁字段
package validate

import (
	"fmt"
	"time"

	"event-platform/app/event/model"
	"event-platform/common/errorx"
)

const (
	// MinLeadTime 创建时开始时间至少晚于当前时间
	MinLeadTime = 5 * time.Minute
	// MaxJoinWindowMinutes 报名窗口字段上限（7 天）
	MaxJoinWindowMinutes = 10080
	// OneToOneCapacity 一对一固定人数
	OneToOneCapacity = 2
	// GroupMaxCapacity 小组模式人数上限
	GroupMaxCapacity = 50
	// CustomMaxCapacity 自定义模式人数上限
	CustomMaxCapacity = 99999
)

// TimeWindow 校验开始/结束时间
func TimeWindow(startAt, endAt int64, now time.Time, creating bool) error {
	if startAt <= 0 {
		return errorx.ErrInvalidField("startAt", "开始时间不能为空")
	}
	if endAt <= startAt {
		return errorx.ErrInvalidField("endAt", "结束时间必须晚于开始时间")
	}
	if creating && startAt < now.Add(MinLeadTime).Unix() {
		return errorx.ErrInvalidField("startAt", "开始时间至少在5分钟之后")
	}
	return nil
}

// NormalizeCapacity 一对一模式未填写人数时补成 2
func NormalizeCapacity(mode int8, min, max *uint32) (*uint32, *uint32) {
	if mode != model.ModeOneToOne {
		return min, max
	}
	if min == nil {
		v := uint32(OneToOneCapacity)
		min = &v
	}
	if max == nil {
		v := uint32(OneToOneCapacity)
		max = &v
	}
	return min, max
}

// Capacity 按参与模式校验人数
func Capacity(mode int8, min, max *uint32) error {
	switch mode {
	case model.ModeOneToOne:
		if min == nil || *min != OneToOneCapacity {
			return errorx.ErrInvalidField("minCapacity", "一对一活动人数必须为2")
		}
		if max == nil || *max != OneToOneCapacity {
			return errorx.ErrInvalidField("maxCapacity", "一对一活动人数必须为2")
		}
	case model.ModeGroup:
		if min == nil {
			return errorx.ErrInvalidField("minCapacity", "小组活动必须填写最少人数")
		}
		if max == nil {
			return errorx.ErrInvalidField("maxCapacity", "小组活动必须填写最多人数")
		}
		if *min < 1 {
			return errorx.ErrInvalidField("minCapacity", "最少人数不能小于1")
		}
		if *max > GroupMaxCapacity {
			return errorx.ErrInvalidField("maxCapacity", fmt.Sprintf("小组活动最多%d人", GroupMaxCapacity))
		}
		if *min > *max {
			return errorx.ErrInvalidField("minCapacity", "最少人数不能大于最多人数")
		}
	case model.ModeCustom:
		if min != nil && *min < 1 {
			return errorx.ErrInvalidField("minCapacity", "最少人数不能小于1")
		}
		if max != nil && (*max < 1 || *max > CustomMaxCapacity) {
			return errorx.ErrInvalidField("maxCapacity", fmt.Sprintf("最多人数必须在1到%d之间", CustomMaxCapacity))
		}
		if min != nil && max != nil && *min > *max {
			return errorx.ErrInvalidField("minCapacity", "最少人数不能大于最多人数")
		}
	default:
		return errorx.ErrInvalidField("mode", "参与模式无效")
	}
	return nil
}

// JoinWindowFields 报名窗口字段
type JoinWindowFields struct {
	OpensMinutesBeforeStart     *int32
	CutoffMinutesBeforeStart    *int32
	LateCutoffMinutesAfterStart *int32
	AllowJoinLate               bool
}

// JoinWindowOf 取活动的报名窗口字段
func JoinWindowOf(e *model.Event) JoinWindowFields {
	return JoinWindowFields{
		OpensMinutesBeforeStart:     e.JoinOpensMinutesBeforeStart,
		CutoffMinutesBeforeStart:    e.JoinCutoffMinutesBeforeStart,
		LateCutoffMinutesAfterStart: e.LateJoinCutoffMinutesAfterStart,
		AllowJoinLate:               e.AllowJoinLate,
	}
}

// JoinWindow 校验报名窗口范围和先后顺序
func JoinWindow(w JoinWindowFields) error {
	fields := []struct {
		name  string
		value *int32
	}{
		{"joinOpensMinutesBeforeStart", w.OpensMinutesBeforeStart},
		{"joinCutoffMinutesBeforeStart", w.CutoffMinutesBeforeStart},
		{"lateJoinCutoffMinutesAfterStart", w.LateCutoffMinutesAfterStart},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if *f.value < 0 || *f.value > MaxJoinWindowMinutes {
			return errorx.ErrInvalidField(f.name, fmt.Sprintf("必须在0到%d分钟之间", MaxJoinWindowMinutes))
		}
	}
	if w.OpensMinutesBeforeStart != nil && w.CutoffMinutesBeforeStart != nil &&
		*w.OpensMinutesBeforeStart <= *w.CutoffMinutesBeforeStart {
		return errorx.ErrInvalidField("joinOpensMinutesBeforeStart", "开放报名时间必须早于截止时间")
	}
	return nil
}

// MeetingKind 校验会议形式：线上需要链接，线下需要坐标，混合至少其一
func MeetingKind(kind int8, hasCoords, hasURL bool) error {
	switch kind {
	case model.MeetingOnline:
		if !hasURL {
			return errorx.ErrInvalidField("meetingUrl", "线上活动必须填写会议链接")
		}
	case model.MeetingOnsite:
		if !hasCoords {
			return errorx.ErrInvalidField("location", "线下活动必须填写地点坐标")
		}
	case model.MeetingHybrid:
		if !hasCoords && !hasURL {
			return errorx.ErrInvalidField("location", "混合活动至少填写会议链接或地点坐标")
		}
	default:
		return errorx.ErrInvalidField("meetingKind", "会议形式无效")
	}
	return nil
}

// Coordinates 校验经纬度范围（只传一个视为未填写完整）
func Coordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return errorx.ErrInvalidField("location", "经纬度必须同时填写")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return errorx.ErrInvalidField("latitude", "纬度范围无效")
	}
	if *lng < -180 || *lng > 180 {
		return errorx.ErrInvalidField("longitude", "经度范围无效")
	}
	return nil
}

// Event 对合并后的活动执行全部校验
func Event(e *model.Event, now time.Time, creating bool) error {
	if e.Title == "" {
		return errorx.ErrInvalidField("title", "活动标题不能为空")
	}
	if err := TimeWindow(e.StartAt, e.EndAt, now, creating); err != nil {
		return err
	}
	if err := Capacity(e.Mode, e.MinCapacity, e.MaxCapacity); err != nil {
		return err
	}
	if err := JoinWindow(JoinWindowOf(e)); err != nil {
		return err
	}
	if err := Coordinates(e.Latitude, e.Longitude); err != nil {
		return err
	}
	hasCoords := e.Latitude != nil && e.Longitude != nil
	return MeetingKind(e.MeetingKind, hasCoords, e.MeetingURL != "")
}

// JoinOpen 当前时间是否在报名窗口内
func JoinOpen(e *model.Event, now time.Time) error {
	ts := now.Unix()
	if ts >= e.EndAt {
		return errorx.New(errorx.CodeJoinWindowClosed)
	}

	if ts < e.StartAt {
		if v := e.JoinOpensMinutesBeforeStart; v != nil && ts < e.StartAt-int64(*v)*60 {
			return errorx.NewWithMessage(errorx.CodeJoinWindowClosed, "报名尚未开始")
		}
		if v := e.JoinCutoffMinutesBeforeStart; v != nil && ts > e.StartAt-int64(*v)*60 {
			return errorx.NewWithMessage(errorx.CodeJoinWindowClosed, "报名已截止")
		}
		return nil
	}

	if !e.AllowJoinLate {
		return errorx.NewWithMessage(errorx.CodeJoinWindowClosed, "活动已开始，不允许加入")
	}
	if v := e.LateJoinCutoffMinutesAfterStart; v != nil && ts > e.StartAt+int64(*v)*60 {
		return errorx.NewWithMessage(errorx.CodeJoinWindowClosed, "活动已开始，迟到加入已截止")
	}
	return nil
}
