/**
 * @projectName: event-platform
 * @package: errorx
 * @className: codes
 * @description: 统一错误码定义
 * @version: 1.0
 */

package errorx

// 错误码规范：
// 0       - 成功
// 1xxx    - 通用错误
// 3xxx    - 活动(event)服务错误

const (
	CodeSuccess            = 0    // 成功
	CodeInternalError      = 1000 // 内部服务器错误
	CodeInvalidParams      = 1001 // 参数校验失败
	CodeUnauthorized       = 1002 // 未授权访问
	CodeForbidden          = 1003 // 禁止访问
	CodeNotFound           = 1004 // 资源不存在
	CodeTooManyRequests    = 1005 // 请求过于频繁
	CodeServiceUnavailable = 1006 // 服务暂不可用
	CodeTimeout            = 1007 // 请求超时
	CodeDBError            = 1008 // 数据库错误
	CodeCacheError         = 1009 // 缓存错误
	CodeRPCError           = 1010 // 下游调用失败
	CodeFailedPrecondition = 1011 // 当前状态不允许此操作

	// 活动服务 - 活动 3001-3020
	CodeEventNotFound         = 3001 // 活动不存在
	CodeEventPermissionDenied = 3002 // 无权操作该活动
	CodeEventReadOnly         = 3003 // 活动已取消或已删除
	CodeEventStatusInvalid    = 3004 // 活动状态不允许此操作
	CodeEventConcurrentUpdate = 3005 // 并发更新冲突
	CodeEventDeleteTooEarly   = 3006 // 取消未满30天不能删除
	CodeEventAlreadyScheduled = 3007 // 活动已设置定时发布
	CodeEventPublishAtInvalid = 3008 // 定时发布时间无效
	CodeEventAlreadyPublished = 3009 // 活动已发布

	// 活动服务 - 成员 3101-3120
	CodeMemberNotFound      = 3101 // 成员记录不存在
	CodeEventFull           = 3102 // 活动名额已满
	CodeJoinWindowClosed    = 3103 // 不在报名时间窗口内
	CodeMemberBanned        = 3104 // 已被禁止参加
	CodeMemberRejected      = 3105 // 申请已被拒绝
	CodeMemberStatusInvalid = 3106 // 成员状态不允许此操作
)

// codeMessages 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:                "success",
	CodeInternalError:          "内部服务器错误",
	CodeInvalidParams:          "参数校验失败",
	CodeUnauthorized:           "未授权访问",
	CodeForbidden:              "禁止访问",
	CodeNotFound:               "资源不存在",
	CodeTooManyRequests:        "请求过于频繁，请稍后再试",
	CodeServiceUnavailable:     "服务暂不可用",
	CodeTimeout:                "请求超时",
	CodeDBError:                "数据库错误",
	CodeCacheError:             "缓存错误",
	CodeRPCError:               "服务调用失败",
	CodeFailedPrecondition:     "当前状态不允许此操作",
	CodeEventNotFound:          "活动不存在",
	CodeEventPermissionDenied:  "无权操作该活动",
	CodeEventReadOnly:          "活动已取消或已删除，不能修改",
	CodeEventStatusInvalid:     "活动状态不允许此操作",
	CodeEventConcurrentUpdate:  "活动已被修改，请刷新后重试",
	CodeEventDeleteTooEarly:    "活动取消满30天后才能删除",
	CodeEventAlreadyScheduled:  "活动已设置定时发布，请先取消",
	CodeEventPublishAtInvalid:  "定时发布时间必须晚于当前时间且早于活动开始时间",
	CodeEventAlreadyPublished:  "活动已发布",
	CodeMemberNotFound:         "成员记录不存在",
	CodeEventFull:              "活动名额已满",
	CodeJoinWindowClosed:       "当前不在报名时间范围内",
	CodeMemberBanned:           "您已被禁止参加该活动",
	CodeMemberRejected:         "您的申请已被拒绝",
	CodeMemberStatusInvalid:    "成员状态不允许此操作",
}

// GetMessage 根据错误码获取默认消息
func GetMessage(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return "未知错误"
}
