package errorx

// Kind 错误分类，调用方按分类处理而不关心具体错误码
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindFailedPrecondition
	KindTooManyRequests
)

var codeKinds = map[int]Kind{
	CodeInvalidParams:         KindInvalidInput,
	CodeUnauthorized:          KindUnauthenticated,
	CodeForbidden:             KindForbidden,
	CodeEventPermissionDenied: KindForbidden,
	CodeNotFound:              KindNotFound,
	CodeEventNotFound:         KindNotFound,
	CodeMemberNotFound:        KindNotFound,
	CodeTooManyRequests:       KindTooManyRequests,
	CodeFailedPrecondition:    KindFailedPrecondition,
	CodeEventReadOnly:         KindFailedPrecondition,
	CodeEventStatusInvalid:    KindFailedPrecondition,
	CodeEventConcurrentUpdate: KindFailedPrecondition,
	CodeEventDeleteTooEarly:   KindFailedPrecondition,
	CodeEventAlreadyScheduled: KindFailedPrecondition,
	CodeEventPublishAtInvalid: KindFailedPrecondition,
	CodeEventAlreadyPublished: KindFailedPrecondition,
	CodeEventFull:             KindFailedPrecondition,
	CodeJoinWindowClosed:      KindFailedPrecondition,
	CodeMemberBanned:          KindFailedPrecondition,
	CodeMemberRejected:        KindFailedPrecondition,
	CodeMemberStatusInvalid:   KindFailedPrecondition,
}

// KindOf 返回错误所属分类，非业务错误一律视为内部错误
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	bizErr := FromError(err)
	if kind, ok := codeKinds[bizErr.Code]; ok {
		return kind
	}
	return KindInternal
}

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindFailedPrecondition:
		return "FailedPrecondition"
	case KindTooManyRequests:
		return "TooManyRequests"
	default:
		return "Internal"
	}
}
