package apperr

import (
	"errors"
	"fmt"
)

// Kind 领域错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindPermissionDenied
	KindInvalidTransition
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// Error 带类别的领域错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error { return &Error{Kind: kind, Msg: msg} }

func Wrap(kind Kind, msg string, err error) error { return &Error{Kind: kind, Msg: msg, Err: err} }

func NotFound(msg string) error { return New(KindNotFound, msg) }

func AlreadyExists(msg string) error { return New(KindAlreadyExists, msg) }

func PermissionDenied(msg string) error { return New(KindPermissionDenied, msg) }

func InvalidTransition(msg string) error { return New(KindInvalidTransition, msg) }

func InvalidArgument(msg string) error { return New(KindInvalidArgument, msg) }

// KindOf 提取错误类别；非领域错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
