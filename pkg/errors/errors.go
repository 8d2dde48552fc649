package errors

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类，决定对外的 HTTP 状态码
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindInUse             Kind = "in_use"
	KindProtectedRole     Kind = "protected_role"
	KindAnomalousDuration Kind = "anomalous_duration"
	KindInvalidArgument   Kind = "invalid_argument"
	KindInternal          Kind = "internal"
)

// Error 带分类与业务码的错误
//
// 各 service 以包级变量声明哨兵错误，调用方通过 errors.Is 判断。
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New 创建业务错误
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(KindConflict, 10009, "数据已被其他操作修改，请刷新后重试")

// ErrInUse 资源仍被引用
var ErrInUse = New(KindInUse, 10010, "资源仍被引用，无法删除")

// InUseError 资源仍被 Count 个员工引用
type InUseError struct {
	Resource string
	Count    int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s 仍被 %d 名员工引用，无法删除", e.Resource, e.Count)
}

// Is 使 errors.Is(err, ErrInUse) 成立
func (e *InUseError) Is(target error) bool {
	return target == ErrInUse
}

// NewInUse 创建引用计数错误
func NewInUse(resource string, count int64) error {
	return &InUseError{Resource: resource, Count: count}
}

// KindOf 提取错误分类，未分类的错误视为内部错误
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var inUse *InUseError
	if errors.As(err, &inUse) {
		return KindInUse
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf 提取业务码，未分类的错误返回 50000
func CodeOf(err error) int {
	var inUse *InUseError
	if errors.As(err, &inUse) {
		return ErrInUse.Code
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 50000
}
