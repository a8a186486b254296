package errors

import "errors"

// ── 错误类别 ──
// 业务错误通过 Kind 归类，Handler 层据此映射 HTTP 状态码。

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrLocked     = errors.New("locked")
)

// DomainError 带类别的业务错误
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

// Unwrap 使 errors.Is(err, ErrConflict) 等类别判断成立
func (e *DomainError) Unwrap() error { return e.Kind }

// Validation 构造校验错误
func Validation(msg string) error { return &DomainError{Kind: ErrValidation, Message: msg} }

// NotFound 构造资源不存在错误
func NotFound(msg string) error { return &DomainError{Kind: ErrNotFound, Message: msg} }

// Conflict 构造冲突错误
func Conflict(msg string) error { return &DomainError{Kind: ErrConflict, Message: msg} }

// Locked 构造锁定错误
func Locked(msg string) error { return &DomainError{Kind: ErrLocked, Message: msg} }

// Message 提取业务错误的对外消息，非业务错误返回空串
func Message(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
