// Package apperr はサービス層とHTTP層で共有するエラー分類を定義する。
package apperr

import (
	"errors"
	"fmt"
)

// Kind はエラーの種別。HTTP ステータスへの対応付けは interfaces 層が担う。
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindInvalidCredentials
	KindForbidden
	KindNotFound
	KindConflict
	KindAlreadyVoted
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAlreadyVoted:
		return "already_voted"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// リポジトリが返す永続化層の番兵エラー。サービスが利用者向けの Error へ変換する。
var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// Error は利用者へ返せるメッセージと原因エラーを保持する。
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return newError(KindUnauthenticated, format, args...)
}

func InvalidCredentials() *Error {
	return newError(KindInvalidCredentials, "Invalid credentials")
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func AlreadyVoted() *Error {
	return newError(KindAlreadyVoted, "You have already voted on this poll")
}

func Unavailable(format string, args ...any) *Error {
	return newError(KindUnavailable, format, args...)
}

// Internal は原因エラーを包んだ想定外エラーを返す。Message は利用者に見せる固定文言。
func Internal(err error, format string, args ...any) *Error {
	e := newError(KindInternal, format, args...)
	e.Err = err
	return e
}

// WithDetail は入力検証の詳細を付与したコピーを返す。
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// KindOf はエラーチェーンから Kind を取り出す。*Error を含まない場合は KindInternal。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is は err が指定種別の *Error を含むか判定する。
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
