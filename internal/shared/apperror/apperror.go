// Package apperror HTTPレスポンスに変換できるアプリケーションエラー
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind エラー種別
type Kind string

const (
	Invalid      Kind = "invalid"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	NotFound     Kind = "not_found"
	Upstream     Kind = "upstream"
	Internal     Kind = "internal"
)

// Error 公開メッセージと任意の詳細を持つエラー
type Error struct {
	Kind    Kind
	Message string
	// Detail レスポンスの detail にそのまま載せる値（上流のペイロードなど）
	Detail interface{}
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail 詳細を付与して返す
func (e *Error) WithDetail(detail interface{}) *Error {
	e.Detail = detail
	return e
}

// InvalidErr 入力不正（400）
func InvalidErr(message string) *Error {
	return &Error{Kind: Invalid, Message: message}
}

// ForbiddenErr 拒否（403）
func ForbiddenErr(message string) *Error {
	return &Error{Kind: Forbidden, Message: message}
}

// UnauthorizedErr 認証失敗（401）
func UnauthorizedErr(message string) *Error {
	return &Error{Kind: Unauthorized, Message: message}
}

// NotFoundErr 見つからない（404）
func NotFoundErr(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

// UpstreamErr 上流サービスの失敗を呼び出し元へ返す（400）
func UpstreamErr(message string, err error) *Error {
	return &Error{Kind: Upstream, Message: message, Err: err}
}

// InternalErr サーバー側の失敗（500）
func InternalErr(message string, err error) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// As エラーチェーンから *Error を取り出す
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HTTPStatus エラーに対応するHTTPステータスを返す
func HTTPStatus(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Invalid, Upstream:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
