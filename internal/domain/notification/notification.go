// Package notification 取引結果のメール通知
package notification

import (
	"context"
	"errors"
)

var (
	// ErrMailerNotConfigured メール送信の設定がないエラー
	ErrMailerNotConfigured = errors.New("mailer not configured")
	// ErrMissingRecipient 宛先がないエラー
	ErrMissingRecipient = errors.New("missing recipient")
)

// Message 送信するメール
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer メール送信インターフェース
type Mailer interface {
	// Configured 送信に必要な設定が揃っているかどうか
	Configured() bool

	// Send メールを送信
	Send(ctx context.Context, msg Message) error
}
