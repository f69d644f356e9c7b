package auth

// GenerateTokenRequest 運用者トークン生成リクエスト
type GenerateTokenRequest struct {
	OperatorID string
}

// GenerateTokenResponse トークン生成レスポンス
type GenerateTokenResponse struct {
	Token     string
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}
