package respond

import (
	"regexp"
)

var (
	// Bearer トークンパターン（JWT など）
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9-_.]+`)

	// Webhook URL のトークン部分
	// 注意: discordWebhookPattern を先に適用する（より具体的なパターンから）
	discordWebhookPattern = regexp.MustCompile(`(discord(?:app)?\.com/api/webhooks/\d+)/[a-zA-Z0-9-_]+`)
	slackWebhookPattern   = regexp.MustCompile(`(hooks\.slack\.com/services)/[a-zA-Z0-9/]+`)

	// データベースパスワードパターン（DSN内）
	dbPasswordPattern = regexp.MustCompile(`://([^:]+):([^@]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	// Bearer トークンのマスク
	msg = bearerTokenPattern.ReplaceAllString(msg, "Bearer ****")

	// Webhook トークンのマスク
	msg = discordWebhookPattern.ReplaceAllString(msg, "$1/****")
	msg = slackWebhookPattern.ReplaceAllString(msg, "$1/****")

	// DBパスワードのマスク
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
