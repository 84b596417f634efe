package logging

import (
	"regexp"
)

var (
	// API キーパターン
	// 注意: anthropicKeyPatternを先に適用する（より具体的なパターンから）
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// Discord/Slack の Webhook URL はトークンを含む
	discordWebhookPattern = regexp.MustCompile(`(https://(?:discord|discordapp)\.com/api/webhooks/)[^\s"]+`)
	slackWebhookPattern   = regexp.MustCompile(`(https://hooks\.slack\.com/services/)[^\s"]+`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	// APIキーのマスク（順序重要: より具体的なパターンから適用）
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")

	msg = discordWebhookPattern.ReplaceAllString(msg, "${1}****")
	msg = slackWebhookPattern.ReplaceAllString(msg, "${1}****")

	return msg
}
