package logger

import (
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

const redacted = "[REDACTED]"

// secretKeys are attribute keys whose values never reach the log output.
var secretKeys = map[string]struct{}{
	"app_secret":     {},
	"appsecret":      {},
	"secret":         {},
	"secret_key":     {},
	"webhook_secret": {},
	"access_token":   {},
	"token":          {},
	"password":       {},
}

func isSecretKey(key string) bool {
	_, ok := secretKeys[strings.ToLower(key)]
	return ok
}

// replaceAttr redacts secrets and, for the console format, renders errors with tint.
func replaceAttr(console bool) func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if isSecretKey(a.Key) {
			return slog.String(a.Key, redacted)
		}
		if console && a.Key == "error" && a.Value.Kind() == slog.KindAny {
			if err, ok := a.Value.Any().(error); ok {
				return tint.Err(err)
			}
		}
		return a
	}
}
