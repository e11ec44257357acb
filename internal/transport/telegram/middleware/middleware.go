package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"
)

func Logger() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			now := time.Now()

			rqID := uuid.NewString()
			c.Set("rqID", rqID)

			attrs := []any{slog.String("rqID", rqID)}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chatID", chat.ID))
			}
			if c.Callback() != nil {
				attrs = append(attrs, slog.String("callback", c.Callback().Unique))
			} else if msg := c.Message(); msg != nil {
				attrs = append(attrs, slog.String("command", commandOf(msg.Text)))
			}

			slog.Info("start request", attrs...)

			defer func() {
				slog.Info(
					"request finished",
					slog.String("rqID", rqID),
					slog.String("request duration", fmt.Sprintf("%.2fs", time.Since(now).Seconds())),
				)
			}()

			return next(c)
		}
	}
}

// commandOf keeps user free text out of the logs.
func commandOf(text string) string {
	if len(text) == 0 || text[0] != '/' {
		return "text"
	}
	for i, r := range text {
		if r == ' ' || r == '@' {
			return text[:i]
		}
	}
	return text
}
