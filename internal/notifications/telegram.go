package notifications

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/takkaros/brave-market-buddy-sub000/pkg/utils"
)

const (
	telegramAPIBase = "https://api.telegram.org"
	sendTimeout     = 10 * time.Second
)

// levelHeadings maps alert levels to the heading line of the message.
var levelHeadings = map[string]string{
	"info":    "ℹ️ Info",
	"warning": "⚠️ Risk warning",
	"error":   "🚨 Alert",
	"success": "✅ Order filled",
}

// TelegramNotifier delivers engine alerts to a chat through the Telegram
// bot API. Delivery is best effort; the engine fires alerts from goroutines
// and a slow or failing API must never stall a fill.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		apiBase: telegramAPIBase,
		client:  &http.Client{Timeout: sendTimeout},
	}
}

// SendAlert posts a single message. Unknown levels fall back to info.
func (t *TelegramNotifier) SendAlert(level, message string) error {
	heading, ok := levelHeadings[level]
	if !ok {
		heading = levelHeadings["info"]
	}

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", fmt.Sprintf("%s\n%s", heading, message))
	form.Set("parse_mode", "Markdown")

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		utils.Logger.WithError(err).WithField("level", level).Error("Telegram delivery failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		utils.Logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"level":  level,
		}).Error("Telegram delivery failed")
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
