package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// pollRetryDelay is the pause after a failed getUpdates call.
const pollRetryDelay = 5 * time.Second

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// StartPolling long-polls for commands and replies to them. Only messages
// from the configured chat are handled. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second}
	if t.Client != nil {
		client.Transport = t.Client.Transport
	}

	for {
		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[INFO] Telegram polling stopped")
				return
			}
			log.Printf("[WARN] polling: %v", err)
			select {
			case <-ctx.Done():
				log.Println("[INFO] Telegram polling stopped")
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			text, ok := t.command(update)
			if !ok {
				continue
			}
			log.Printf("[INFO] received command: %s", text)
			if reply := handler(text); reply != "" {
				if err := t.Send(reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.endpoint("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var result struct {
		OK          bool             `json:"ok"`
		Description string           `json:"description"`
		Result      []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram API error: status %d, %s", resp.StatusCode, result.Description)
	}
	return result.Result, nil
}

// command returns the trimmed text of an update addressed from the
// configured chat.
func (t *TelegramNotifier) command(u telegramUpdate) (string, bool) {
	if u.Message == nil {
		return "", false
	}
	if strconv.FormatInt(u.Message.Chat.ID, 10) != strings.TrimSpace(t.ChatID) {
		log.Printf("[WARN] ignoring message from chat %d", u.Message.Chat.ID)
		return "", false
	}
	text := strings.TrimSpace(u.Message.Text)
	return text, text != ""
}
