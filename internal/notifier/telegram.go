package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// maxMessageLen is Telegram's limit for a single sendMessage text.
	maxMessageLen = 4096
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Enabled reports whether a bot token and chat are configured.
func (t *TelegramNotifier) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(base, "/"), t.BotToken, method)
}

// Send sends a message to the configured chat, split on line boundaries
// when it exceeds the Telegram size limit.
func (t *TelegramNotifier) Send(text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := t.sendOne(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendOne(text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(t.endpoint("sendMessage"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// splitMessage cuts text into chunks of at most max bytes, preferring
// newline boundaries. An open <pre> block is closed and reopened across
// chunks so each chunk stays valid HTML.
func splitMessage(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	inPre := false
	flush := func() {
		s := cur.String()
		if inPre {
			s += "</pre>"
		}
		chunks = append(chunks, s)
		cur.Reset()
		if inPre {
			cur.WriteString("<pre>")
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > max-len("<pre></pre>") {
			if cur.Len() > 0 {
				flush()
			}
			n := max - len("<pre></pre>")
			cur.WriteString(line[:n])
			line = line[n:]
			flush()
		}
		if cur.Len()+len(line)+len("</pre>") > max {
			flush()
		}
		cur.WriteString(line)
		if strings.Contains(line, "<pre>") {
			inPre = true
		}
		if strings.Contains(line, "</pre>") {
			inPre = false
		}
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
