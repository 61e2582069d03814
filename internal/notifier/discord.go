package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// discordLimit is the maximum content length of one webhook message.
const discordLimit = 2000

// DiscordNotifier posts messages to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string
	Username   string
	AvatarURL  string
	Client     *http.Client
}

// NewDiscordNotifier creates a notifier with optional proxy support.
func NewDiscordNotifier(webhookURL, username, avatarURL, proxyURL string) *DiscordNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Username:   username,
		AvatarURL:  avatarURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Send posts text, split into several messages when it exceeds the
// webhook content limit.
func (d *DiscordNotifier) Send(ctx context.Context, text string) error {
	for _, part := range splitMessage(text, discordLimit) {
		if err := d.post(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (d *DiscordNotifier) post(ctx context.Context, content string) error {
	payload := map[string]string{
		"content":  content,
		"username": d.Username,
	}
	if d.AvatarURL != "" {
		payload["avatar_url"] = d.AvatarURL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// splitMessage cuts text on line boundaries into parts of at most limit
// runes. A single longer line is cut hard.
func splitMessage(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		for len(r) > limit {
			flush()
			parts = append(parts, string(r[:limit]))
			r = r[limit:]
		}
		if curLen+len(r) > limit {
			flush()
		}
		cur.WriteString(string(r))
		curLen += len(r)
	}
	flush()
	return parts
}
