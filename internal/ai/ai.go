// Package ai wraps the OpenAI chat completions endpoint for one-paragraph
// replies: "bot" callouts in chat and the wiki fallback.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/pkg/text"
	"hangout-game-bot/internal/store"
)

const (
	completionsURL = "https://api.openai.com/v1/chat/completions"

	calloutSystemPrompt = "You are a concise, helpful chat assistant. Reply in ONE paragraph, plain text."
	factualSystemPrompt = "You are a precise, factual assistant. Reply in ONE paragraph (plain text)."

	// minSendGap throttles callout replies.
	minSendGap = 1200 * time.Millisecond
)

// botAliases are the phrases that address the bot in plain chat.
var botAliases = []string{"bot", "@bot", "hey bot", "hi bot", "ok bot", "yo bot"}

// HasCallout reports whether the text addresses the bot.
func HasCallout(body string) bool {
	lower := strings.ToLower(body)
	for _, alias := range botAliases {
		if strings.Contains(lower, alias) {
			return true
		}
	}
	return false
}

// Client calls the LLM. The enabled toggle and the callout rate limiter
// live in the persisted state so they survive restarts.
type Client struct {
	http     *http.Client
	apiKey   string
	modelID  string
	store    *store.Store
	notify   game.Notifier
	maxChars int
}

// Config holds the client's tuning.
type Config struct {
	APIKey      string
	Model       string
	MaxMsgChars int
}

// New creates the client. An empty API key disables every reply path.
func New(st *store.Store, notify game.Notifier, cfg Config) *Client {
	modelID := cfg.Model
	if modelID == "" {
		modelID = "gpt-4o-mini"
	}
	maxChars := cfg.MaxMsgChars
	if maxChars < 400 {
		maxChars = 400
	}
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		apiKey:   cfg.APIKey,
		modelID:  modelID,
		store:    st,
		notify:   notify,
		maxChars: maxChars,
	}
}

// Enabled reports the persisted callout toggle.
func (c *Client) Enabled() bool {
	enabled := false
	c.store.View(func(st *model.State) {
		enabled = st.AI.Enabled
	})
	return enabled
}

// SetEnabled flips the persisted callout toggle.
func (c *Client) SetEnabled(on bool) {
	c.store.Update(func(st *model.State) {
		st.AI.Enabled = on
	})
}

// TryReply answers a plain-text message that addresses the bot, rate
// limited and gated on the persisted toggle. It reports whether a reply
// was sent.
func (c *Client) TryReply(ctx context.Context, body string) bool {
	if c.apiKey == "" || !HasCallout(body) || !c.Enabled() {
		return false
	}

	throttled := false
	now := time.Now().UnixMilli()
	c.store.View(func(st *model.State) {
		throttled = now-st.AI.LastSentAt < minSendGap.Milliseconds()
	})
	if throttled {
		return false
	}

	reply, err := c.complete(ctx, calloutSystemPrompt, "User says: "+body)
	if err != nil {
		log.Debug().Err(err).Msg("ai callout failed")
		return false
	}
	c.store.Update(func(st *model.State) {
		st.AI.LastSentAt = time.Now().UnixMilli()
	})
	c.notify.Send(ctx, reply)
	return true
}

// Paragraph produces one factual paragraph for the given prompt, used as
// the wiki fallback.
func (c *Client) Paragraph(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("ai not configured")
	}
	return c.complete(ctx, factualSystemPrompt, prompt)
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	payload := map[string]any{
		"model":       c.modelID,
		"temperature": 0.5,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionsURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai empty reply")
	}
	return text.Clamp(out.Choices[0].Message.Content, c.maxChars), nil
}
