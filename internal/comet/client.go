package comet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/pkg/text"
)

// ErrNotJoined indicates the bot is not (or no longer) a member of the
// group; the caller should re-join and retry.
var ErrNotJoined = errors.New("not a member of the group")

// ErrNoAuthToken indicates the gateway returned no chat auth token.
var ErrNoAuthToken = errors.New("gateway returned no auth token")

var alreadyJoinedRe = regexp.MustCompile(`(?i)already|exists`)

// Client talks to the gateway and the chat backend. It owns the chat auth
// token and refreshes it once on a 401.
type Client struct {
	http        *http.Client
	gatewayBase string
	cometBase   string
	userToken   string
	groupID     string
	maxMsgChars int

	mu        sync.Mutex
	authToken string
	selfUID   string
}

// Config holds the client's connection parameters.
type Config struct {
	GatewayBaseURL string
	CometBaseURL   string
	UserToken      string
	GroupID        string
	MaxMsgChars    int
}

// NewClient creates a Client. No network calls are made until first use.
func NewClient(cfg Config) *Client {
	maxChars := cfg.MaxMsgChars
	if maxChars < 400 {
		maxChars = 400
	}
	return &Client{
		http:        &http.Client{Timeout: 15 * time.Second},
		gatewayBase: strings.TrimRight(cfg.GatewayBaseURL, "/"),
		cometBase:   strings.TrimRight(cfg.CometBaseURL, "/"),
		userToken:   cfg.UserToken,
		groupID:     cfg.GroupID,
		maxMsgChars: maxChars,
	}
}

// FetchAuthToken exchanges the bot's service token for a chat auth token
// at the gateway.
func (c *Client) FetchAuthToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.gatewayBase+"/api/user-service/comet-chat/user-token", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.userToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway token request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		CometAuthToken string `json:"cometAuthToken"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.CometAuthToken == "" {
		return ErrNoAuthToken
	}

	c.mu.Lock()
	c.authToken = out.CometAuthToken
	c.mu.Unlock()
	return nil
}

// do performs one chat backend request, fetching the auth token on first
// use and refreshing it once on a 401.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	c.mu.Lock()
	token := c.authToken
	c.mu.Unlock()

	if token == "" {
		if err := c.FetchAuthToken(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.doOnce(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.FetchAuthToken(ctx); err != nil {
			return nil, err
		}
		return c.doOnce(ctx, method, path, payload)
	}
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cometBase+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.authToken
	c.mu.Unlock()
	req.Header.Set("authToken", token)
	req.Header.Set("Authorization", "Bearer "+token)

	return c.http.Do(req)
}

// Me resolves and caches the bot's own chat uid.
func (c *Client) Me(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v3.0/me", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("me %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Data struct {
			UID  string `json:"uid"`
			User struct {
				UID string `json:"uid"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("me decode: %w", err)
	}

	uid := out.Data.UID
	if uid == "" {
		uid = out.Data.User.UID
	}

	c.mu.Lock()
	c.selfUID = uid
	c.mu.Unlock()
	return uid, nil
}

// SelfUID returns the cached bot uid, empty until Me succeeds.
func (c *Client) SelfUID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfUID
}

// EnsureJoin makes the bot a member of the group. Both the members POST
// and the join fallback treat "already a member" as success.
func (c *Client) EnsureJoin(ctx context.Context) bool {
	uid := c.SelfUID()
	if uid == "" {
		var err error
		if uid, err = c.Me(ctx); err != nil {
			log.Warn().Err(err).Msg("join error")
			return false
		}
	}

	payload := map[string]any{
		"participants": []map[string]string{{"uid": uid, "scope": "participant"}},
	}
	resp, err := c.do(ctx, http.MethodPost,
		"/v3.0/groups/"+url.PathEscape(c.groupID)+"/members", payload)
	if err != nil {
		log.Warn().Err(err).Msg("join error")
		return false
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 300 {
		return true
	}
	if resp.StatusCode == http.StatusConflict || alreadyJoinedRe.Match(body) {
		return true
	}

	resp, err = c.do(ctx, http.MethodPost,
		"/v3.0/groups/"+url.PathEscape(c.groupID)+"/join", map[string]any{})
	if err != nil {
		log.Warn().Err(err).Msg("join error")
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 300
}

// ListGroupMessages fetches the most recent messages for the group. The
// backend returns a sliding window in no guaranteed order; callers sort
// and de-duplicate. Returns ErrNotJoined when membership lapsed.
func (c *Client) ListGroupMessages(ctx context.Context, limit int) ([]Message, error) {
	path := fmt.Sprintf("/v3.0/groups/%s/messages?limit=%d", url.PathEscape(c.groupID), limit)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		if strings.Contains(string(body), "ERR_GROUP_NOT_JOINED") ||
			strings.Contains(strings.ToLower(string(body)), "not a member of the group") {
			return nil, ErrNotJoined
		}
		return nil, fmt.Errorf("list %d %s", resp.StatusCode, string(body))
	}

	return decodeMessageEnvelope(body)
}

// decodeMessageEnvelope tolerates the three envelope shapes the backend
// has been observed to serve: data[], data.data[], and a bare array.
func decodeMessageEnvelope(body []byte) ([]Message, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		var msgs []Message
		if err := json.Unmarshal(envelope.Data, &msgs); err == nil {
			return msgs, nil
		}
		var nested struct {
			Data []Message `json:"data"`
		}
		if err := json.Unmarshal(envelope.Data, &nested); err == nil {
			return nested.Data, nil
		}
	}
	var msgs []Message
	if err := json.Unmarshal(body, &msgs); err == nil {
		return msgs, nil
	}
	return nil, nil
}

// Send posts a chat message to the group as the bot's custom payload,
// falling back to a plain text message when the custom send fails.
// Failures are logged, never returned; settlement must not block on chat.
func (c *Client) Send(ctx context.Context, body string) {
	msg := text.Clamp(body, c.maxMsgChars)

	custom := map[string]any{
		"receiverType": "group",
		"receiver":     c.groupID,
		"category":     "custom",
		"type":         "ChatMessage",
		"data": map[string]any{
			"customData": c.customPayload(msg),
			"metadata":   map[string]any{"incrementUnreadCount": true},
		},
	}
	if c.post(ctx, custom) {
		return
	}

	plain := map[string]any{
		"receiverType": "group",
		"receiver":     c.groupID,
		"category":     "message",
		"type":         "text",
		"data":         map[string]any{"text": msg},
	}
	if !c.post(ctx, plain) {
		log.Warn().Msg("send failed")
	}
}

func (c *Client) post(ctx context.Context, payload map[string]any) bool {
	resp, err := c.do(ctx, http.MethodPost, "/v3.0/messages", payload)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 300
}

// customPayload builds the structured ChatMessage body the room client
// renders for bot messages.
func (c *Client) customPayload(msg string) map[string]any {
	selfUID := c.SelfUID()
	if selfUID == "" {
		selfUID = "unknown"
	}
	return map[string]any{
		"avatarId": "dj-femalezombie-1",
		"color":    "#9E4ADF",
		"badges":   []string{"BOT"},
		"id":       -1,
		"message":  msg,
		"type":     "user",
		"userName": "BOT",
		"userUuid": selfUID,
		"uuid":     uuid.NewString(),
	}
}
