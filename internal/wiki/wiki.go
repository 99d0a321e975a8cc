// Package wiki answers /wiki via the Wikipedia REST summary endpoint,
// falling back to the LLM when the lookup misses.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hangout-game-bot/internal/pkg/text"
)

const summaryURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// Fallback produces a paragraph when the wiki lookup finds nothing.
type Fallback interface {
	Paragraph(ctx context.Context, prompt string) (string, error)
}

// Service resolves wiki terms.
type Service struct {
	http     *http.Client
	fallback Fallback
	maxChars int

	// base is the summary endpoint, swapped out by tests.
	base string
}

// New creates the service. fallback may be nil.
func New(fallback Fallback, maxMsgChars int) *Service {
	if maxMsgChars < 400 {
		maxMsgChars = 400
	}
	return &Service{
		http:     &http.Client{Timeout: 15 * time.Second},
		fallback: fallback,
		maxChars: maxMsgChars,
		base:     summaryURL,
	}
}

// Lookup returns a chat-ready summary for the term. The returned string
// is always sendable, errors come back as user-facing text.
func (s *Service) Lookup(ctx context.Context, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return "Usage: `/wiki <term>`"
	}

	summary, link, ok := s.summary(ctx, term)
	if ok {
		out := "📚 " + summary
		if link != "" {
			out += "\n🔗 " + link
		}
		return text.Clamp(out, s.maxChars)
	}

	if s.fallback != nil {
		prompt := fmt.Sprintf("Give a one-paragraph factual summary of %q.", term)
		if para, err := s.fallback.Paragraph(ctx, prompt); err == nil {
			return "📚 " + para
		}
	}
	return fmt.Sprintf("🤷 Nothing found for %q.", term)
}

// summary fetches the REST summary. Disambiguation pages count as a miss.
func (s *Service) summary(ctx context.Context, term string) (summary, link string, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+url.PathEscape(term), nil)
	if err != nil {
		return "", "", false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", false
	}
	var out struct {
		Type    string `json:"type"`
		Extract string `json:"extract"`
		Content struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", false
	}
	if out.Type == "disambiguation" || strings.TrimSpace(out.Extract) == "" {
		return "", "", false
	}
	return strings.TrimSpace(out.Extract), out.Content.Desktop.Page, true
}
