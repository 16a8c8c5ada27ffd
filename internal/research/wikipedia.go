package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/debatecoach/internal/types"
)

const DefaultWikipediaURL = "https://en.wikipedia.org"

// Wikipedia looks up article titles with opensearch and fetches each
// article's REST summary.
type Wikipedia struct {
	baseURL string
	client  *http.Client
}

func NewWikipedia(baseURL string) *Wikipedia {
	if baseURL == "" {
		baseURL = DefaultWikipediaURL
	}
	return &Wikipedia{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

// Search returns summaries for up to limit matching articles. Articles whose
// summary cannot be fetched are skipped.
func (w *Wikipedia) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	titles, err := w.SearchTitles(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.Candidate, 0, len(titles))
	for _, title := range titles {
		c, err := w.Summary(ctx, title)
		if err != nil {
			slog.Debug("wikipedia summary skipped", "title", title, "error", err)
			continue
		}
		if c.URL == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// SearchTitles runs an opensearch query. The response is a 4-element array
// whose second element holds the titles.
func (w *Wikipedia) SearchTitles(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}
	q := url.Values{}
	q.Set("action", "opensearch")
	q.Set("search", query)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("namespace", "0")
	q.Set("format", "json")

	body, err := w.get(ctx, w.baseURL+"/w/api.php?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("opensearch: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse opensearch: %w", err)
	}
	if len(raw) < 2 {
		return nil, nil
	}
	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, fmt.Errorf("parse opensearch titles: %w", err)
	}
	return titles, nil
}

type wikiSummary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches the REST summary for one article title.
func (w *Wikipedia) Summary(ctx context.Context, title string) (types.Candidate, error) {
	path := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	body, err := w.get(ctx, w.baseURL+"/api/rest_v1/page/summary/"+path)
	if err != nil {
		return types.Candidate{}, fmt.Errorf("summary %q: %w", title, err)
	}
	var s wikiSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return types.Candidate{}, fmt.Errorf("parse summary: %w", err)
	}
	if s.Title == "" {
		s.Title = title
	}
	return types.Candidate{Title: s.Title, URL: s.ContentURLs.Desktop.Page, Snippet: s.Extract}, nil
}

func (w *Wikipedia) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}
	return body, nil
}
