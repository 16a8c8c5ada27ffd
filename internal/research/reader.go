package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	userAgent       = "debatecoach/1.0"
	maxReadBytes    = 2 << 20
	defaultMaxChars = 50000
)

// Reader fetches a page and converts its HTML to markdown.
type Reader struct {
	client   *http.Client
	maxChars int
}

func NewReader() *Reader {
	return &Reader{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxChars: defaultMaxChars,
	}
}

// Read returns the page at rawURL as markdown, truncated to the reader's
// character limit.
func (r *Reader) Read(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	if len(md) > r.maxChars {
		md = md[:r.maxChars] + "\n\n[Content truncated]"
	}
	return md, nil
}
