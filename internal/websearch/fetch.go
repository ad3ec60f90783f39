package websearch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"graft/internal/htmltext"
)

// fetchContents fans out over the results with a bounded worker pool,
// filling each Content from the fetched page. Every result starts with
// its snippet as content, so a fetch that fails or outlives the join
// timeout degrades instead of dropping the result.
func (c *Client) fetchContents(ctx context.Context, results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	for i := range out {
		out[i].Content = out[i].Snippet
	}

	var mu sync.Mutex

	sem := make(chan struct{}, fetchWorkers)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int, r Result) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content := c.fetchArticle(ctx, r.URL)
			if content == "" {
				return
			}
			mu.Lock()
			out[i].Content = content
			mu.Unlock()
		}(i, results[i])
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(c.joinTimeout):
		slog.WarnContext(ctx, "abandoning slow content fetches", "results", len(results))
	case <-ctx.Done():
	}

	// Late workers may still be writing; hand back a snapshot instead.
	mu.Lock()
	snapshot := append([]Result(nil), out...)
	mu.Unlock()
	return snapshot
}

func (c *Client) fetchArticle(ctx context.Context, rawURL string) string {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "content fetch failed", "url", rawURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.DebugContext(ctx, "content fetch failed", "url", rawURL, "status", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ""
	}

	return truncate(htmltext.ArticleText(string(body)), maxContentLength)
}

// truncate cuts s to at most max runes. Cutting on a byte offset could
// split a multibyte rune and leak invalid UTF-8 into the prompt.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
