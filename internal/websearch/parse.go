package websearch

import (
	"html"
	"regexp"
	"strings"
)

// providerDomain marks the search provider's own links, which are
// redirects and ads rather than real results.
const providerDomain = "duckduckgo.com"

var (
	linkRe    = regexp.MustCompile(`<a rel="nofollow" class="result__a" href="([^"]+)"[^>]*>([^<]+)</a>`)
	snippetRe = regexp.MustCompile(`<a class="result__snippet"[^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</a>`)
	inlineRe  = regexp.MustCompile(`<[^>]+>`)
	wsRe      = regexp.MustCompile(`\s+`)
)

// parseResults pulls result anchors and snippets out of the raw results
// page. It scans a small surplus of raw matches beyond max so that
// filtered-out provider links do not shrink the result set.
func parseResults(page string, max int) []Result {
	links := linkRe.FindAllStringSubmatch(page, -1)
	snippets := snippetRe.FindAllStringSubmatch(page, -1)

	var results []Result
	for i, link := range links {
		if i >= max+2 {
			break
		}

		rawURL := link[1]
		if strings.Contains(rawURL, providerDomain) {
			continue
		}

		snippet := ""
		if i < len(snippets) {
			snippet = cleanFragment(snippets[i][1])
		}

		results = append(results, Result{
			Title:   cleanFragment(link[2]),
			URL:     rawURL,
			Snippet: snippet,
		})
		if len(results) >= max {
			break
		}
	}
	return results
}

func cleanFragment(fragment string) string {
	text := inlineRe.ReplaceAllString(fragment, "")
	text = html.UnescapeString(text)
	return strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
}
