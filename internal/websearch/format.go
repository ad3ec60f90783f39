package websearch

import (
	"fmt"
	"strings"
)

// FormatContext renders results into one labelled block per source,
// ready for inclusion in a prompt.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return "No search results found."
	}

	parts := []string{"Here are the web search results:\n"}
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("--- Source %d: %s ---", i+1, r.Title))
		parts = append(parts, fmt.Sprintf("URL: %s", r.URL))

		content := r.Content
		if content == "" {
			content = r.Snippet
		}
		if content != "" {
			parts = append(parts, "\n"+content+"\n")
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}
