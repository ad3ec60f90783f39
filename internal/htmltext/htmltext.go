// Package htmltext converts HTML markup to plain text using pattern
// matching over the raw markup. It is deliberately not a structural
// parser; callers that outgrow the heuristics can swap the package
// without touching call sites.
package htmltext

import (
	"html"
	"regexp"
	"strings"
)

var (
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	ogTitleRe = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:title["'][^>]*content=["']([^"']*)["']`)
	h1Re      = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	articleRe = regexp.MustCompile(`(?is)<article[^>]*>(.*?)</article>`)
	mainRe    = regexp.MustCompile(`(?is)<main[^>]*>(.*?)</main>`)
	paraRe    = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	anyTagRe  = regexp.MustCompile(`<[^>]*>`)
	blockRe   = regexp.MustCompile(`(?i)</?(?:p|div|h[1-6]|li|ul|ol|tr|td|th|table|section|blockquote|pre)[^>]*>|<br[^>]*>`)
	spaceRe   = regexp.MustCompile(`[^\S\n]+`)
	blankRe   = regexp.MustCompile(`\n{3,}`)
)

// chrome tags carry navigation and boilerplate, never article content.
var chromeTags = []string{"script", "style", "noscript", "nav", "header", "footer"}

// articleChromeTags are additionally stripped when hunting for article text.
var articleChromeTags = []string{"aside", "form", "iframe"}

// minParagraphLen filters out navigation stubs and button labels when
// falling back to paragraph extraction.
const minParagraphLen = 30

// Title returns the page title, trying <title>, then og:title, then the
// first <h1>. Empty string when none is present.
func Title(page string) string {
	page = commentRe.ReplaceAllString(page, "")
	for _, re := range []*regexp.Regexp{titleRe, ogTitleRe, h1Re} {
		if m := re.FindStringSubmatch(page); len(m) > 1 {
			if t := clean(stripTags(m[1])); t != "" {
				return t
			}
		}
	}
	return ""
}

// DocumentText extracts the full readable text of a page: chrome and
// comments stripped, block boundaries preserved as line breaks, entities
// decoded, whitespace collapsed. Used when a whole page is the document,
// as in URL ingestion.
func DocumentText(page string) string {
	page = commentRe.ReplaceAllString(page, "")
	for _, tag := range chromeTags {
		page = removeTag(page, tag)
	}
	return clean(stripTags(page))
}

// ArticleText extracts the main article body, preferring <article>, then
// <main>, then the page's paragraph tags. Paragraphs shorter than
// minParagraphLen characters are dropped; the survivors are joined with
// blank lines. Empty string when nothing substantial remains.
func ArticleText(page string) string {
	page = commentRe.ReplaceAllString(page, "")
	for _, tag := range chromeTags {
		page = removeTag(page, tag)
	}
	for _, tag := range articleChromeTags {
		page = removeTag(page, tag)
	}

	for _, re := range []*regexp.Regexp{articleRe, mainRe} {
		if m := re.FindStringSubmatch(page); len(m) > 1 {
			if text := paragraphs(m[1]); text != "" {
				return text
			}
		}
	}
	return paragraphs(page)
}

// paragraphs collects the text of every <p> block longer than
// minParagraphLen, joined by blank lines. When the fragment has no <p>
// tags at all, the whole fragment's text is returned instead so pages
// with bare-text articles still yield content.
func paragraphs(fragment string) string {
	matches := paraRe.FindAllStringSubmatch(fragment, -1)
	if len(matches) == 0 {
		return clean(stripTags(fragment))
	}

	var parts []string
	for _, m := range matches {
		p := clean(stripTags(m[1]))
		if len(p) > minParagraphLen {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// removeTag deletes a tag together with its contents.
func removeTag(page, tag string) string {
	re := regexp.MustCompile(`(?is)<` + tag + `[^>\w][^>]*>.*?</` + tag + `>|<` + tag + `>.*?</` + tag + `>`)
	return re.ReplaceAllString(page, "")
}

// stripTags turns block-level tags into newlines and deletes the rest.
func stripTags(fragment string) string {
	fragment = blockRe.ReplaceAllString(fragment, "\n")
	return anyTagRe.ReplaceAllString(fragment, " ")
}

// clean decodes entities and normalises whitespace, keeping at most one
// blank line between blocks.
func clean(text string) string {
	text = html.UnescapeString(text)
	// NBSP is not \s to the regexp engine.
	text = strings.ReplaceAll(text, " ", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
