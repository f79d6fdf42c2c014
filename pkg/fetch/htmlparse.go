package fetch

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ParsedHTML is the outcome of parsing a fetched document.
type ParsedHTML struct {
	Title        string
	Content      string
	Parser       string // "structured" or "minimal_fallback"
	FallbackUsed bool
}

// minExtractedChars below this, structured parsing is considered to have
// failed.
const minExtractedChars = 10

// minimalFallbackLimit caps the last-resort tag-strip output.
const minimalFallbackLimit = 1000

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// ParseHTMLWithFallback walks the DOM with golang.org/x/net/html to pull
// title and body text from article/main/section/div-shaped content; if that
// yields fewer than minExtractedChars it falls back to a blunt tag-strip
// over the raw markup.
func ParseHTMLWithFallback(raw string) ParsedHTML {
	if raw == "" {
		return ParsedHTML{Parser: "structured", FallbackUsed: false}
	}

	title, content, err := parseStructured(raw)
	if err == nil && len(content) >= minExtractedChars {
		return ParsedHTML{Title: title, Content: content, Parser: "structured"}
	}

	return ParsedHTML{
		Title:        title,
		Content:      minimalFallback(raw),
		Parser:       "minimal_fallback",
		FallbackUsed: true,
	}
}

func parseStructured(raw string) (title, content string, err error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = strings.TrimSpace(textOf(n))
				}
			case "script", "style", "noscript":
				return
			case "article", "main", "section", "p":
				text := strings.TrimSpace(textOf(n))
				if text != "" {
					sb.WriteString(text)
					sb.WriteString(" ")
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, whitespaceRunPattern.ReplaceAllString(strings.TrimSpace(sb.String()), " "), nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func minimalFallback(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")
	text = whitespaceRunPattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if len(text) > minimalFallbackLimit {
		text = text[:minimalFallbackLimit]
	}
	return text
}
