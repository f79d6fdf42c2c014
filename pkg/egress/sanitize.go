package egress

import "regexp"

// These patterns rely only on RE2-compatible syntax; none need backreferences.
var (
	invisibleChars = regexp.MustCompile(
		`[\x{200b}-\x{200d}\x{2060}\x{2061}\x{2062}\x{2063}\x{feff}\x{00ad}\x{034f}\x{061c}` +
			`\x{115f}\x{1160}\x{17b4}\x{17b5}\x{180e}\x{2000}-\x{200f}\x{2028}-\x{202f}` +
			`\x{205f}-\x{2064}\x{206a}-\x{206f}]`,
	)

	scriptStylePattern = regexp.MustCompile(
		`(?is)<(?:script|style|iframe|object|embed|form)[^>]*>.*?</(?:script|style|iframe|object|embed|form)>`,
	)

	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

	dataJSURIPattern = regexp.MustCompile(`(?i)(?:data|javascript|vbscript):[^\s\)\]"]*`)

	onEventPattern = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*["'][^"']*["']`)

	hiddenCSSPattern = regexp.MustCompile(
		`(?i)display\s*:\s*none|visibility\s*:\s*hidden|font-size\s*:\s*0|height\s*:\s*0|width\s*:\s*0|opacity\s*:\s*0|position\s*:\s*absolute\s*;\s*left\s*:\s*-9999`,
	)

	styleAttrPattern = regexp.MustCompile(`(?i)style\s*=\s*["']([^"']*)["']`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripInvisible removes zero-width and bidi-control characters used to hide
// text or smuggle instructions.
func StripInvisible(text string) string {
	if text == "" {
		return ""
	}
	return invisibleChars.ReplaceAllString(text, "")
}

// stripScriptsAndStyle removes script/style/iframe/object/embed/form tags
// and their content.
func stripScriptsAndStyle(html string) string {
	return scriptStylePattern.ReplaceAllString(html, " ")
}

// stripHTMLComments removes HTML comments, which can hide content.
func stripHTMLComments(html string) string {
	return htmlCommentPattern.ReplaceAllString(html, " ")
}

// stripDangerousURIs neutralizes data:/javascript:/vbscript: URIs.
func stripDangerousURIs(text string) string {
	return dataJSURIPattern.ReplaceAllString(text, " [removed]")
}

// stripEventHandlers removes on* event handler attributes.
func stripEventHandlers(html string) string {
	return onEventPattern.ReplaceAllString(html, "")
}

// stripHiddenCSSBlocks elides style="" attributes whose value hides content.
func stripHiddenCSSBlocks(html string) string {
	return styleAttrPattern.ReplaceAllStringFunc(html, func(match string) string {
		sub := styleAttrPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		if hiddenCSSPattern.MatchString(sub[1]) {
			return ""
		}
		return match
	})
}

// ContentType distinguishes HTML from plain text for SanitizeContent.
type ContentType string

// Recognized content types.
const (
	ContentHTML ContentType = "html"
	ContentText ContentType = "text"
)

// SanitizeContent strips scripts/styles/iframes/forms, HTML comments, event
// handlers, hidden-CSS blocks, dangerous URIs, and invisible characters from
// raw content, normalizes whitespace, and truncates to maxLength. It does
// not apply Unicode NFKC normalization; that omission is intentional.
func SanitizeContent(content string, contentType ContentType, maxLength int) string {
	if content == "" {
		return ""
	}

	if maxLength > 0 && len(content) > maxLength {
		content = content[:maxLength] + "..."
	}

	out := StripInvisible(content)

	if contentType == ContentHTML {
		out = stripScriptsAndStyle(out)
		out = stripHTMLComments(out)
		out = stripEventHandlers(out)
		out = stripHiddenCSSBlocks(out)
	}

	out = stripDangerousURIs(out)
	out = whitespacePattern.ReplaceAllString(out, " ")

	return trimSpace(out)
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// SanitizeForLLM strips invisible characters and dangerous URIs and
// truncates to maxLength, without the full HTML-stripping pass — for text
// that's already been extracted from HTML. Always pair with
// WrapUntrustedContent before embedding in a prompt.
func SanitizeForLLM(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	out := StripInvisible(text)
	out = stripDangerousURIs(out)
	if maxLength > 0 && len(out) > maxLength {
		out = out[:maxLength] + "... [truncated]"
	}
	return trimSpace(out)
}
