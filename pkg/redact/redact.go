// Package redact sanitizes secrets out of text before it reaches a log
// line, an error message, or a transport notification, using a single
// always-on pattern set.
package redact

import "regexp"

type pattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

var patterns = []pattern{
	{"api_key", regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{20,})["']?`), `api_key: [MASKED_API_KEY]`},
	{"password", regexp.MustCompile(`(?i)(?:password|pwd|pass)["']?\s*[:=]\s*["']?([^"'\s\n]{6,})["']?`), `password: [MASKED_PASSWORD]`},
	{"token", regexp.MustCompile(`(?i)(?:token|bearer|jwt)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-.]{20,})["']?`), `token: [MASKED_TOKEN]`},
	{"secret_key", regexp.MustCompile(`(?i)(?:secret[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-.]{20,})["']?`), `secret_key: [MASKED_SECRET_KEY]`},
	{"aws_access_key", regexp.MustCompile(`AKIA[A-Z0-9]{16}`), `[MASKED_AWS_KEY]`},
	{"aws_secret_key", regexp.MustCompile(`(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`), `aws_secret_access_key: [MASKED_AWS_SECRET]`},
	{"github_token", regexp.MustCompile(`gh[ps]_[A-Za-z0-9_]{36,255}`), `[MASKED_GITHUB_TOKEN]`},
	{"slack_token", regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,72}`), `[MASKED_SLACK_TOKEN]`},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`), `[MASKED_EMAIL]`},
}

// String replaces every recognized secret pattern in s with a masked
// placeholder. Safe to call on content of unknown origin (fetched page
// bodies, LLM output, task payloads) before it is logged or relayed.
func String(s string) string {
	masked := s
	for _, p := range patterns {
		masked = p.regex.ReplaceAllString(masked, p.replacement)
	}
	return masked
}

// Error returns err with its message run through String, or nil if err is
// nil. Used before an error crosses a logging or notification boundary.
func Error(err error) error {
	if err == nil {
		return nil
	}
	return redactedError{msg: String(err.Error())}
}

type redactedError struct{ msg string }

func (e redactedError) Error() string { return e.msg }
