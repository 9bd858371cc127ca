package sanitize

import (
	"regexp"
	"strconv"
	"strings"
)

// RedactionMarker replaces every detected access-token literal.
const RedactionMarker = "[REDACTED-TOKEN]"

var (
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	imageAltPattern    = regexp.MustCompile(`!\[[^\]\n]*\]\(`)
	// [text](url "title") / [text](url 'title') -> [text](url)
	linkTitlePattern = regexp.MustCompile(`(\[[^\]\n]*\]\(\s*[^)\s]+)\s+(?:"[^"]*"|'[^']*')\s*\)`)
	htmlTagPattern   = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	// attributes that can smuggle text invisible to a human reader
	hiddenAttrPattern  = regexp.MustCompile(`(?i)\s+(?:alt|title|aria-label|placeholder|data-[\w-]*)\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	numericEntity      = regexp.MustCompile(`&#(?:[0-9]{1,7}|[xX][0-9a-fA-F]{1,6});`)
	accessTokenPattern = regexp.MustCompile(`\bgl(?:pat|ptt|dt|rt|ft|imt|agent|oas|soat|cbt)-[0-9A-Za-z_\-]{10,}`)
)

// passLimit bounds the rewrite loop. No pass grows the text, so the loop
// terminates on its own; the limit guards against a pathological regression.
const passLimit = 10

// Sanitize strips content a GitLab user can hide from human reviewers but
// an agent would still read: HTML comments, invisible characters, alt/title
// text, out-of-range HTML entities. It also redacts access-token literals.
// The stages run in a fixed order and repeat until the text stops changing:
// entity decoding can reassemble input for an earlier stage (an encoded
// comment delimiter, a nested entity), which the next pass removes.
// Total and idempotent, safe on empty input.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	for i := 0; i < passLimit; i++ {
		next := sanitizeOnce(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func sanitizeOnce(text string) string {
	text = htmlCommentPattern.ReplaceAllString(text, "")
	text = stripInvisible(text)
	text = imageAltPattern.ReplaceAllString(text, "![](")
	text = linkTitlePattern.ReplaceAllString(text, "$1)")
	text = stripHiddenAttributes(text)
	text = decodePrintableEntities(text)
	text = accessTokenPattern.ReplaceAllString(text, RedactionMarker)
	return text
}

// stripInvisible removes control characters (keeping tab, newline and
// carriage return), zero-width characters, soft hyphens and
// bidirectional-override marks.
func stripInvisible(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return r
		}
		if r < 0x20 || r == 0x7F {
			return -1
		}
		switch {
		case r == '\u00AD': // soft hyphen
			return -1
		case r >= '\u200B' && r <= '\u200F': // zero-width + direction marks
			return -1
		case r >= '\u202A' && r <= '\u202E': // bidi embedding/override
			return -1
		case r >= '\u2060' && r <= '\u2064': // word joiner, invisible operators
			return -1
		case r >= '\u2066' && r <= '\u2069': // bidi isolates
			return -1
		case r == '\uFEFF': // BOM / zero-width no-break space
			return -1
		}
		return r
	}, text)
}

// stripHiddenAttributes drops text-carrying attributes inside HTML tags only,
// leaving attribute-like prose outside tags untouched.
func stripHiddenAttributes(text string) string {
	return htmlTagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		return hiddenAttrPattern.ReplaceAllString(tag, "")
	})
}

// decodePrintableEntities decodes numeric and hex HTML entities that map to
// printable ASCII (32-126) and drops all others. Decoding only the printable
// range keeps entities from re-introducing the invisible characters removed
// earlier.
func decodePrintableEntities(text string) string {
	return numericEntity.ReplaceAllStringFunc(text, func(entity string) string {
		body := entity[2 : len(entity)-1]
		var code int64
		var err error
		if body[0] == 'x' || body[0] == 'X' {
			code, err = strconv.ParseInt(body[1:], 16, 32)
		} else {
			code, err = strconv.ParseInt(body, 10, 32)
		}
		if err != nil || code < 32 || code > 126 {
			return ""
		}
		return string(rune(code))
	})
}
