package document

import (
	"regexp"
	"strings"
)

const softHyphen = "­"

var (
	// A word split across a line break by a hyphen is rejoined.
	dehyphenRE = regexp.MustCompile(`([\p{L}\p{N}])-[ \t]*\n[ \t]*([\p{L}\p{N}])`)
	// Horizontal whitespace hugging a line break is folded into the break.
	breakWSRE = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	multiNLRE = regexp.MustCompile(`\n{3,}`)
	hspaceRE  = regexp.MustCompile(`[ \t]+`)
)

// Clean normalizes raw extracted text into a canonical string: soft hyphens
// are removed, words hyphenated across line breaks are rejoined, runs of 3+
// newlines collapse to a paragraph boundary of exactly two, remaining single
// line breaks become one space, and horizontal whitespace runs become one
// space. Malformed input degrades to an empty or partially cleaned string,
// never an error.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, softHyphen, "")
	text = strings.ReplaceAll(text, "‐", "-")
	// NUL cannot appear in cleaned text; it separates content identifier
	// fields and serves as a placeholder below.
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	text = dehyphenRE.ReplaceAllString(text, "$1$2")
	text = breakWSRE.ReplaceAllString(text, "\n")
	text = multiNLRE.ReplaceAllString(text, "\n\n")

	// Collapse single line breaks to spaces while preserving paragraph
	// boundaries.
	text = strings.ReplaceAll(text, "\n\n", "\x00")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\x00", "\n\n")

	text = hspaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
