package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "soft hyphens removed",
			in:   "secu­rity",
			want: "security",
		},
		{
			name: "unicode hyphen normalized",
			in:   "state‐of the art",
			want: "state-of the art",
		},
		{
			name: "hyphenated line break rejoined",
			in:   "distri-\nbution",
			want: "distribution",
		},
		{
			name: "hyphenated line break with trailing spaces",
			in:   "distri-  \n  bution",
			want: "distribution",
		},
		{
			name: "single line break becomes space",
			in:   "first line\nsecond line",
			want: "first line second line",
		},
		{
			name: "paragraph boundary preserved",
			in:   "first paragraph\n\n\n\nsecond paragraph",
			want: "first paragraph\n\nsecond paragraph",
		},
		{
			name: "double newline kept as paragraph",
			in:   "a\n\nb",
			want: "a\n\nb",
		},
		{
			name: "horizontal whitespace collapsed",
			in:   "too   many\t\tspaces",
			want: "too many spaces",
		},
		{
			name: "leading and trailing whitespace trimmed",
			in:   "  \n padded \n\t",
			want: "padded",
		},
		{
			name: "windows line endings",
			in:   "one\r\ntwo",
			want: "one two",
		},
		{
			name: "whitespace around breaks folded before collapsing",
			in:   "one  \n  \n  \n two",
			want: "one\n\ntwo",
		},
		{
			name: "turkish text with hyphenation",
			in:   "güven-\nlik testi",
			want: "güvenlik testi",
		},
		{
			name: "whitespace only",
			in:   " \n \t ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	raw := "A docu-\nment  with\nmessy ­ text\n\n\n\nand paragraphs."
	once := Clean(raw)
	assert.Equal(t, once, Clean(once))
}
