package utils_test

import (
	"testing"

	"github.com/robalyx/vigil/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain ascii unchanged",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "case preserved",
			input:    "Hello World",
			expected: "Hello World",
		},
		{
			name:     "diacritics removed",
			input:    "héllo wörld",
			expected: "hello world",
		},
		{
			name:     "mathematical alphanumerics folded",
			input:    "𝗁𝖾𝗅𝗅𝗈",
			expected: "hello",
		},
		{
			name:     "fullwidth folded",
			input:    "ｈｅｌｌｏ",
			expected: "hello",
		},
		{
			name:     "spacing preserved",
			input:    "one  two\nthree",
			expected: "one  two\nthree",
		},
		{
			name:     "mixed adversarial text",
			input:    "ｙöü ａrë tëｒｒｉｂｌé",
			expected: "you are terrible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, utils.NormalizeText(tt.input))
		})
	}
}
