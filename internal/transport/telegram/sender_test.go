package telegram

import (
	"strings"
	"testing"
)

func TestSplitHTML(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		chunks int
	}{
		{
			name:   "short text stays whole",
			text:   "hello",
			maxLen: 100,
			chunks: 1,
		},
		{
			name:   "long text splits",
			text:   strings.Repeat("x", 250),
			maxLen: 100,
			chunks: 3,
		},
		{
			name:   "prefers newline break",
			text:   strings.Repeat("line\n", 30),
			maxLen: 60,
			chunks: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitHTML(tt.text, tt.maxLen)
			if len(chunks) != tt.chunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.chunks)
			}
			for i, c := range chunks {
				if len(c) > tt.maxLen {
					t.Errorf("chunk %d is %d bytes, limit %d", i, len(c), tt.maxLen)
				}
			}
		})
	}
}
