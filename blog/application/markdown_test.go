package application

import (
	"strings"
	"testing"
)

func TestParseBodyFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected BodyFormat
		wantErr  bool
	}{
		{input: "", expected: FormatHTML},
		{input: "HTML", expected: FormatHTML},
		{input: "markdown", expected: FormatMarkdown},
		{input: "md", expected: FormatMarkdown},
		{input: "rst", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseBodyFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBodyFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("ParseBodyFormat(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsRelativeLink(t *testing.T) {
	tests := []struct {
		dest     string
		expected bool
	}{
		{dest: "cat.png", expected: true},
		{dest: "./2025/01/cat.png", expected: true},
		{dest: "/images/cat.png", expected: false},
		{dest: "//cdn.example.com/cat.png", expected: false},
		{dest: "https://example.com/cat.png", expected: false},
		{dest: "data:image/png;base64,AAAA", expected: false},
		{dest: "#top", expected: false},
		{dest: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			if result := isRelativeLink(tt.dest); result != tt.expected {
				t.Errorf("isRelativeLink(%q) = %v, want %v", tt.dest, result, tt.expected)
			}
		})
	}
}

func TestMarkdownRenderer_Render(t *testing.T) {
	renderer := NewMarkdownRenderer("/images")

	tests := []struct {
		name     string
		markdown string
		contains []string
	}{
		{
			name:     "Paragraph and emphasis",
			markdown: "Hej **världen**",
			contains: []string{"<p>Hej <strong>världen</strong></p>"},
		},
		{
			name:     "Relative image is rooted under images",
			markdown: "![katt](2025/01/katt.png)",
			contains: []string{`src="/images/2025/01/katt.png"`},
		},
		{
			name:     "Absolute image untouched",
			markdown: "![katt](https://example.com/katt.png)",
			contains: []string{`src="https://example.com/katt.png"`},
		},
		{
			name:     "Strikethrough",
			markdown: "~~old~~",
			contains: []string{"<del>old</del>"},
		},
		{
			name:     "Raw HTML passes through",
			markdown: "<div class=\"note\">hi</div>",
			contains: []string{`<div class="note">hi</div>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderer.Render([]byte(tt.markdown))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(string(result), want) {
					t.Errorf("Render() = %q, want it to contain %q", result, want)
				}
			}
		})
	}
}
