package note

import "testing"

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		width   int
		want    string
	}{
		{"empty", "", 20, ""},
		{"plain", "buy milk", 0, "buy milk"},
		{"heading and emphasis", "# Standup\n\nDiscuss **release** plan", 0, "Standup Discuss release plan"},
		{"list", "- eggs\n- bread", 0, "eggs bread"},
		{"soft break", "line one\nline two", 0, "line one line two"},
		{"truncated", "abcdefghijklmnop", 8, "abcdefg…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.content, tt.width); got != tt.want {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.content, tt.width, got, tt.want)
			}
		})
	}
}
