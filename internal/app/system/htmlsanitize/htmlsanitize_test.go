package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/campushub/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello, World!", "Hello, World!"},
		{"safe formatting", "<p><strong>Bold</strong> and <em>italic</em></p>", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"lists", "<ul><li>one</li><li>two</li></ul>", "<ul><li>one</li><li>two</li></ul>"},
		{"script removed", "<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"iframe removed", `<p>x</p><iframe src="https://evil.example"></iframe>`, "<p>x</p>"},
		{"style removed", "<style>p{color:red}</style><p>x</p>", "<p>x</p>"},
		{"table stripped", "<table><tr><td>Cell</td></tr></table>", "Cell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Links(t *testing.T) {
	safe := htmlsanitize.Sanitize(`<a href="https://example.com">Link</a>`)
	if !strings.Contains(safe, `href="https://example.com"`) {
		t.Errorf("expected safe link preserved, got %q", safe)
	}
	if !strings.Contains(safe, "nofollow") {
		t.Errorf("expected rel=nofollow, got %q", safe)
	}

	js := htmlsanitize.Sanitize(`<a href="javascript:alert('xss')">Click</a>`)
	if strings.Contains(js, "javascript:") {
		t.Errorf("javascript: href survived: %q", js)
	}

	handler := htmlsanitize.Sanitize(`<p onclick="alert(1)">Click</p>`)
	if strings.Contains(handler, "onclick") {
		t.Errorf("onclick survived: %q", handler)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"no tags here", true},
		{"2 > 1 and 1 < 2", true},
		{"<p>tag</p>", false},
		{"line<br>break", false},
	}
	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	got := htmlsanitize.PlainTextToHTML("a & b\nline <2>")
	want := "a &amp; b<br>line &lt;2&gt;"
	if got != want {
		t.Errorf("PlainTextToHTML = %q, want %q", got, want)
	}
}

func TestPreparePost(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"blank", "   \n ", ""},
		{"plain", "  hello\nworld  ", "hello<br>world"},
		{"html", "<p>hi</p><script>x()</script>", "<p>hi</p>"},
		{"only script", "<script>x()</script>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PreparePost(tt.input); got != tt.want {
				t.Errorf("PreparePost(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
