package helpers

import "testing"

func TestStripHTML(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "removes tags and scripts", in: `<p>Hello <strong>world</strong><script>alert('x')</script></p>`, want: "Hello world"},
		{name: "keeps words apart", in: `<li>one</li><li>two</li>`, want: "one two"},
		{name: "decodes entities", in: `Fish &amp; Chips`, want: "Fish & Chips"},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripHTML(tt.in); got != tt.want {
				t.Fatalf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
