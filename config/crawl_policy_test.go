package config

import "testing"

func TestCrawlPolicyNormalize(t *testing.T) {
	cfg := CrawlPolicyConfig{
		Allow:    []string{"Example.com", "https://news.example.com", "EXAMPLE.com"},
		Disallow: []string{"www.Example.org", "bad.com:443", " "},
	}

	norm := cfg.Normalize()
	if len(norm.Allow) != 2 || norm.Allow[0] != "example.com" || norm.Allow[1] != "news.example.com" {
		t.Fatalf("unexpected allow list: %#v", norm.Allow)
	}
	if len(norm.Disallow) != 2 || norm.Disallow[0] != "bad.com" || norm.Disallow[1] != "example.org" {
		t.Fatalf("unexpected disallow list: %#v", norm.Disallow)
	}
}

func TestCrawlPolicyValidate(t *testing.T) {
	valid := CrawlPolicyConfig{
		Allow:    []string{"example.com"},
		Disallow: []string{"blocked.com"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	conflict := CrawlPolicyConfig{
		Allow:    []string{"example.com"},
		Disallow: []string{"https://www.example.com"},
	}
	if err := conflict.Validate(); err == nil {
		t.Fatalf("expected conflict validation error")
	}
}

func TestCrawlPolicyAllows(t *testing.T) {
	t.Parallel()
	open := CrawlPolicyConfig{Disallow: []string{"blocked.com"}}
	strict := CrawlPolicyConfig{Allow: []string{"example.com"}, Disallow: []string{"private.example.com"}}

	tests := []struct {
		name   string
		policy CrawlPolicyConfig
		host   string
		want   bool
	}{
		{"empty policy allows", CrawlPolicyConfig{}, "anything.io", true},
		{"empty host denied", open, "", false},
		{"disallowed host", open, "blocked.com", false},
		{"disallowed subdomain", open, "cdn.blocked.com", false},
		{"suffix is not a subdomain", open, "notblocked.com", true},
		{"www and port ignored", open, "WWW.Blocked.com:8443", false},
		{"allow list match", strict, "example.com", true},
		{"allow list subdomain", strict, "blog.example.com", true},
		{"outside allow list", strict, "other.com", false},
		{"disallow beats allow", strict, "private.example.com", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.policy.Allows(tt.host); got != tt.want {
				t.Fatalf("Allows(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}
