package s3

import (
	"context"
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	cases := []struct {
		prefix, key, want string
	}{
		{"", "abc.doc", "abc.doc"},
		{"documents", "abc.doc", "documents/abc.doc"},
		{"/documents/", "abc.doc", "documents/abc.doc"},
		{"documents", "/abc.doc", "documents/abc.doc"},
		{"documents", "", "documents"},
	}
	for _, tc := range cases {
		if got := applyPrefix(tc.prefix, tc.key); got != tc.want {
			t.Errorf("applyPrefix(%q, %q) = %q, want %q", tc.prefix, tc.key, got, tc.want)
		}
	}
}

func TestNormalizePrefix(t *testing.T) {
	if got := normalizePrefix("  /sow/uploads/ "); got != "sow/uploads" {
		t.Fatalf("unexpected prefix %q", got)
	}
	if got := normalizePrefix(""); got != "" {
		t.Fatalf("expected empty prefix, got %q", got)
	}
}

func TestCountingReader(t *testing.T) {
	c := &countingReader{r: strings.NewReader("12345")}
	buf := make([]byte, 2)
	total := 0
	for {
		n, err := c.Read(buf)
		total += n
		if err != nil {
			break
		}
	}
	if c.n != 5 || total != 5 {
		t.Fatalf("expected 5 bytes counted, got %d", c.n)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), "us-east-1", "", "", ""); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}
