package realtime

import "testing"

func TestBuildKeyNormalizesCaseAndWhitespace(t *testing.T) {
	c := &QueryCache{}
	a := c.buildKey("  Quick   Fox ", 10)
	b := c.buildKey("quick fox", 10)
	if a != b {
		t.Fatalf("expected normalized queries to share a cache key: %q vs %q", a, b)
	}
}

func TestBuildKeyDiffersByTopK(t *testing.T) {
	c := &QueryCache{}
	a := c.buildKey("quick fox", 10)
	b := c.buildKey("quick fox", 20)
	if a == b {
		t.Fatalf("expected different top_k to produce different cache keys")
	}
}
