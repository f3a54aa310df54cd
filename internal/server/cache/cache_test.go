package cache

import (
	"strings"
	"testing"

	"github.com/narongchai190/soiler/pkg/config"
)

func TestBuildKey(t *testing.T) {
	c := New(nil, config.RedisConfig{})

	// Word order and case do not change the key.
	a := c.buildKey("Soil pH Correction", 3)
	b := c.buildKey("correction soil ph", 3)
	if a != b {
		t.Errorf("equivalent queries got different keys: %q vs %q", a, b)
	}

	// topK is part of the key.
	if c.buildKey("soil", 3) == c.buildKey("soil", 5) {
		t.Error("different topK must produce different keys")
	}
	if c.buildKey("soil", 3) == c.buildKey("lime", 3) {
		t.Error("different queries must produce different keys")
	}

	if !strings.HasPrefix(a, keyPrefix) {
		t.Errorf("key %q missing prefix %q", a, keyPrefix)
	}
	// Raw user input never appears in the key.
	if strings.Contains(a, "soil") {
		t.Errorf("key %q leaks query text", a)
	}
}
