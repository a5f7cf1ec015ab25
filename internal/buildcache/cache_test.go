package buildcache

import (
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLookupMissOnEmptyCache(t *testing.T) {
	c := openTestCache(t)
	key := Key([]byte("fn add(x: int, y: int): int { return x + y; }"), 2, nil)
	if _, ok, err := c.Lookup(key); err != nil || ok {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestStoreThenLookupRoundTrips(t *testing.T) {
	c := openTestCache(t)
	src := []byte("fn add(x: int, y: int): int { return x + y; }")
	key := Key(src, 2, []string{"compute_asm_ltr"})

	if err := c.Store(key, "add PROC:<{\n  ADD\n}>\n", src); err != nil {
		t.Fatalf("Store: %v", err)
	}

	asm, ok, err := c.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if asm == "" {
		t.Error("expected non-empty cached assembly")
	}

	n, err := c.Len()
	if err != nil || n != 1 {
		t.Fatalf("expected 1 cached entry, got %d (err=%v)", n, err)
	}
}

func TestKeyVariesWithOptLevelAndPragmas(t *testing.T) {
	src := []byte("fn f(): int { return 0; }")
	k1 := Key(src, 0, nil)
	k2 := Key(src, 2, nil)
	k3 := Key(src, 2, []string{"allow_post_modification"})

	if k1 == k2 {
		t.Error("expected different keys for different optimization levels")
	}
	if k2 == k3 {
		t.Error("expected different keys for different pragma sets")
	}
}

func TestStoreOverwritesExistingKey(t *testing.T) {
	c := openTestCache(t)
	src := []byte("fn f(): int { return 0; }")
	key := Key(src, 2, nil)

	if err := c.Store(key, "old\n", src); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Store(key, "new\n", src); err != nil {
		t.Fatalf("Store: %v", err)
	}

	asm, ok, err := c.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if asm != "new\n" {
		t.Errorf("expected the later write to win, got %q", asm)
	}

	n, _ := c.Len()
	if n != 1 {
		t.Errorf("expected overwrite to keep a single row, got %d", n)
	}
}

func TestCleanRemovesEverything(t *testing.T) {
	c := openTestCache(t)
	src := []byte("fn f(): int { return 0; }")
	key := Key(src, 2, nil)
	if err := c.Store(key, "asm\n", src); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, ok, _ := c.Lookup(key); ok {
		t.Error("expected Clean to remove the cached entry")
	}
}
