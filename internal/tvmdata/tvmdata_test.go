package tvmdata

import "testing"

func TestBuilderRoundTripsUint(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreUint(42, 16); err != nil {
		t.Fatalf("StoreUint failed: %v", err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if c.BitLen != 16 {
		t.Fatalf("expected 16 bits, got %d", c.BitLen)
	}
	s := NewSlice(c)
	v, err := s.LoadUint(16)
	if err != nil {
		t.Fatalf("LoadUint failed: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestBuilderRoundTripsNegativeInt(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreInt(-5, 8); err != nil {
		t.Fatalf("StoreInt failed: %v", err)
	}
	c, _ := b.Build()
	s := NewSlice(c)
	v, err := s.LoadInt(8)
	if err != nil {
		t.Fatalf("LoadInt failed: %v", err)
	}
	if v != -5 {
		t.Errorf("expected -5, got %d", v)
	}
}

func TestBuilderRejectsOverflow(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreUint(0, MaxCellBits+1); err == nil {
		t.Error("expected StoreUint to reject a bit size larger than the cell limit")
	}
}

func TestStoreRefRespectsMaxRefs(t *testing.T) {
	b := NewBuilder()
	leaf, _ := NewBuilder().Build()
	for i := 0; i < MaxCellRefs; i++ {
		if err := b.StoreRef(leaf); err != nil {
			t.Fatalf("StoreRef %d failed: %v", i, err)
		}
	}
	if err := b.StoreRef(leaf); err == nil {
		t.Error("expected a 5th ref to be rejected")
	}
}

func TestParseHexLiteral(t *testing.T) {
	n, err := BitLen("x1A2B")
	if err != nil {
		t.Fatalf("BitLen failed: %v", err)
	}
	if n != 16 {
		t.Errorf("expected 16 bits for 4 hex nibbles, got %d", n)
	}
}

func TestParseStringLiteral(t *testing.T) {
	c, err := ParseLiteral("hi")
	if err != nil {
		t.Fatalf("ParseLiteral failed: %v", err)
	}
	if c.BitLen != 16 {
		t.Errorf("expected 16 bits for a 2-byte string, got %d", c.BitLen)
	}
	s := NewSlice(c)
	v, err := s.LoadUint(8)
	if err != nil {
		t.Fatalf("LoadUint failed: %v", err)
	}
	if v != uint64('h') {
		t.Errorf("expected first byte 'h' (%d), got %d", 'h', v)
	}
}
