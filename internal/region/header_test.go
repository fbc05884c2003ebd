package region

import "testing"

func TestHeaderPackRoundTrip(t *testing.T) {
	cases := []struct {
		kind    Kind
		balance int
		isLast  bool
		size    uint64
		prev    uint64
	}{
		{Allocated, 0, false, 1, 0},
		{Free, 1, true, 1 << 20, 7},
		{SmallFree, -1, false, 1, prevMask},
		{BigAllocated, -2, true, sizeMask, prevMask},
	}

	for _, c := range cases {
		h := pack(c.kind, c.balance, c.isLast, c.size, c.prev)
		if got := h.Type(); got != c.kind {
			t.Errorf("Type() = %v, want %v", got, c.kind)
		}
		if got := h.Balance(); got != c.balance {
			t.Errorf("Balance() = %d, want %d", got, c.balance)
		}
		if got := h.IsLast(); got != c.isLast {
			t.Errorf("IsLast() = %v, want %v", got, c.isLast)
		}
		if got := h.Size(); got != c.size {
			t.Errorf("Size() = %d, want %d", got, c.size)
		}
		if got := h.Prev(); got != c.prev {
			t.Errorf("Prev() = %d, want %d", got, c.prev)
		}
	}
}

func TestHeaderWithSetters(t *testing.T) {
	h := Header(0)
	h = h.WithType(Free)
	h = h.WithBalance(-1)
	h = h.WithLast(true)
	h = h.WithSize(123)
	h = h.WithPrev(456)

	if h.Type() != Free || h.Balance() != -1 || !h.IsLast() || h.Size() != 123 || h.Prev() != 456 {
		t.Fatalf("unexpected header after setters: %+v", h)
	}

	h2 := h.WithType(Allocated)
	if h2.Balance() != -1 || !h2.IsLast() || h2.Size() != 123 || h2.Prev() != 456 {
		t.Fatalf("WithType must preserve other fields, got %+v", h2)
	}
}

func TestSizeBigRoundTrip(t *testing.T) {
	h := Header(0).WithType(BigAllocated).WithSizeBig(1 << 40)
	if got := h.SizeBig(); got != 1<<40 {
		t.Fatalf("SizeBig() = %d, want %d", got, uint64(1)<<40)
	}
}

func TestLoadStore(t *testing.T) {
	buf := make([]byte, 64)
	addr := uintptrOfSlice(buf)

	h := Header(0).WithType(Free).WithBalance(1).WithSize(9)
	Store(addr, h)

	got := Load(addr)
	if got != h {
		t.Fatalf("Load() = %#x, want %#x", uint64(got), uint64(h))
	}
}

func TestAlignUpAndGranules(t *testing.T) {
	if got := AlignUp(17, 16); got != 32 {
		t.Errorf("AlignUp(17,16) = %d, want 32", got)
	}
	if got := AlignUp(16, 16); got != 16 {
		t.Errorf("AlignUp(16,16) = %d, want 16", got)
	}
	if got := CeilGranules(17); got != 2 {
		t.Errorf("CeilGranules(17) = %d, want 2", got)
	}
	if got := SizeBytes(2); got != 32 {
		t.Errorf("SizeBytes(2) = %d, want 32", got)
	}
}
