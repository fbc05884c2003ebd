package freetree

import (
	"math/rand"
	"runtime"
	"testing"
	"unsafe"

	"github.com/disba1ancer/container-test/internal/region"
)

// makeFreeRegions carves count independent Free regions out of
// Go-heap-backed scratch memory, each sizes[i]*region.Granularity
// bytes, so each has a known span for keying. The backing buffers are returned so callers can
// runtime.KeepAlive them.
func makeFreeRegions(t *testing.T, sizesGranules []uint64) (bufs [][]byte, addrs []uintptr) {
	t.Helper()
	for _, g := range sizesGranules {
		buf := make([]byte, int(region.SizeBytes(g))+region.Granularity)
		base := region.AlignUp(uintptrOfSlice(buf), region.Granularity)
		region.ConstructChunk(base, region.SizeBytes(g), 0)
		region.Retype(base, region.Free)
		bufs = append(bufs, buf)
		addrs = append(addrs, base)
	}
	return bufs, addrs
}

func uintptrOfSlice(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

func TestInsertLowerBoundErase(t *testing.T) {
	sizes := []uint64{2, 10, 5, 2, 20, 8} // granules; all >= FreeNodeFootprint/Granularity
	bufs, addrs := makeFreeRegions(t, sizes)
	defer runtime.KeepAlive(bufs)

	var tr Tree
	for _, a := range addrs {
		tr.Insert(a)
	}

	if got := region.GetSize(tr.LowerBound(6)); got != 8 {
		t.Fatalf("LowerBound(6) size = %d, want 8", got)
	}
	if got := region.GetSize(tr.LowerBound(20)); got != 20 {
		t.Fatalf("LowerBound(20) size = %d, want 20", got)
	}
	if tr.LowerBound(21) != 0 {
		t.Fatalf("LowerBound(21) should find nothing")
	}

	assertAVL(t, tr.Root())

	// Erase every node in a shuffled order and check the tree stays a
	// valid AVL tree after each erase and is empty at the end.
	order := append([]uintptr{}, addrs...)
	rand.New(rand.NewSource(1)).Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, a := range order {
		tr.Erase(a)
		assertAVL(t, tr.Root())
	}
	if !tr.Empty() {
		t.Fatal("tree must be empty after erasing every node")
	}
}

func TestInsertManyRandomSizesStaysBalanced(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	n := 200
	sizes := make([]uint64, n)
	for i := range sizes {
		sizes[i] = uint64(2 + r.Intn(500))
	}
	bufs, addrs := makeFreeRegions(t, sizes)
	defer runtime.KeepAlive(bufs)

	var tr Tree
	for _, a := range addrs {
		tr.Insert(a)
		assertAVL(t, tr.Root())
	}

	// in-order iteration must be non-decreasing in size (P6).
	prev := uint64(0)
	for n := tr.First(); n != 0; n = Next(n) {
		sz := region.GetSize(n)
		if sz < prev {
			t.Fatalf("tree iteration out of order: %d after %d", sz, prev)
		}
		prev = sz
	}

	// erase half, in insertion order, rechecking balance each time.
	for i := 0; i < len(addrs); i += 2 {
		tr.Erase(addrs[i])
		assertAVL(t, tr.Root())
	}
}

// assertAVL walks the tree checking the |height(left)-height(right)|<=1
// invariant (P7) at every node, and that parent pointers agree with
// child pointers.
func assertAVL(t *testing.T, node uintptr) {
	t.Helper()
	if node == 0 {
		return
	}
	lh := Height(left(node))
	rh := Height(right(node))
	diff := lh - rh
	if diff < -1 || diff > 1 {
		t.Fatalf("AVL violation at %#x: height(left)=%d height(right)=%d", node, lh, rh)
	}
	if l := left(node); l != 0 && parent(l) != node {
		t.Fatalf("left child %#x of %#x has wrong parent", l, node)
	}
	if r := right(node); r != 0 && parent(r) != node {
		t.Fatalf("right child %#x of %#x has wrong parent", r, node)
	}
	assertAVL(t, left(node))
	assertAVL(t, right(node))
}
