package region

// FitKind decides whether a span of the given granule count can host
// Free's tree linkage (Free) or must remain unindexed (SmallFree).
func FitKind(granules uint64) Kind {
	if SizeBytes(granules) >= FreeNodeFootprint {
		return Free
	}
	return SmallFree
}

// ConstructChunk installs a fresh BigAllocated header at addr spanning
// sizeBytes, recording offset (the slack between the OS reservation's
// base and addr — see internal/chunkmem.Reserve). This is the shape
// every new chunk, and every direct big-path allocation, begins life
// as (spec §4.2, §4.4).
func ConstructChunk(addr, sizeBytes, offset uintptr) {
	h := Header(0).WithType(BigAllocated).WithBalance(0).WithLast(true).WithSizeBig(Granules(sizeBytes))
	Store(addr, h)
	SetOffset(addr, offset)
}

// Retype destroys addr's current kind-specific view and reconstructs
// it under newKind, preserving the balance/isLast/size/prev bits. The
// one exception is converting out of BigAllocated, whose size lives in
// the size+prev pair rather than size alone; Retype folds that back
// into a plain size field so the region behaves like any other region
// from this point on. Callers must ensure a region is large enough to
// carry Free's linkage before retyping to Free.
func Retype(addr uintptr, newKind Kind) {
	old := Load(addr)

	var granules uint64
	if old.Type() == BigAllocated {
		granules = old.SizeBig()
	} else {
		granules = old.Size()
	}

	if newKind == Free && SizeBytes(granules) < FreeNodeFootprint {
		panic("region: Retype to Free on a region too small for free-node linkage")
	}

	destroyView(addr, old.Type())

	h := old.WithType(newKind)
	if old.Type() == BigAllocated && newKind != BigAllocated {
		h = h.WithSize(granules).WithPrev(0)
	}
	Store(addr, h)

	if newKind == Free {
		SetParent(addr, 0)
		SetLeft(addr, 0)
		SetRight(addr, 0)
	}
}

// sizeGranules returns addr's total span (header + payload) in
// granules, using the size+prev pair for BigAllocated and the plain
// size field otherwise.
func sizeGranules(h Header) uint64 {
	if h.Type() == BigAllocated {
		return h.SizeBig()
	}
	return h.Size()
}

// GetSize returns addr's total span in granules.
func GetSize(addr uintptr) uint64 { return sizeGranules(Load(addr)) }

// GetSizeBig is GetSize for a region known to be BigAllocated.
func GetSizeBig(addr uintptr) uint64 { return Load(addr).SizeBig() }

// GetType returns addr's kind.
func GetType(addr uintptr) Kind { return Load(addr).Type() }

// GetAllocOffset returns the reservation slack of a BigAllocated
// region; only valid when GetType(addr) == BigAllocated.
func GetAllocOffset(addr uintptr) uintptr { return Offset(addr) }

// GetNext returns the header address of the region immediately
// following addr, or addr itself if addr is the chunk's terminal
// region (fixed-point sentinel, spec §9).
func GetNext(addr uintptr) uintptr {
	h := Load(addr)
	if h.IsLast() {
		return addr
	}
	return addr + SizeBytes(sizeGranules(h))
}

// GetPrev returns the header address of the region immediately
// preceding addr, or addr itself if addr is the first region of its
// chunk (fixed-point sentinel). GetPrev must not be called on a
// BigAllocated region: its prev field holds size bits, not a
// predecessor distance, and it is always alone in its chunk.
func GetPrev(addr uintptr) uintptr {
	h := Load(addr)
	if h.Prev() == 0 {
		return addr
	}
	return addr - SizeBytes(h.Prev())
}

// Split divides addr, whose total span is assumed to be exactly
// GetSize(addr) granules, into a first region of firstBytes (rounded
// down to a granule boundary by the caller) and a second region
// holding the remainder. Both halves are typed Free or SmallFree by
// FitKind; the caller retypes either half to Allocated as needed. If
// addr is the chunk's terminal region, the second half inherits that
// status. The address of the second (right) region is returned.
func Split(addr, firstBytes uintptr) (rightAddr uintptr) {
	h := Load(addr)
	total := sizeGranules(h)
	firstGranules := Granules(firstBytes)
	secondGranules := total - firstGranules
	wasLast := h.IsLast()

	rightAddr = addr + SizeBytes(firstGranules)

	leftKind := FitKind(firstGranules)
	Store(addr, h.WithType(leftKind).WithSize(firstGranules).WithLast(false))
	if leftKind == Free {
		SetParent(addr, 0)
		SetLeft(addr, 0)
		SetRight(addr, 0)
	}

	rightKind := FitKind(secondGranules)
	rh := Header(0).WithType(rightKind).WithBalance(0).WithLast(wasLast).WithSize(secondGranules).WithPrev(firstGranules)
	Store(rightAddr, rh)
	if rightKind == Free {
		SetParent(rightAddr, 0)
		SetLeft(rightAddr, 0)
		SetRight(rightAddr, 0)
	}

	if !wasLast {
		after := rightAddr + SizeBytes(secondGranules)
		ah := Load(after)
		Store(after, ah.WithPrev(secondGranules))
	}

	return rightAddr
}

// MergeWithNext absorbs the region following addr into addr: sizes
// add, addr inherits the next region's terminal flag, and addr is
// retyped to Free if the combined span is now large enough to carry
// tree linkage, else SmallFree. addr must not already be the chunk's
// terminal region. The caller is responsible for having already
// removed both addr and its successor from the free-size tree if they
// were Free.
func MergeWithNext(addr uintptr) {
	h := Load(addr)
	next := GetNext(addr)
	nh := Load(next)

	destroyView(next, nh.Type())

	newSize := sizeGranules(h) + sizeGranules(nh)
	newIsLast := nh.IsLast()
	newKind := FitKind(newSize)

	merged := h.WithType(newKind).WithSize(newSize).WithLast(newIsLast)
	Store(addr, merged)

	if newKind == Free {
		SetParent(addr, 0)
		SetLeft(addr, 0)
		SetRight(addr, 0)
	}

	if !newIsLast {
		after := addr + SizeBytes(newSize)
		ah := Load(after)
		Store(after, ah.WithPrev(newSize))
	}
}
