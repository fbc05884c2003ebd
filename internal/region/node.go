package region

import "unsafe"

// Offsets of the kind-specific fields that follow the header word.
// Free's three link fields directly follow the 8-byte header word and
// fill the rest of the region's first two granules; BigAllocated's
// single offset field shares the same granule as the header.
const (
	offParent = 8
	offLeft   = 16
	offRight  = 24
	offOffset = 8
)

func loadWord(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

func storeWord(addr uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = v
}

// Parent, Left, Right read a Free region's tree linkage. Callers must
// only invoke these when Load(addr).Type() == Free.
func Parent(addr uintptr) uintptr { return loadWord(addr + offParent) }
func Left(addr uintptr) uintptr   { return loadWord(addr + offLeft) }
func Right(addr uintptr) uintptr  { return loadWord(addr + offRight) }

func SetParent(addr, v uintptr) { storeWord(addr+offParent, v) }
func SetLeft(addr, v uintptr)   { storeWord(addr+offLeft, v) }
func SetRight(addr, v uintptr)  { storeWord(addr+offRight, v) }

// Offset reads a BigAllocated region's reservation slack. Callers must
// only invoke this when Load(addr).Type() == BigAllocated.
func Offset(addr uintptr) uintptr { return loadWord(addr + offOffset) }

func SetOffset(addr, v uintptr) { storeWord(addr+offOffset, v) }

// destroyView zeroes the kind-specific payload of addr's current view.
// Retype calls this before reconstructing under the new kind so that a
// stale pointer/offset can never be read back as live data.
func destroyView(addr uintptr, kind Kind) {
	switch kind {
	case Free:
		SetParent(addr, 0)
		SetLeft(addr, 0)
		SetRight(addr, 0)
	case BigAllocated:
		SetOffset(addr, 0)
	case Allocated, SmallFree:
		// no extra view state to destroy.
	}
}
