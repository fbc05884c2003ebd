package malloc

import "unsafe"

// GlobalAllocator is the process-wide default instance, in the
// teacher's GlobalAllocator-singleton style. It is nil until
// Initialize is called.
var GlobalAllocator *Allocator

// Initialize sets up the process-wide allocator. Calling it again
// replaces the previous instance without releasing its chunks —
// callers that need clean teardown should call Close on the old
// GlobalAllocator first.
func Initialize(opts ...Option) {
	GlobalAllocator = New(opts...)
}

// Alloc allocates size bytes from the global allocator. Panics if
// Initialize has not been called, matching the teacher's global-nil
// guard pattern but surfacing it immediately rather than as a nil
// dereference three frames away.
func Alloc(size uintptr) unsafe.Pointer {
	if GlobalAllocator == nil {
		panic("malloc: GlobalAllocator used before Initialize")
	}
	return GlobalAllocator.Allocate(size)
}

// AlignedAlloc is AlignedAllocate on the global allocator.
func AlignedAlloc(align, size uintptr) unsafe.Pointer {
	if GlobalAllocator == nil {
		panic("malloc: GlobalAllocator used before Initialize")
	}
	return GlobalAllocator.AlignedAllocate(align, size)
}

// Free deallocates a pointer on the global allocator.
func Free(ptr unsafe.Pointer) {
	if GlobalAllocator == nil {
		panic("malloc: GlobalAllocator used before Initialize")
	}
	GlobalAllocator.Deallocate(ptr)
}

// GetStats returns the global allocator's current stats.
func GetStats() AllocatorStats {
	if GlobalAllocator == nil {
		return AllocatorStats{}
	}
	return GlobalAllocator.Stats()
}
