package region

import "unsafe"

// newTestChunk backs a fake chunk with Go heap memory, aligned to
// Granularity. Tests must keep buf referenced (e.g. via
// runtime.KeepAlive) for as long as addr is used: this package
// otherwise only ever operates on OS-reserved memory (chunkmem),
// which is not subject to GC, so this indirection is test-only.
func newTestChunk(size int) (buf []byte, addr uintptr) {
	buf = make([]byte, size+Granularity)
	base := uintptr(unsafe.Pointer(&buf[0]))
	return buf, AlignUp(base, Granularity)
}

func uintptrOfSlice(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}
