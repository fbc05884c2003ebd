//go:build !windows

package chunkmem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// osReserve reserves length bytes of address space without making it
// accessible: an anonymous, PROT_NONE mapping. Nothing is "committed"
// at this point in the POSIX sense — that happens in osCommit, which
// promotes the aligned sub-range the caller actually wants to
// PROT_READ|PROT_WRITE.
func osReserve(length uintptr) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, int(length), unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

func osCommit(base, size uintptr) error {
	// mprotect needs a page-aligned start, but base is only
	// Granularity-aligned; widen the range down to base's page, which
	// still lies inside the page-aligned reservation.
	page := uintptr(unix.Getpagesize())
	start := base &^ (page - 1)
	b := unsafe.Slice((*byte)(unsafe.Pointer(start)), int(base+size-start))
	return unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE)
}

func osRelease(base, length uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), int(length))
	return unix.Munmap(b)
}
