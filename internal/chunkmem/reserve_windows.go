//go:build windows

package chunkmem

import "golang.org/x/sys/windows"

// osReserve / osCommit / osRelease are the direct Go analogue of
// spec §6's "the repository uses the Windows VirtualAlloc/VirtualFree
// pair": one VirtualAlloc with MEM_RESERVE for the raw address space,
// a second VirtualAlloc with MEM_COMMIT over the aligned sub-range,
// and a single VirtualFree with MEM_RELEASE (size 0 releases the
// entire reservation the base belongs to) for teardown.
func osReserve(length uintptr) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, length, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return 0, err
	}
	return addr, nil
}

func osCommit(base, size uintptr) error {
	_, err := windows.VirtualAlloc(base, size, windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err
}

func osRelease(base, _ uintptr) error {
	return windows.VirtualFree(base, 0, windows.MEM_RELEASE)
}
