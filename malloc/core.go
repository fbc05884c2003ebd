// Package malloc is the Allocator Core: it classifies requests by size,
// carves payload out of a size-indexed free tree for the common case,
// and falls through to dedicated OS reservations for oversized
// requests. It is the public, importable half of this module — the
// other half, internal/chunkmem/internal/region/internal/freetree, is
// an implementation detail malloc alone drives.
//
// An Allocator is not safe for concurrent use. It owns no locks and
// takes none; callers needing concurrent allocation must serialize
// their own access, exactly as the single-threaded contract describes.
package malloc

import (
	"fmt"
	"unsafe"

	"github.com/disba1ancer/container-test/internal/chunkmem"
	"github.com/disba1ancer/container-test/internal/freetree"
	"github.com/disba1ancer/container-test/internal/region"
)

// Allocator is a process-scoped region allocator. Use New for an
// independent instance, or the package-level Initialize/Alloc/Free
// trio for the teacher's global-singleton style.
type Allocator struct {
	cfg     Config
	tree    freetree.Tree
	chunks  map[uintptr]uintptr // chunk-start header address -> true OS reservation base
	lastErr error
}

// New builds an Allocator with opts applied on top of the defaults
// (512 KiB chunks, 128 KiB big-path threshold, no logging).
func New(opts ...Option) *Allocator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Allocator{
		cfg:    *cfg,
		chunks: make(map[uintptr]uintptr),
	}
}

// LastError returns the AllocError behind the most recent nil return
// from Allocate/AlignedAllocate, or nil if the last call succeeded or
// none has been made.
func (a *Allocator) LastError() error { return a.lastErr }

func (a *Allocator) fail(cat AllocCategory, detail error) unsafe.Pointer {
	a.lastErr = &AllocError{Category: cat, Err: detail}
	return nil
}

// Allocate requests size bytes at the allocator's natural alignment
// (region.Granularity, the coarsest guarantee every payload address
// already carries). It returns nil on size 0 or out-of-memory.
func (a *Allocator) Allocate(size uintptr) unsafe.Pointer {
	return a.AlignedAllocate(region.Granularity, size)
}

// AlignedAllocate requests size bytes aligned to align, which must be
// a power of two (it is raised to region.Granularity if smaller).
// Returns nil on bad alignment, size 0, or out-of-memory; never
// panics and never partially mutates allocator state on failure.
func (a *Allocator) AlignedAllocate(align, size uintptr) unsafe.Pointer {
	a.lastErr = nil

	if size == 0 {
		return a.fail(BadSize, fmt.Errorf("size must be > 0"))
	}
	if align == 0 {
		align = region.Granularity
	}
	if align&(align-1) != 0 {
		return a.fail(BadAlignment, fmt.Errorf("alignment %d is not a power of two", align))
	}
	if align < region.Granularity {
		align = region.Granularity
	}

	raw := region.SizeBytes(region.CeilGranules(size)) + region.Granularity

	if raw < a.cfg.ChunkThreshold {
		return a.allocateChunked(raw, align)
	}
	return a.allocateBig(raw, align)
}

func (a *Allocator) allocateChunked(raw, align uintptr) unsafe.Pointer {
	needGranules := region.CeilGranules(raw + align - region.Granularity)

	rgn := a.tree.LowerBound(needGranules)
	if rgn != 0 {
		a.tree.Erase(rgn)
	} else {
		rgn = a.growChunk()
		if rgn == 0 {
			return a.fail(OutOfMemory, fmt.Errorf("failed to reserve a new chunk"))
		}
	}

	payloadAddr := rgn + region.Granularity
	preSlack := (align - (payloadAddr & (align - 1))) & (align - 1)
	if preSlack > 0 {
		left := rgn
		rgn = region.Split(rgn, preSlack)
		if region.GetType(left) == region.Free {
			a.tree.InsertHint(rgn, left)
		}
	}

	if region.SizeBytes(region.GetSize(rgn)) > raw {
		right := region.Split(rgn, raw)
		if region.GetType(right) == region.Free {
			a.tree.InsertHint(rgn, right)
		}
	}

	region.Retype(rgn, region.Allocated)
	return unsafe.Pointer(rgn + region.Granularity)
}

// growChunk reserves a fresh ChunkSize span from the OS, installs it
// as a single free region, and records its true reservation base for
// eventual release. It never inserts the new region into the tree —
// callers either use it immediately (fresh-chunk allocate path) or,
// on failure, discard the zero return.
func (a *Allocator) growChunk() uintptr {
	size := region.AlignUp(a.cfg.ChunkSize, region.Granularity)
	commitBase, offset, err := chunkmem.Reserve(size, region.Granularity)
	if err != nil {
		return 0
	}

	region.ConstructChunk(commitBase, size, offset)
	kind := region.FitKind(region.Granules(size))
	region.Retype(commitBase, kind)

	a.chunks[commitBase] = commitBase - offset
	if a.cfg.Debug && a.cfg.Logger != nil {
		a.cfg.Logger.Printf("malloc: grew chunk at %#x (%d bytes)", commitBase, size)
	}
	return commitBase
}

func (a *Allocator) allocateBig(raw, align uintptr) unsafe.Pointer {
	commitBase, offset, err := chunkmem.Reserve(raw, align)
	if err != nil {
		return a.fail(OutOfMemory, err)
	}
	region.ConstructChunk(commitBase, raw, offset)
	a.chunks[commitBase] = commitBase - offset
	return unsafe.Pointer(commitBase + region.Granularity)
}

// Deallocate frees a pointer previously returned by Allocate or
// AlignedAllocate on the same Allocator. ptr == nil is a no-op.
// Deallocating a pointer not produced by this Allocator is undefined
// (spec §7): no detection is attempted.
func (a *Allocator) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	addr := uintptr(ptr) - region.Granularity

	if region.GetType(addr) == region.BigAllocated {
		base := addr - region.GetAllocOffset(addr)
		delete(a.chunks, addr)
		chunkmem.Release(base)
		return
	}

	region.Retype(addr, region.Free)

	if prevAddr := region.GetPrev(addr); prevAddr != addr && isCoalescible(region.GetType(prevAddr)) {
		if region.GetType(prevAddr) == region.Free {
			a.tree.Erase(prevAddr)
		}
		region.MergeWithNext(prevAddr)
		addr = prevAddr
	}

	if nextAddr := region.GetNext(addr); nextAddr != addr && isCoalescible(region.GetType(nextAddr)) {
		if region.GetType(nextAddr) == region.Free {
			a.tree.Erase(nextAddr)
		}
		region.MergeWithNext(addr)
	}

	if region.GetPrev(addr) == addr && region.Load(addr).IsLast() {
		if base, ok := a.chunks[addr]; ok {
			delete(a.chunks, addr)
			chunkmem.Release(base)
			if a.cfg.Debug && a.cfg.Logger != nil {
				a.cfg.Logger.Printf("malloc: released whole chunk at %#x", addr)
			}
			return
		}
	}

	if region.GetType(addr) == region.Free {
		a.tree.Insert(addr)
	}
}

func isCoalescible(k region.Kind) bool {
	return k != region.Allocated && k != region.BigAllocated
}

// Close releases every chunk this Allocator still owns, regardless of
// live allocations within them (design notes: allocator teardown walks
// outstanding chunks and releases each). It does not run finalizers on
// live payloads; callers are responsible for having freed what they
// care about first.
func (a *Allocator) Close() {
	for chunkStart, base := range a.chunks {
		delete(a.chunks, chunkStart)
		chunkmem.Release(base)
	}
	a.tree = freetree.Tree{}
}
