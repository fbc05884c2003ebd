package malloc

import (
	"fmt"
	"io"

	"github.com/disba1ancer/container-test/internal/freetree"
	"github.com/disba1ancer/container-test/internal/region"
)

// AllocatorStats is a point-in-time snapshot for the debug dump; it is
// the only telemetry this allocator offers (spec Non-goals: no
// statistics/telemetry beyond a debug dump).
type AllocatorStats struct {
	ChunkCount      int
	BytesReserved   uintptr
	BytesAllocated  uintptr
	BytesFree       uintptr
	RegionCount     int
	FreeRegionCount int
}

// Stats walks every chunk this Allocator owns and tallies region
// kinds. It is O(total region count), not O(1); callers should not
// call it on a hot path.
func (a *Allocator) Stats() AllocatorStats {
	var s AllocatorStats
	s.ChunkCount = len(a.chunks)

	for chunkStart := range a.chunks {
		addr := chunkStart
		for {
			sz := region.SizeBytes(region.GetSize(addr))
			s.BytesReserved += sz
			s.RegionCount++
			switch region.GetType(addr) {
			case region.Allocated, region.BigAllocated:
				s.BytesAllocated += sz
			case region.Free, region.SmallFree:
				s.BytesFree += sz
				s.FreeRegionCount++
			}
			next := region.GetNext(addr)
			if next == addr {
				break
			}
			addr = next
		}
	}
	return s
}

// Dump writes a human-readable chunk/region map to w, in free-size
// tree order for the free list and address order for each chunk's
// region chain. It exists for debugging only (spec §4.3's "begin, end,
// iteration: used only by the debug dump").
func (a *Allocator) Dump(w io.Writer) {
	fmt.Fprintf(w, "chunks: %d\n", len(a.chunks))
	for chunkStart := range a.chunks {
		fmt.Fprintf(w, "  chunk %#x:\n", chunkStart)
		addr := chunkStart
		for {
			h := region.Load(addr)
			fmt.Fprintf(w, "    %#x type=%s size=%d isLast=%v\n", addr, h.Type(), h.Size(), h.IsLast())
			next := region.GetNext(addr)
			if next == addr {
				break
			}
			addr = next
		}
	}

	fmt.Fprintf(w, "free tree (ascending size):\n")
	for n := a.tree.First(); n != 0; n = freetree.Next(n) {
		fmt.Fprintf(w, "  %#x size=%d\n", n, region.GetSize(n))
	}
}
