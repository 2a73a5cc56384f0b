// Package arena implements the Lattice per-VM bump allocator used for
// strings whose lifetime is a single statement (spec.md §4.3),
// generalized from the teacher's lang/vm/memory.go Memory type: same
// monotone bump pointer and lazy doubling-growth policy, but backed by
// an edsrzf/mmap-go mapping of a backing temp file instead of a Go
// slice. Reset only rewinds the bump pointer; a region is unmapped when
// growth replaces it or when the arena is closed.
package arena

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

const (
	initialSize = 64 * 1024
	growthFactor = 2
)

// Arena is a per-statement bump-pointer scratch allocator.
type Arena struct {
	file   *os.File
	region mmap.MMap
	offset int
}

// New creates an Arena with an initial backing region of initialSize
// bytes.
func New() (*Arena, error) {
	a := &Arena{}
	if err := a.grow(initialSize); err != nil {
		return nil, err
	}
	return a, nil
}

// grow replaces the backing mapping with one of at least size bytes,
// copying forward any already-allocated bytes.
func (a *Arena) grow(size int) error {
	f, err := os.CreateTemp("", "lattice-arena-*")
	if err != nil {
		return fmt.Errorf("arena: create backing file: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("arena: truncate backing file: %w", err)
	}
	region, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("arena: mmap: %w", err)
	}
	if a.region != nil {
		copy(region, a.region[:a.offset])
		a.region.Unmap()
		a.file.Close()
		os.Remove(a.file.Name())
	}
	a.file = f
	a.region = region
	return nil
}

// Alloc reserves n bytes and returns a slice view into the arena.
// Growing the arena invalidates previously-returned slices — callers
// must not hold an Alloc result across a later Alloc/Reset (the same
// caveat the teacher's Memory.ReadSlice documents).
func (a *Arena) Alloc(n int) []byte {
	if a.offset+n > len(a.region) {
		newSize := len(a.region) * growthFactor
		for newSize < a.offset+n {
			newSize *= growthFactor
		}
		if err := a.grow(newSize); err != nil {
			// The arena is scratch space; a growth failure degrades to a
			// fresh heap allocation rather than aborting the VM.
			return make([]byte, n)
		}
	}
	b := a.region[a.offset : a.offset+n]
	a.offset += n
	return b
}

// Strdup stages s through the arena and returns a *string for an
// ephemeral String value. Go strings are immutable, so the final
// string header still owns its own backing bytes (there is no
// alias-without-copy in safe Go): the bytes are staged through the
// arena's bump pointer and then copied into a newly allocated Go
// string, so each call still allocates.
func (a *Arena) Strdup(s string) *string {
	buf := a.Alloc(len(s))
	copy(buf, s)
	out := string(buf)
	return &out
}

// Reset rewinds the bump pointer to the start, invalidating every
// ephemeral allocation made since the last reset. The dispatch loop
// must promote every live ephemeral Value before calling Reset
// (spec.md §4.3 OP_RESET_EPHEMERAL).
func (a *Arena) Reset() {
	a.offset = 0
}

// Close releases the backing mapping and temp file.
func (a *Arena) Close() error {
	if a.region == nil {
		return nil
	}
	err := a.region.Unmap()
	a.file.Close()
	os.Remove(a.file.Name())
	a.region = nil
	return err
}

// Used returns the number of bytes currently allocated since the last
// reset.
func (a *Arena) Used() int { return a.offset }
