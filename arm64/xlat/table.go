// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

// EntriesPerTable is the architectural entry count for any sub-table
// (table at a level deeper than the base level).
const EntriesPerTable = 512

// table is one translation table: an array of 64-bit architectural
// descriptors (spec §3). The base table may use fewer than
// EntriesPerTable entries when the configured VA space is narrow; the
// unused tail is simply left invalid.
type table [EntriesPerTable]uint64

// levelShift returns the bit position of the VA index field consumed at
// each level down to 3, for a 4 KiB granule
// (2^(12 + 9*(3-level)) bytes per entry at that level).
func levelShift(level int) uint {
	return 12 + 9*uint(3-level)
}

// blockSize returns the span, in bytes, of one entry at the given level.
func blockSize(level int) uint64 {
	return 1 << levelShift(level)
}

// levelIndex extracts the table index for va at the given level, given the
// number of index bits the base level itself consumes (baseBits, the
// remaining levels always consume 9 bits each).
func levelIndex(va uint64, level, baseLevel, baseBits uint) uint64 {
	shift := levelShift(int(level))

	bits := uint(9)
	if level == baseLevel {
		bits = baseBits
	}

	mask := uint64(1)<<bits - 1

	return (va >> shift) & mask
}

// entryBits returns the number of VA index bits consumed at level for this
// context: ctx.baseBits at the base level, 9 at every deeper level.
func (ctx *Context) entryBits(level int) uint {
	if level == ctx.baseLevel {
		return ctx.baseBits
	}
	return 9
}

// entryCount returns the number of valid entries in a table at level for
// this context.
func (ctx *Context) entryCount(level int) int {
	return 1 << ctx.entryBits(level)
}

// tableHandle identifies one sub-table by pool index. Embedding the index
// directly in the handle (rather than recovering it from the descriptor's
// raw address by a linear scan over the pool) is the table-handle
// abstraction called for by spec §9's "Pool identity lookup" design note;
// the handle is also the single auditable site doing the bit-cast between
// a descriptor's payload bits and a usable table pointer (spec §9,
// "Pointer-to-table inside a descriptor").
type tableHandle struct {
	index int
}

// pool owns the fixed set of sub-tables a Context may hand out to the
// builder, mirroring dma.Region's role for DMA buffers (fixed backing
// storage plus allocate/free bookkeeping), adapted here to fixed-size
// translation tables instead of byte ranges.
type pool struct {
	tables   []table
	refcount []int // one entry per table; 0 means free
	next     int   // bump index for the static (non-Dynamic) fast path
	dynamic  bool
}

func newPool(maxSubtables int, dynamic bool) pool {
	return pool{
		tables:   make([]table, maxSubtables),
		refcount: make([]int, maxSubtables),
		dynamic:  dynamic,
	}
}

// poolBase is a synthetic base "physical address" for the pool's tables,
// so that descriptors written by the builder carry a plausible
// architectural payload even though the tables are plain Go-owned memory.
// Each table occupies EntriesPerTable*8 bytes, matching the real
// descriptor size.
const poolBase = 0x0000400000000000

func tableAddr(index int) uint64 {
	return poolBase + uint64(index)*EntriesPerTable*8
}

func handleFromAddr(addr uint64) tableHandle {
	return tableHandle{index: int((addr - poolBase) / (EntriesPerTable * 8))}
}

// alloc hands out an empty sub-table. Static mode bump-allocates in
// declaration order with no reclamation; dynamic mode linearly scans for
// the first table with a zero refcount (spec §4.4).
func (p *pool) alloc() (tableHandle, bool) {
	if !p.dynamic {
		if p.next >= len(p.tables) {
			return tableHandle{}, false
		}
		h := tableHandle{index: p.next}
		p.next++
		p.refcount[h.index] = 1
		return h, true
	}

	for i := range p.tables {
		if p.refcount[i] == 0 {
			// left at 0; the caller always incref's immediately
			// after a successful alloc (builder.go, unmapper.go
			// never allocs)
			return tableHandle{index: i}, true
		}
	}

	return tableHandle{}, false
}

// get returns the table for a handle.
func (p *pool) get(h tableHandle) *table {
	return &p.tables[h.index]
}

// incref/decref track how many regions currently contribute at least one
// descriptor through a sub-table (spec §4.4, §8 invariant). They are
// no-ops in static mode, which never reclaims tables.
func (p *pool) incref(h tableHandle) {
	if !p.dynamic {
		return
	}
	p.refcount[h.index]++
}

func (p *pool) decref(h tableHandle) int {
	if !p.dynamic {
		return 1
	}
	p.refcount[h.index]--
	return p.refcount[h.index]
}

func (p *pool) refs(h tableHandle) int {
	return p.refcount[h.index]
}
