// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

// entryRelation classifies how one table entry's VA interval relates to
// the region being built or torn down.
type entryRelation int

const (
	disjoint entryRelation = iota
	fullyInside
	partialOverlap
)

// intervalRelation is the clean, explicit replacement for the reference
// implementation's overlap test (spec §9, "Open question — partial-overlap
// detection in the unmapper"): it classifies an entry's
// [entryVA, entryEnd] span against the region's [r.VA, r.end()] span using
// a single "intersects but is not contained" predicate, rather than the
// `||`-of-edges test that relied on a separate containment branch having
// already consumed the fully-inside case.
func intervalRelation(entryVA, entryEnd uint64, r Region) entryRelation {
	if entryEnd < r.VA || entryVA > r.end() {
		return disjoint
	}
	if r.VA <= entryVA && entryEnd <= r.end() {
		return fullyInside
	}
	return partialOverlap
}

// builder accumulates the result of one top-level build() call as it
// recurses: the VA of the last byte successfully mapped, and whether any
// byte was mapped at all (needed to distinguish "failed immediately" from
// "VA 0 region", since 0 is not itself distinguishable from "nothing
// mapped yet" by arithmetic alone).
type builder struct {
	ctx  *Context
	r    Region
	last uint64
	any  bool
}

// build drives the recursive descent of spec §4.2 for region r, starting
// at the base table. It returns the VA of the last byte successfully
// mapped (meaningful only if any is true) and whether every byte of r was
// mapped (ok == true iff last == r.end()).
func (ctx *Context) build(r Region) (last uint64, any bool, ok bool) {
	b := &builder{ctx: ctx, r: r}

	complete := b.descend(&ctx.base, 0, ctx.baseLevel)

	return b.last, b.any, complete
}

// descend walks one table's entries that intersect b.r, at the given
// table-relative base VA and lookup level. It returns false as soon as the
// pool is exhausted, halting descent immediately (spec §4.2, "obtain an
// empty sub-table from the pool; if none available, stop descent").
func (b *builder) descend(tbl *table, tableBaseVA uint64, level int) bool {
	ctx := b.ctx
	entries := ctx.entryCount(level)
	step := blockSize(level)

	for i := 0; i < entries; i++ {
		entryVA := tableBaseVA + uint64(i)*step
		entryEnd := entryVA + step - 1

		rel := intervalRelation(entryVA, entryEnd, b.r)
		if rel == disjoint {
			continue
		}

		current := tbl[i]

		if rel == fullyInside {
			if !b.enterFullyInside(tbl, i, current, entryVA, entryEnd, level) {
				return false
			}
			continue
		}

		// partialOverlap is only possible above the deepest level
		// (a level-3 entry spans exactly one page, which can never
		// be partially covered by a page-aligned region).
		if !b.enterPartial(tbl, i, current, entryVA, level) {
			return false
		}
	}

	return true
}

func (b *builder) enterFullyInside(tbl *table, i int, current uint64, entryVA, entryEnd uint64, level int) bool {
	ctx := b.ctx

	if level == 3 {
		if !isValid(current) {
			pa := b.r.PA + (entryVA - b.r.VA)
			tbl[i] = leafDescriptor(pa, 3, b.r.Attr, ctx.xnMask())
			trace("page va=%#x pa=%#x", entryVA, pa)
		}
		// else: already a page descriptor, spec says "none (do not
		// overwrite)" — the overlap rules guarantee it already
		// resolves the same PA for any legally nested region.
		b.markMapped(entryEnd)
		return true
	}

	switch {
	case isTableDescriptor(current, level):
		h := handleFromAddr(descriptorPA(current))
		ctx.pool.incref(h)
		if !b.descend(ctx.pool.get(h), entryVA, level+1) {
			return false
		}
		b.markMapped(entryEnd)
		return true

	case !isValid(current):
		step := blockSize(level)
		pa := b.r.PA + (entryVA - b.r.VA)

		if level >= ctx.minBlockLevel && pa%step == 0 && b.r.Granularity >= step {
			tbl[i] = leafDescriptor(pa, level, b.r.Attr, ctx.xnMask())
			trace("block va=%#x pa=%#x level=%d", entryVA, pa, level)
			b.markMapped(entryEnd)
			return true
		}

		h, okAlloc := ctx.pool.alloc()
		if !okAlloc {
			trace("pool exhausted va=%#x level=%d", entryVA, level)
			return false
		}

		trace("new sub-table va=%#x level=%d handle=%d", entryVA, level, h.index)
		tbl[i] = descValid | descTable | tableAddr(h.index)
		ctx.pool.incref(h)

		if !b.descend(ctx.pool.get(h), entryVA, level+1) {
			return false
		}

		b.markMapped(entryEnd)
		return true

	default:
		// block descriptor already present: "none (do not overwrite)"
		b.markMapped(entryEnd)
		return true
	}
}

func (b *builder) enterPartial(tbl *table, i int, current uint64, entryVA uint64, level int) bool {
	ctx := b.ctx

	if level >= 3 {
		panic("xlat: partial overlap asserted below deepest level")
	}

	switch {
	case isTableDescriptor(current, level):
		h := handleFromAddr(descriptorPA(current))
		ctx.pool.incref(h)
		return b.descend(ctx.pool.get(h), entryVA, level+1)

	case !isValid(current):
		h, okAlloc := ctx.pool.alloc()
		if !okAlloc {
			trace("pool exhausted va=%#x level=%d", entryVA, level)
			return false
		}

		trace("new sub-table va=%#x level=%d handle=%d", entryVA, level, h.index)
		tbl[i] = descValid | descTable | tableAddr(h.index)
		ctx.pool.incref(h)

		return b.descend(ctx.pool.get(h), entryVA, level+1)

	default:
		panic("xlat: partial overlap over an existing leaf descriptor")
	}
}

// markMapped records entryEnd as the last successfully mapped byte.
// descend visits entries in ascending VA order and always recurses before
// moving to the next sibling entry, so each call to markMapped supersedes
// the previous one.
func (b *builder) markMapped(entryEnd uint64) {
	b.any = true
	b.last = entryEnd
}

// xnMask returns the execute-never mask for this context's exception
// level via the xn_mask hook of spec §6.
func (ctx *Context) xnMask() uint64 {
	return ctx.hooks.XNMask(ctx.el())
}
