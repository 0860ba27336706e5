// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

// unmap drives the recursive descent of spec §4.3 for region r, tearing
// down its descriptors and reclaiming now-empty sub-tables. It does not
// issue the final TLB sync; the caller (AddDynamicRegion rollback,
// RemoveDynamicRegion) does that once after unmap returns, per spec §5.
func (ctx *Context) unmap(r Region) {
	ctx.unmapDescend(&ctx.base, 0, ctx.baseLevel, r)
}

func (ctx *Context) unmapDescend(tbl *table, tableBaseVA uint64, level int, r Region) {
	entries := ctx.entryCount(level)
	step := blockSize(level)

	for i := 0; i < entries; i++ {
		entryVA := tableBaseVA + uint64(i)*step
		entryEnd := entryVA + step - 1

		rel := intervalRelation(entryVA, entryEnd, r)
		if rel == disjoint {
			continue
		}

		current := tbl[i]

		if rel == fullyInside {
			ctx.unmapFullyInside(tbl, i, current, entryVA, level, r)
			continue
		}

		ctx.unmapPartial(tbl, i, current, entryVA, level, r)
	}
}

func (ctx *Context) unmapFullyInside(tbl *table, i int, current uint64, entryVA uint64, level int, r Region) {
	if level == 3 {
		if !isLeafDescriptor(current, 3) {
			panic("xlat: unmap: expected page descriptor at deepest level")
		}
		tbl[i] = 0
		ctx.hooks.InvalidateTLB(entryVA, ctx.el())
		trace("unmap page va=%#x", entryVA)
		return
	}

	if isTableDescriptor(current, level) {
		h := handleFromAddr(descriptorPA(current))
		ctx.unmapDescend(ctx.pool.get(h), entryVA, level+1, r)

		if ctx.pool.decref(h) == 0 {
			tbl[i] = 0
			ctx.hooks.InvalidateTLB(entryVA, ctx.el())
			trace("reclaim sub-table va=%#x level=%d handle=%d", entryVA, level, h.index)
		}
		return
	}

	// block descriptor
	tbl[i] = 0
	ctx.hooks.InvalidateTLB(entryVA, ctx.el())
}

func (ctx *Context) unmapPartial(tbl *table, i int, current uint64, entryVA uint64, level int, r Region) {
	if level >= 3 {
		panic("xlat: unmap: partial overlap asserted below deepest level")
	}

	if !isTableDescriptor(current, level) {
		panic("xlat: unmap: partial overlap requires an existing table descriptor")
	}

	h := handleFromAddr(descriptorPA(current))
	ctx.unmapDescend(ctx.pool.get(h), entryVA, level+1, r)

	if ctx.pool.decref(h) == 0 {
		tbl[i] = 0
		ctx.hooks.InvalidateTLB(entryVA, ctx.el())
		trace("reclaim sub-table va=%#x level=%d handle=%d", entryVA, level, h.index)
	}
}
