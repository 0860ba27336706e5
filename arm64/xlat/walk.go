// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

// leaf describes the outcome of walking to the deepest level for one VA:
// the descriptor's table and index (so callers can rewrite it in place)
// and the level the leaf was found at (3 for a page, <3 for a block).
type leaf struct {
	tbl   *table
	index int
	level int
}

// walk performs the iterative descent of spec §4.6 "Tree walk": index bits
// for level L are extracted from the VA; on a table descriptor, descend;
// on a block or page descriptor, return it; on an invalid descriptor,
// report not-found.
func (ctx *Context) walk(va uint64) (l leaf, ok bool) {
	tbl := &ctx.base
	level := ctx.baseLevel

	for {
		idx := levelIndex(va, uint(level), uint(ctx.baseLevel), ctx.baseBits)
		d := tbl[idx]

		if !isValid(d) {
			return leaf{}, false
		}

		if isTableDescriptor(d, level) {
			h := handleFromAddr(descriptorPA(d))
			tbl = ctx.pool.get(h)
			level++
			continue
		}

		// block (level < 3) or page (level == 3)
		return leaf{tbl: tbl, index: int(idx), level: level}, true
	}
}
