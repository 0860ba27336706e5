// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

// descAttrMutable is the set of bits ChangeMemAttributes is allowed to
// rewrite in place: the access-permission bit and the execute-never bits
// (spec §4.6: "rewrites the access-permission bit and execute-never bit").
const descAttrMutable = descAPRO | descPXN | descUXN

// ChangeMemAttributes rewrites the access-permission and execute-never
// bits of every page in [baseVA, baseVA+size) to newAttr, in place,
// without altering the destination PA (spec §4.6). It may only be called
// after Init. It performs a verification pass before mutating anything: if
// any page in range is unmapped or mapped by a block (coarser than page
// granularity), it returns an error and leaves the tree unchanged.
func (ctx *Context) ChangeMemAttributes(baseVA, size uint64, newAttr Attr) error {
	if !ctx.initialized {
		panic("xlat: ChangeMemAttributes called before Init")
	}

	if !aligned(baseVA) || !aligned(size) || size == 0 {
		return ErrInvalidArgument
	}

	if newAttr.AP == ReadWrite && newAttr.Exec == Executable {
		return ErrInvalidArgument
	}

	pages := size / PageSize

	// Pass 1: verify every page is mapped by a page (not block)
	// descriptor. No state is mutated here.
	for i := uint64(0); i < pages; i++ {
		va := baseVA + i*PageSize

		l, ok := ctx.walk(va)
		if !ok || l.level != 3 {
			return ErrInvalidArgument
		}
	}

	// Pass 2: rewrite and invalidate.
	el := ctx.el()

	for i := uint64(0); i < pages; i++ {
		va := baseVA + i*PageSize

		l, ok := ctx.walk(va)
		if !ok || l.level != 3 {
			// Unreachable given pass 1 succeeded and the engine is
			// single-threaded/non-reentrant (spec §5), but fail
			// closed rather than corrupt a descriptor.
			return ErrInvalidArgument
		}

		d := l.tbl[l.index]
		attrIdx := (d >> descAttrIx) & 0x7
		d &^= descAttrMutable

		if newAttr.AP == ReadOnly {
			d |= descAPRO
		}

		// Device memory is always execute-never regardless of the
		// requested attribute, same policy as the builder's encoder
		// (attr.go, spec §9 "Descriptor encoding vs. policy").
		executable := newAttr.AP == ReadOnly && newAttr.Exec == Executable && attrIdx != attrIdxDevice

		if !executable {
			d |= ctx.hooks.XNMask(el)
		}

		l.tbl[l.index] = d

		ctx.hooks.InvalidateTLB(va, el)
	}

	ctx.hooks.TLBSync()

	return nil
}
