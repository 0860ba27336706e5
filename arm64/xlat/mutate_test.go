// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

import "testing"

// Scenario 5: ChangeMemAttributes over a VA range mapped by a 2 MiB block
// descriptor is rejected with invalid-argument and leaves state unchanged.
func TestChangeMemAttributesRejectsBlockMapping(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	ctx.AddStaticRegion(Region{PA: 0x40000000, VA: 0x40000000, Size: 0x200000, Attr: attr, Granularity: 0x200000})
	ctx.Init()

	before := ctx.base

	newAttr := mustAttr(t, NormalCacheable, ReadOnly, NonSecure, Executable)
	err := ctx.ChangeMemAttributes(0x40000000, PageSize, newAttr)
	if err != ErrInvalidArgument {
		t.Fatalf("ChangeMemAttributes over a block = %v, want ErrInvalidArgument", err)
	}

	if ctx.base != before {
		t.Fatalf("base table mutated by a rejected ChangeMemAttributes call")
	}
}

func TestChangeMemAttributesRejectsUnmapped(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	ctx.Init()

	newAttr := mustAttr(t, NormalCacheable, ReadOnly, NonSecure, Executable)
	if err := ctx.ChangeMemAttributes(0x10000000, PageSize, newAttr); err != ErrInvalidArgument {
		t.Fatalf("ChangeMemAttributes over unmapped VA = %v, want ErrInvalidArgument", err)
	}
}

func TestChangeMemAttributesRejectsRWExecutable(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	ctx.Init()

	if _, err := NewAttr(NormalCacheable, ReadWrite, NonSecure, Executable); err == nil {
		t.Fatalf("expected NewAttr to reject RW+Executable before ChangeMemAttributes is even reachable")
	}
}

func TestChangeMemAttributesRewritesPagesAndIsIdempotent(t *testing.T) {
	ctx, hooks := newTestContext(t, 8, 4, false)

	rwAttr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)
	ctx.AddStaticRegion(Region{PA: 0x10000000, VA: 0x10000000, Size: 2 * PageSize, Attr: rwAttr, Granularity: PageSize})
	ctx.Init()

	roAttr := mustAttr(t, NormalCacheable, ReadOnly, NonSecure, Executable)

	if err := ctx.ChangeMemAttributes(0x10000000, 2*PageSize, roAttr); err != nil {
		t.Fatalf("ChangeMemAttributes: %v", err)
	}

	l, ok := ctx.walk(0x10000000)
	if !ok {
		t.Fatalf("walk(0x10000000) not found after ChangeMemAttributes")
	}

	d := l.tbl[l.index]
	if d&descAPRO == 0 {
		t.Fatalf("descriptor not marked read-only after ChangeMemAttributes")
	}
	if d&descUXN != 0 || d&descPXN != 0 {
		t.Fatalf("descriptor still execute-never after marking executable")
	}

	if got := descriptorPA(d); got != 0x10000000 {
		t.Fatalf("destination PA changed: got %#x, want 0x10000000", got)
	}

	snapshot := *l.tbl

	if err := ctx.ChangeMemAttributes(0x10000000, 2*PageSize, roAttr); err != nil {
		t.Fatalf("second ChangeMemAttributes call: %v", err)
	}

	if *l.tbl != snapshot {
		t.Fatalf("ChangeMemAttributes is not idempotent at the descriptor level")
	}

	if hooks.Syncs != 2 {
		t.Fatalf("TLBSync called %d times, want 2", hooks.Syncs)
	}

	if len(hooks.Invalidated) != 4 {
		t.Fatalf("InvalidateTLB called %d times, want 4 (2 pages x 2 calls)", len(hooks.Invalidated))
	}
}

func TestChangeMemAttributesBeforeInitPanics(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	attr := mustAttr(t, NormalCacheable, ReadOnly, NonSecure, Executable)

	defer func() {
		if recover() == nil {
			t.Fatalf("ChangeMemAttributes before Init did not panic")
		}
	}()

	ctx.ChangeMemAttributes(0, PageSize, attr)
}
