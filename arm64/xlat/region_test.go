// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

import "testing"

func TestNewAttrRejectsReadWriteExecutable(t *testing.T) {
	if _, err := NewAttr(NormalCacheable, ReadWrite, NonSecure, Executable); err != ErrInvalidArgument {
		t.Fatalf("NewAttr(RW, Executable) = %v, want ErrInvalidArgument", err)
	}

	if _, err := NewAttr(NormalCacheable, ReadOnly, NonSecure, Executable); err != nil {
		t.Fatalf("NewAttr(RO, Executable) = %v, want nil", err)
	}
}

func TestAddStaticRegionPanicsOnUnalignedBase(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	defer func() {
		if recover() == nil {
			t.Fatalf("AddStaticRegion with unaligned VA did not panic")
		}
	}()

	ctx.AddStaticRegion(Region{PA: 0x1001, VA: 0x1001, Size: PageSize, Attr: attr, Granularity: PageSize})
}

func TestAddStaticRegionPanicsAfterInit(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	ctx.Init()

	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	defer func() {
		if recover() == nil {
			t.Fatalf("AddStaticRegion after Init did not panic")
		}
	}()

	ctx.AddStaticRegion(Region{PA: 0x10000000, VA: 0x10000000, Size: PageSize, Attr: attr, Granularity: PageSize})
}

func TestRegionListSortedByEndVAThenSize(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	// Three disjoint regions added out of order; expect the list sorted
	// by ascending end-VA.
	ctx.AddStaticRegion(Region{PA: 0x20000000, VA: 0x20000000, Size: PageSize, Attr: attr, Granularity: PageSize})
	ctx.AddStaticRegion(Region{PA: 0x10000000, VA: 0x10000000, Size: PageSize, Attr: attr, Granularity: PageSize})
	ctx.AddStaticRegion(Region{PA: 0x30000000, VA: 0x30000000, Size: PageSize, Attr: attr, Granularity: PageSize})

	// Two nested regions sharing one end-VA, the larger added first;
	// expect the smaller one sorted before it.
	ctx.AddStaticRegion(Region{PA: 0x40000000, VA: 0x40000000, Size: 0x200000, Attr: attr, Granularity: PageSize})
	ctx.AddStaticRegion(Region{PA: 0x401ff000, VA: 0x401ff000, Size: PageSize, Attr: attr, Granularity: PageSize})

	want := []uint64{0x10000000, 0x20000000, 0x30000000, 0x401ff000, 0x40000000}
	for i, va := range want {
		if got := ctx.regions.regions[i].VA; got != va {
			t.Fatalf("regions[%d].VA = %#x, want %#x", i, got, va)
		}
	}
}

func TestRegionListRejectsFullList(t *testing.T) {
	ctx, _ := newTestContext(t, 2, 4, false)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	ctx.AddStaticRegion(Region{PA: 0x10000000, VA: 0x10000000, Size: PageSize, Attr: attr, Granularity: PageSize})
	ctx.AddStaticRegion(Region{PA: 0x20000000, VA: 0x20000000, Size: PageSize, Attr: attr, Granularity: PageSize})

	err := ctx.regions.insert(ctx, Region{PA: 0x30000000, VA: 0x30000000, Size: PageSize, Attr: attr, Granularity: PageSize})
	if err != ErrOutOfMemory {
		t.Fatalf("insert() on a full list = %v, want ErrOutOfMemory", err)
	}
}

func TestIdenticalRegionRejected(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	r := Region{PA: 0x10000000, VA: 0x10000000, Size: PageSize, Attr: attr, Granularity: PageSize}
	ctx.AddStaticRegion(r)

	err := ctx.regions.insert(ctx, r)
	if err != ErrPermissionDenied {
		t.Fatalf("re-inserting an identical region = %v, want ErrPermissionDenied", err)
	}
}

func TestContainedRegionWithMatchingOffsetAccepted(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	outer := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)
	inner := mustAttr(t, NormalCacheable, ReadOnly, NonSecure, Executable)

	// outer: identity mapped 2 MiB window
	ctx.AddStaticRegion(Region{PA: 0x40000000, VA: 0x40000000, Size: 0x200000, Attr: outer, Granularity: 0x200000})

	// inner: one identity-mapped page inside it, same VA-PA offset (0)
	err := ctx.regions.insert(ctx, Region{PA: 0x40001000, VA: 0x40001000, Size: PageSize, Attr: inner, Granularity: PageSize})
	if err != nil {
		t.Fatalf("insert() of a nested same-offset region = %v, want nil", err)
	}
}

func TestDynamicRegionsNeverOverlap(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, true)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	r := Region{PA: 0x40000000, VA: 0x40000000, Size: 0x200000, Attr: attr, Granularity: 0x200000}
	r.Attr.isDynamic = true
	if err := ctx.regions.insert(ctx, r); err != nil {
		t.Fatalf("insert() first dynamic region: %v", err)
	}

	overlap := Region{PA: 0x40001000, VA: 0x40001000, Size: PageSize, Attr: attr, Granularity: PageSize}
	overlap.Attr.isDynamic = true
	if err := ctx.regions.insert(ctx, overlap); err != ErrPermissionDenied {
		t.Fatalf("insert() of a nested dynamic region = %v, want ErrPermissionDenied", err)
	}
}

func TestMaxVAMaxPATrackedAndRecomputedOnRemoval(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, true)
	ctx.Init()

	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	r1 := Region{PA: 0x10000000, VA: 0x10000000, Size: PageSize, Attr: attr, Granularity: PageSize}
	r2 := Region{PA: 0x80000000, VA: 0x80000000, Size: PageSize, Attr: attr, Granularity: PageSize}

	if err := ctx.AddDynamicRegion(r1); err != nil {
		t.Fatalf("AddDynamicRegion r1: %v", err)
	}
	if err := ctx.AddDynamicRegion(r2); err != nil {
		t.Fatalf("AddDynamicRegion r2: %v", err)
	}

	if ctx.MaxMappedVA() != r2.end() {
		t.Fatalf("MaxMappedVA() = %#x, want %#x", ctx.MaxMappedVA(), r2.end())
	}

	if err := ctx.RemoveDynamicRegion(r2.VA, r2.Size); err != nil {
		t.Fatalf("RemoveDynamicRegion r2: %v", err)
	}

	if ctx.MaxMappedVA() != r1.end() {
		t.Fatalf("MaxMappedVA() after removing the owner = %#x, want %#x", ctx.MaxMappedVA(), r1.end())
	}
}

func TestRemoveDynamicRegionRejectsStaticRegion(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, true)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	ctx.AddStaticRegion(Region{PA: 0x10000000, VA: 0x10000000, Size: PageSize, Attr: attr, Granularity: PageSize})
	ctx.Init()

	if err := ctx.RemoveDynamicRegion(0x10000000, PageSize); err != ErrPermissionDenied {
		t.Fatalf("RemoveDynamicRegion on a static region = %v, want ErrPermissionDenied", err)
	}
}

func TestRemoveDynamicRegionNotFound(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, true)
	ctx.Init()

	if err := ctx.RemoveDynamicRegion(0x10000000, PageSize); err != ErrNotFound {
		t.Fatalf("RemoveDynamicRegion on a missing region = %v, want ErrNotFound", err)
	}
}

// Boundary: a region ending at the last legal VA succeeds.
func TestAddRegionAtLastLegalVA(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	last := ctx.MaxVA
	base := (last + 1) - PageSize

	ctx.AddStaticRegion(Region{PA: base, VA: base, Size: PageSize, Attr: attr, Granularity: PageSize})

	if ctx.MaxMappedVA() != last {
		t.Fatalf("MaxMappedVA() = %#x, want %#x", ctx.MaxMappedVA(), last)
	}
}

// Boundary: a static region spanning the whole VA space rejects any later
// dynamic add with permission-denied (full-VA containment of a static
// region by another region is legal only when offsets match and it is not
// the dynamic-overlap case; a whole-space static region followed by any
// dynamic add always triggers the dynamic-never-overlaps rule).
func TestWholeSpaceStaticRegionRejectsLaterDynamicAdd(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, true)
	attr := mustAttr(t, NormalCacheable, ReadWrite, NonSecure, ExecuteNever)

	ctx.AddStaticRegion(Region{PA: 0, VA: 0, Size: ctx.MaxVA + 1, Attr: attr, Granularity: 0x40000000})
	ctx.Init()

	other := mustAttr(t, Device, ReadWrite, NonSecure, ExecuteNever)
	err := ctx.AddDynamicRegion(Region{PA: 0x09000000, VA: 0x09000000, Size: PageSize, Attr: other, Granularity: PageSize})
	if err != ErrPermissionDenied {
		t.Fatalf("AddDynamicRegion over a whole-space static region = %v, want ErrPermissionDenied", err)
	}
}
