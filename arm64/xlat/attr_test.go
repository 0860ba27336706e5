// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

import "testing"

// Executability is meaningful on any read-only normal memory, cacheable or
// not; only Device memory (and any read-write mapping) is forced
// execute-never (spec §3/§4.5). A prior revision only honored Exec for
// NormalCacheable, silently dropping it for NormalNonCacheable.
func TestLeafDescriptorNormalNonCacheableExecutable(t *testing.T) {
	attr := mustAttr(t, NormalNonCacheable, ReadOnly, NonSecure, Executable)

	d := leafDescriptor(0x40000000, 3, attr, descPXN|descUXN)

	if d&descPXN != 0 || d&descUXN != 0 {
		t.Fatalf("leafDescriptor(NormalNonCacheable, RO, Executable) set XN, want executable")
	}
}

func TestLeafDescriptorDeviceAlwaysExecuteNever(t *testing.T) {
	attr := mustAttr(t, Device, ReadOnly, NonSecure, Executable)

	d := leafDescriptor(0x09000000, 3, attr, descPXN|descUXN)

	if d&descUXN == 0 {
		t.Fatalf("leafDescriptor(Device, RO, Executable) did not set XN, want always execute-never")
	}
}

// Building a static region and then requesting the same logical attribute
// through ChangeMemAttributes must not change the resulting descriptor.
func TestBuildAndMutateAgreeOnNormalNonCacheableExecutable(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)
	attr := mustAttr(t, NormalNonCacheable, ReadOnly, NonSecure, Executable)

	ctx.AddStaticRegion(Region{PA: 0x40000000, VA: 0x40000000, Size: PageSize, Attr: attr, Granularity: PageSize})
	ctx.Init()

	before, ok := ctx.walk(0x40000000)
	if !ok {
		t.Fatalf("walk(0x40000000) not found after Init")
	}
	builtDesc := before.tbl[before.index]

	if err := ctx.ChangeMemAttributes(0x40000000, PageSize, attr); err != nil {
		t.Fatalf("ChangeMemAttributes: %v", err)
	}

	after, _ := ctx.walk(0x40000000)
	if got := after.tbl[after.index]; got != builtDesc {
		t.Fatalf("descriptor changed after requesting the same attribute: built %#x, mutated %#x", builtDesc, got)
	}
}
