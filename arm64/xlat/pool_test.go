// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

import "testing"

func TestPoolHandleRoundTrip(t *testing.T) {
	p := newPool(4, true)

	h, ok := p.alloc()
	if !ok {
		t.Fatalf("alloc() failed on an empty pool")
	}

	addr := tableAddr(h.index)
	got := handleFromAddr(addr)

	if got != h {
		t.Fatalf("handleFromAddr(tableAddr(h)) = %+v, want %+v", got, h)
	}
}

func TestPoolStaticBumpNeverReclaims(t *testing.T) {
	p := newPool(2, false)

	h0, ok := p.alloc()
	if !ok {
		t.Fatalf("alloc() #1 failed")
	}

	p.decref(h0)
	p.decref(h0)

	h1, ok := p.alloc()
	if !ok {
		t.Fatalf("alloc() #2 failed")
	}
	if h1 == h0 {
		t.Fatalf("static pool reused a table after decref")
	}

	if _, ok := p.alloc(); ok {
		t.Fatalf("alloc() #3 should fail, pool has only 2 tables")
	}
}

func TestPoolDynamicReclaimsOnZeroRefcount(t *testing.T) {
	p := newPool(1, true)

	h, ok := p.alloc()
	if !ok {
		t.Fatalf("alloc() failed")
	}
	p.incref(h)

	if _, ok := p.alloc(); ok {
		t.Fatalf("alloc() should fail while the only table is in use")
	}

	if rc := p.decref(h); rc != 0 {
		t.Fatalf("decref() = %d, want 0", rc)
	}

	if _, ok := p.alloc(); !ok {
		t.Fatalf("alloc() should succeed once the table's refcount drops to 0")
	}
}

func TestComputeBaseLevel(t *testing.T) {
	cases := []struct {
		vaBits        int
		level         int
		baseBits      uint
		ok            bool
	}{
		{32, 1, 2, true},
		{48, 0, 9, true},
		{39, 1, 9, true},
		{25, 2, 4, true},
		{11, 0, 0, false},
	}

	for _, c := range cases {
		level, baseBits, ok := computeBaseLevel(c.vaBits)
		if ok != c.ok {
			t.Fatalf("computeBaseLevel(%d) ok = %v, want %v", c.vaBits, ok, c.ok)
		}
		if !ok {
			continue
		}
		if level != c.level || baseBits != c.baseBits {
			t.Fatalf("computeBaseLevel(%d) = (%d, %d), want (%d, %d)", c.vaBits, level, baseBits, c.level, c.baseBits)
		}
	}
}
