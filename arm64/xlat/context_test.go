// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

import (
	"testing"
	"unsafe"
)

func TestBaseTableAddrMatchesBaseField(t *testing.T) {
	ctx, _ := newTestContext(t, 8, 4, false)

	want := uintptr(unsafe.Pointer(&ctx.base))
	if got := ctx.BaseTableAddr(); got != want {
		t.Fatalf("BaseTableAddr() = %#x, want %#x", got, want)
	}
}

func TestNewContextPanicsOnNilHooks(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("NewContext with nil Hooks did not panic")
		}
	}()

	NewContext(Config{VABits: 32, MaxPA: 1<<32 - 1, MaxRegions: 8, MaxSubtables: 4})
}

func TestNewContextPanicsOnMaxPAExceedingPlatform(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("NewContext with MaxPA > platform maximum did not panic")
		}
	}()

	NewContext(Config{
		VABits:       32,
		MaxPA:        1 << 41,
		MaxRegions:   8,
		MaxSubtables: 4,
		Hooks:        &RecordingHooks{MaxPA: 1 << 40},
	})
}

func TestNewContextPanicsOnInvalidVABits(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("NewContext with an unsupported VABits did not panic")
		}
	}()

	NewContext(Config{
		VABits:       11,
		MaxPA:        0xfff,
		MaxRegions:   8,
		MaxSubtables: 4,
		Hooks:        &RecordingHooks{},
	})
}
