// NXP i.MX8MP initialization
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package imx8mp

import (
	"runtime"

	"github.com/usbarmory/tamago/arm64/xlat"
)

// AIPS_BASE and AIPS_SIZE bound the peripheral bus window this SoC's
// register blocks (UART, ENET, OCOTP, WDOG, ...) live in; the whole window
// is mapped as a single Device region rather than one page per peripheral,
// since the set of peripherals a given board actually drives varies and
// none of them are a ChangeMemAttributes target.
const (
	AIPS_BASE = 0x30000000
	AIPS_SIZE = 0x10000000
)

// regions builds the static memory map passed to arm64.CPU.ConfigureMMU:
// the runtime text segment read-only and executable, the rest of DRAM
// read-write and execute-never, OCRAM read-write and execute-never, and the
// AIPS peripheral window as Device memory. Everything else in the 32-bit
// legacy address space outside DRAM/OCRAM/AIPS is left unmapped. No static
// region can be added to it later: CPU.MMU() is nil until ConfigureMMU runs
// and already initialized afterwards, when AddStaticRegion panics; only
// AddDynamicRegion on CPU.MMU() can map more after boot.
func regions(maxPA uint64) []xlat.Region {
	ramStart, ramEnd := runtime.MemRegion()
	textStart, textEnd := runtime.TextRegion()

	ro, _ := xlat.NewAttr(xlat.NormalCacheable, xlat.ReadOnly, xlat.NonSecure, xlat.Executable)
	rw, _ := xlat.NewAttr(xlat.NormalCacheable, xlat.ReadWrite, xlat.NonSecure, xlat.ExecuteNever)
	dev, _ := xlat.NewAttr(xlat.Device, xlat.ReadWrite, xlat.NonSecure, xlat.ExecuteNever)

	rs := []xlat.Region{
		{
			PA: uint64(textStart), VA: uint64(textStart),
			Size: uint64(textEnd - textStart), Attr: ro,
			Granularity: xlat.PageSize,
		},
		{
			PA: uint64(ramStart), VA: uint64(ramStart),
			Size: uint64(textStart - ramStart), Attr: rw,
			Granularity: xlat.PageSize,
		},
		{
			PA: uint64(textEnd), VA: uint64(textEnd),
			Size: uint64(ramEnd - textEnd), Attr: rw,
			Granularity: xlat.PageSize,
		},
		{
			PA: OCRAM_START, VA: OCRAM_START,
			Size: OCRAM_SIZE, Attr: rw,
			Granularity: xlat.PageSize,
		},
		{
			PA: AIPS_BASE, VA: AIPS_BASE,
			Size: AIPS_SIZE, Attr: dev,
			Granularity: 0x200000,
		},
	}

	return rs
}
