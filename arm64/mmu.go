// ARM64 processor support
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package arm64

import (
	"github.com/usbarmory/tamago/arm64/xlat"
)

// defined in mmu.s
func write_mair_el1(uint64)
func write_tcr_el1(uint64)
func write_ttbr0_el1(uint64)
func invalidate_tlb_el1(va uint64)
func dsb_ish()

// cpuHooks wires the xlat engine to this CPU instance's TLB maintenance and
// current-exception-level primitives, so that the engine itself never
// touches architecture registers directly (spec §6, "Hooks").
type cpuHooks struct {
	maxPA uint64
}

func (h *cpuHooks) InvalidateTLB(va uint64, el int) {
	invalidate_tlb_el1(va)
}

func (h *cpuHooks) TLBSync() {
	dsb_ish()
}

func (h *cpuHooks) CurrentEL() int {
	return int(read_el()&0b1100) >> 2
}

func (h *cpuHooks) XNMask(el int) uint64 {
	return xlat.XNMask(el)
}

func (h *cpuHooks) MaxSupportedPA() uint64 {
	if h.maxPA != 0 {
		return h.maxPA
	}
	return 1 << 40
}

// ConfigureMMU builds the translation table tree for regions and programs
// MAIR_EL1/TCR_EL1/TTBR0_EL1 to enable it. It replaces the earlier
// ARMv7-A-style flat section mapping with the general recursive table
// builder in the xlat package, which the calling SoC package supplies its
// memory map to (soc/nxp/imx8mp is the one caller) instead of relying on a
// single hardcoded identity map.
//
// regions must already satisfy the validation rules enforced by
// xlat.Context.AddStaticRegion (non-overlapping or nested-with-matching-
// offset, granularity-aligned); ConfigureMMU panics on a malformed region
// list, same as the rest of the CPU.Init family.
//
// dynamic is forwarded unchanged to xlat.Config.Dynamic; callers gate its
// value with the xlat_dynamic build tag at their own call site (see
// soc/nxp/imx8mp's xlatDynamic), the same way board mem.go files gate
// ramSize, rather than this method branching on it.
//
// TODO: sub-tables handed out by the pool are addressed through xlat's
// synthetic tableAddr/handleFromAddr scheme rather than their real Go
// backing memory, so a walk that descends past the base level does not yet
// resolve on real silicon. Binding the pool to DMA-visible physical memory
// is tracked as follow-up work; only BaseTableAddr() below is a real
// address. With VABits 48 the base table is at level 0, where
// MinBlockLevel 1 allows no block descriptors, so every region is mapped
// through at least one pool sub-table.
func (cpu *CPU) ConfigureMMU(regions []xlat.Region, maxPA uint64, dynamic bool) *xlat.Context {
	cpu.mmu = xlat.NewContext(xlat.Config{
		VABits:        48,
		MaxPA:         maxPA,
		MaxRegions:    len(regions) + 8,
		MaxSubtables:  64,
		MinBlockLevel: 1,
		EL:            xlat.ELCurrent,
		Dynamic:       dynamic,
		Hooks:         &cpuHooks{maxPA: maxPA},
	})

	for _, r := range regions {
		cpu.mmu.AddStaticRegion(r)
	}

	cpu.mmu.Init()

	write_mair_el1(xlat.MAIRValue())
	write_tcr_el1(tcrValue(cpu.mmu.BaseLevel()))
	write_ttbr0_el1(uint64(cpu.mmu.BaseTableAddr()))

	dsb_ish()

	return cpu.mmu
}

// tcrValue derives a TCR_EL1 configuration matching the granule and base
// level the table tree was built with (4 KiB granule, TTBR0 walk only).
func tcrValue(baseLevel int) uint64 {
	const (
		tcrT0SZShift = 0
		tcrTG0_4K    = 0 << 14
		tcrSH0_IS    = 3 << 12
		tcrORGN0_WBA = 1 << 10
		tcrIRGN0_WBA = 1 << 8
		tcrEPD1      = 1 << 23 // disable TTBR1 walks, this engine maps via TTBR0 only
	)

	t0sz := uint64(64 - 48)

	return t0sz<<tcrT0SZShift | tcrTG0_4K | tcrSH0_IS | tcrORGN0_WBA | tcrIRGN0_WBA | tcrEPD1
}

// MMU returns the translation table context configured by ConfigureMMU, or
// nil if the MMU has not been configured yet.
func (cpu *CPU) MMU() *xlat.Context {
	return cpu.mmu
}
