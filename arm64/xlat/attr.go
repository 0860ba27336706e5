// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

// ARMv8-A long-descriptor format bit positions
// (ARM DDI 0487, section D5.3 "VMSAv8-64 translation table descriptor
// formats").
const (
	descValid  = 1 << 0
	descTable  = 1 << 1 // also the "page" bit at level 3
	descAttrIx = 2       // AttrIndx[4:2], 3 bits
	descNS     = 1 << 5
	descAP1    = 1 << 6 // AP[1]: unprivileged access, always 0 here
	descAPRO   = 1 << 7 // AP[2]: 1 = read-only, 0 = read-write
	descSH     = 8       // SH[1:0], 2 bits
	descAF     = 1 << 10
	descPXN    = 1 << 53
	descUXN    = 1 << 54 // also referred to as XN for stage 1 EL1/EL0
)

const (
	shNonShareable   = 0b00
	shOuterShareable = 0b10
	shInnerShareable = 0b11
)

// MAIR_EL1 attribute encoding indices this engine assumes. The caller's
// external MMU-enable sequence (out of scope per spec §1(b)) must program
// MAIR_EL1 with MAIRValue() before enabling translation, so that these
// indices resolve to the memory types the engine encodes into AttrIndx.
const (
	attrIdxDevice             = 0
	attrIdxNormalNonCacheable = 1
	attrIdxNormalCacheable    = 2
)

// MAIR_EL1 attribute encodings
// (ARM DDI 0487, section D13.2.97 "MAIR_EL1").
const (
	mairDevice_nGnRnE    = 0x00
	mairNormalNonCache   = 0x44
	mairNormalWriteBack  = 0xff
)

// MAIRValue returns the MAIR_EL1 value matching the attribute indices this
// package encodes into descriptors.
func MAIRValue() uint64 {
	var v uint64
	v |= uint64(mairDevice_nGnRnE) << (8 * attrIdxDevice)
	v |= uint64(mairNormalNonCache) << (8 * attrIdxNormalNonCacheable)
	v |= uint64(mairNormalWriteBack) << (8 * attrIdxNormalCacheable)
	return v
}

// XNMask is the reference implementation of the xn_mask(exception_level)
// hook of spec §6, for Hooks implementations to call: at stage 1 EL1&0,
// instruction fetch is governed by UXN (EL0) and PXN (EL1); a kernel-only
// mapping forbids fetch at either level by setting both.
func XNMask(el int) uint64 {
	switch el {
	case 1:
		return descPXN | descUXN
	default:
		return descUXN
	}
}

// leafDescriptor composes a page (level 3) or block (level < 3) descriptor
// for the given destination PA and region attribute, per spec §4.5.
func leafDescriptor(pa uint64, level int, a Attr, xnMask uint64) uint64 {
	d := pa | descValid | descAF

	if level == 3 {
		d |= descTable // the "page" encoding reuses the table bit at L3
	}

	if a.NS == NonSecure {
		d |= descNS
	}

	if a.AP == ReadOnly {
		d |= descAPRO
	}

	executable := a.AP == ReadOnly && a.Exec == Executable && a.Type != Device

	switch a.Type {
	case Device:
		d |= uint64(attrIdxDevice) << descAttrIx
		d |= shOuterShareable << descSH
	case NormalCacheable:
		d |= uint64(attrIdxNormalCacheable) << descAttrIx
		d |= shInnerShareable << descSH
	case NormalNonCacheable:
		d |= uint64(attrIdxNormalNonCacheable) << descAttrIx
		d |= shOuterShareable << descSH
	}

	// Device memory and any RW mapping are always execute-never
	// regardless of the region's requested Exec value (spec §3, §9
	// "Descriptor encoding vs. policy"). SCTLR.WXN enforces the RW case
	// independently in hardware; XN is still set here so an
	// MMU-off observer reading the raw table sees the same policy.
	if !executable {
		d |= xnMask
	}

	return d
}

// isValid, isTableDescriptor and isLeafDescriptor classify a raw
// descriptor value.
func isValid(d uint64) bool {
	return d&descValid != 0
}

func isTableDescriptor(d uint64, level int) bool {
	return isValid(d) && level < 3 && d&descTable != 0
}

func isLeafDescriptor(d uint64, level int) bool {
	if !isValid(d) {
		return false
	}
	if level == 3 {
		return true
	}
	return d&descTable == 0
}

// descriptorPA extracts the destination physical address (or, for table
// descriptors, the sub-table's synthetic physical address) from a
// descriptor. Output address bits follow ARM DDI 0487 D5.3: bits [47:12]
// for a 4 KiB granule, page-aligned, so masking off the low 12 bits and
// the upper attribute bits (PXN/UXN, bit 52+) recovers it.
const descAddrMask = 0x000ffffffffff000

func descriptorPA(d uint64) uint64 {
	return d & descAddrMask
}
