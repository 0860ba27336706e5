// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package xlat builds and maintains ARMv8-A long-descriptor translation
// tables from a sorted list of virtual-to-physical memory regions. It
// implements the recursive table builder, its mirror unmapper, refcount
// based sub-table reclamation, and an in-place attribute mutator, but
// leaves MMU register programming, TLB broadcast and console logging to
// the caller through the Hooks interface and the base table address,
// MaxVA and MaxMappedPA values the Context exposes after Init.
package xlat

import "unsafe"

// ELCurrent requests that Hooks.CurrentEL() supply the exception level at
// call time, instead of a Context pinned to one EL.
const ELCurrent = -1

// Hooks is the engine-to-architecture interface of spec §6: the four
// operations the builder, unmapper and attribute mutator consume, plus a
// query for the maximum physical address width the platform supports.
type Hooks interface {
	// InvalidateTLB broadcasts a TLB invalidation for one virtual
	// address at the given exception level.
	InvalidateTLB(va uint64, el int)

	// TLBSync performs a data synchronization barrier across a TLB
	// maintenance sequence (inner-shareable domain).
	TLBSync()

	// CurrentEL returns the exception level the caller is presently
	// running at, consulted only when a Context's EL is ELCurrent.
	CurrentEL() int

	// XNMask returns the execute-never bit mask appropriate for the
	// given exception level.
	XNMask(el int) uint64

	// MaxSupportedPA returns the upper bound on physical address width
	// the platform's MMU supports, used to assert Context configuration.
	MaxSupportedPA() uint64
}

// Config configures a new Context.
type Config struct {
	// VABits is the width, in bits, of the virtual address space
	// (e.g. 32 or 48). It determines the base table level and entry
	// count (spec §3, GLOSSARY "Level").
	VABits int

	// MaxPA is the configured upper bound on physical addresses; it
	// must not exceed Hooks.MaxSupportedPA().
	MaxPA uint64

	// MaxRegions is the capacity of the region list.
	MaxRegions int

	// MaxSubtables is the capacity of the sub-table pool.
	MaxSubtables int

	// MinBlockLevel is the shallowest level the builder may use a
	// block descriptor at (spec §4.2); levels shallower than this are
	// always split into sub-tables regardless of alignment.
	MinBlockLevel int

	// EL is the exception level translations are built for, or
	// ELCurrent to query it from Hooks at each TLB invalidation.
	EL int

	// Dynamic enables sub-table refcount bookkeeping, so that tables
	// emptied by RemoveDynamicRegion return to the pool (spec §2,
	// component 4; SPEC_FULL.md "Configuration"). AddDynamicRegion and
	// RemoveDynamicRegion do not check it; without it, removed regions
	// never free their sub-tables.
	Dynamic bool

	Hooks Hooks
}

// Context is the long-lived translation-table owner of spec §3.
type Context struct {
	MaxVA uint64
	MaxPA uint64
	EL    int

	base          table
	baseLevel     int
	baseBits      uint
	minBlockLevel int

	pool    pool
	regions regionList

	maxMappedVA uint64
	maxMappedPA uint64
	initialized bool

	hooks Hooks
}

// computeBaseLevel derives the base lookup level and its index-bit width
// from the configured VA address-space width, per spec §3: "a smaller VA
// space starts at a deeper level with fewer entries."
func computeBaseLevel(vaBits int) (level int, baseBits uint, ok bool) {
	totalBits := vaBits - 12
	if totalBits <= 0 {
		return 0, 0, false
	}

	levels := (totalBits + 8) / 9 // ceil(totalBits / 9)
	if levels < 1 || levels > 4 {
		return 0, 0, false
	}

	level = 4 - levels
	baseBits = uint(totalBits - 9*(levels-1))

	if baseBits < 1 || baseBits > 9 {
		return 0, 0, false
	}

	return level, baseBits, true
}

// NewContext constructs an uninitialized Context with the given
// configuration. It panics on an invalid configuration, consistent with
// spec §7 treating configuration as fixed at build time.
func NewContext(cfg Config) *Context {
	level, baseBits, ok := computeBaseLevel(cfg.VABits)
	if !ok {
		panic("xlat: invalid VABits")
	}

	if cfg.Hooks == nil {
		panic("xlat: Hooks is required")
	}

	if cfg.MaxPA > cfg.Hooks.MaxSupportedPA() {
		panic("xlat: MaxPA exceeds platform maximum")
	}

	minBlockLevel := cfg.MinBlockLevel
	if minBlockLevel == 0 {
		minBlockLevel = 1
	}

	ctx := &Context{
		MaxVA:         uint64(1)<<uint(cfg.VABits) - 1,
		MaxPA:         cfg.MaxPA,
		EL:            cfg.EL,
		baseLevel:     level,
		baseBits:      baseBits,
		minBlockLevel: minBlockLevel,
		pool:          newPool(cfg.MaxSubtables, cfg.Dynamic),
		regions:       newRegionList(cfg.MaxRegions),
		hooks:         cfg.Hooks,
	}

	return ctx
}

// BaseEntries returns the number of valid entries in the base table.
func (ctx *Context) BaseEntries() int {
	return 1 << ctx.baseBits
}

// BaseLevel returns the lookup level the base table starts at.
func (ctx *Context) BaseLevel() int {
	return ctx.baseLevel
}

// el resolves ctx.EL, querying Hooks.CurrentEL() if ctx.EL is ELCurrent.
func (ctx *Context) el() int {
	if ctx.EL == ELCurrent {
		return ctx.hooks.CurrentEL()
	}
	return ctx.EL
}

// Init consumes the sorted region list accumulated via AddStaticRegion and
// AddDynamicRegion and populates the tree (spec §2). It must be called
// exactly once. A builder failure during Init is a configuration error
// (the pool is too small for the static memory map) and panics, per spec
// §7 treating pre-init failures as programming bugs.
func (ctx *Context) Init() {
	if ctx.initialized {
		panic("xlat: Init called twice")
	}

	for _, r := range ctx.regions.regions {
		if _, _, ok := ctx.build(r); !ok {
			panic("xlat: sub-table pool exhausted during Init")
		}
	}

	ctx.initialized = true
}

// Initialized reports whether Init has run.
func (ctx *Context) Initialized() bool {
	return ctx.initialized
}

// BaseTableEntries exposes the raw base table descriptors for diagnostics
// and the MMU-enable sequence (spec §6, "engine-to-architecture interface
// (produced)": base table pointer, actual max PA, configured max VA).
func (ctx *Context) BaseTableEntries() []uint64 {
	return ctx.base[:ctx.BaseEntries()]
}

// MaxMappedVA and MaxMappedPA return the actual highest VA/PA currently
// mapped, as opposed to MaxVA/MaxPA's configured bounds.
func (ctx *Context) MaxMappedVA() uint64 { return ctx.maxMappedVA }
func (ctx *Context) MaxMappedPA() uint64 { return ctx.maxMappedPA }

// BaseTableAddr returns the real address of the base table, suitable for
// programming into TTBR0_EL1. Unlike sub-tables handed out by the pool
// (addressed through the synthetic tableAddr/handleFromAddr scheme so the
// builder never needs pointer-identity scans, spec §9), the base table is
// an ordinary field of Context and its address is a genuine machine
// address.
func (ctx *Context) BaseTableAddr() uintptr {
	return uintptr(unsafe.Pointer(&ctx.base))
}
