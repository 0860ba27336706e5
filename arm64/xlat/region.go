// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

const PageSize = 0x1000

// MemType orders memory types weak to strong, the only ordering the
// builder relies on for overlap rules.
type MemType uint8

const (
	Device MemType = iota
	NormalNonCacheable
	NormalCacheable
)

// AccessPermission selects read-only or read-write data access.
type AccessPermission uint8

const (
	ReadWrite AccessPermission = iota
	ReadOnly
)

// Security selects the NS (non-secure) bit.
type Security uint8

const (
	Secure Security = iota
	NonSecure
)

// Executability controls the XN/PXN bits. It is only meaningful on
// read-only normal memory: device memory and read-write memory are always
// execute-never regardless of this field (attr.go encodes the policy).
type Executability uint8

const (
	ExecuteNever Executability = iota
	Executable
)

// Attr packs a region's memory type, access permission, security state,
// executability and the engine-private dynamic flag into one small value.
// User code never sets the dynamic flag directly; AddDynamicRegion sets it.
type Attr struct {
	Type       MemType
	AP         AccessPermission
	NS         Security
	Exec       Executability
	isDynamic  bool
}

// NewAttr validates and constructs an Attr. It rejects the read-write plus
// executable combination eagerly, the same combination
// ChangeMemAttributes rejects on mutation (spec §4.6); checking it at
// construction time as well catches the mistake on static regions too.
func NewAttr(t MemType, ap AccessPermission, ns Security, exec Executability) (Attr, error) {
	if ap == ReadWrite && exec == Executable {
		return Attr{}, ErrInvalidArgument
	}

	return Attr{Type: t, AP: ap, NS: ns, Exec: exec}, nil
}

// Dynamic reports whether the attribute was set by AddDynamicRegion.
func (a Attr) Dynamic() bool {
	return a.isDynamic
}

// Region is the unit of mapping request (spec §3).
type Region struct {
	PA          uint64
	VA          uint64
	Size        uint64
	Attr        Attr
	Granularity uint64
}

// end returns the last byte address covered by the region.
func (r Region) end() uint64 {
	return r.VA + r.Size - 1
}

func (r Region) endPA() uint64 {
	return r.PA + r.Size - 1
}

// aligned reports whether v is a multiple of PageSize.
func aligned(v uint64) bool {
	return v&(PageSize-1) == 0
}

// validate checks the per-add rules common to both static and dynamic
// regions: alignment, absence of wraparound, and configured bounds. It does
// not check overlap against the existing list; that is regionList.insert's
// job since it needs every already-present region for rule 4.
func (r Region) validate(ctx *Context) error {
	if r.Size == 0 {
		return ErrInvalidArgument
	}

	if !aligned(r.PA) || !aligned(r.VA) || !aligned(r.Size) || !aligned(r.Granularity) {
		return ErrInvalidArgument
	}

	if r.Granularity == 0 || r.Granularity > r.Size {
		return ErrInvalidArgument
	}

	if r.VA+r.Size < r.VA || r.PA+r.Size < r.PA {
		return ErrOutOfRange
	}

	if r.end() > ctx.MaxVA || r.endPA() > ctx.MaxPA {
		return ErrOutOfRange
	}

	return nil
}

// overlapsVA reports whether a and b's VA intervals share any byte.
func overlapsVA(a, b Region) bool {
	return a.VA <= b.end() && b.VA <= a.end()
}

// overlapsPA reports whether a and b's PA intervals share any byte.
func overlapsPA(a, b Region) bool {
	return a.PA <= b.endPA() && b.PA <= a.endPA()
}

// containsVA reports whether a fully contains b's VA interval (or they are
// equal).
func containsVA(a, b Region) bool {
	return a.VA <= b.VA && b.end() <= a.end()
}

// sameRegion reports exact identity of base and size (spec §4.1 rule 4:
// "they must not be the same region").
func sameRegion(a, b Region) bool {
	return a.VA == b.VA && a.Size == b.Size
}

// checkOverlap enforces spec §4.1 rule 4 and rule 5 against one
// already-present region.
func checkOverlap(candidate, existing Region) error {
	if candidate.Attr.Dynamic() || existing.Attr.Dynamic() {
		if overlapsVA(candidate, existing) || overlapsPA(candidate, existing) {
			return ErrPermissionDenied
		}
		return nil
	}

	vaContainsEither := containsVA(candidate, existing) || containsVA(existing, candidate)

	switch {
	case vaContainsEither:
		if sameRegion(candidate, existing) {
			return ErrPermissionDenied
		}

		// offset = VA - PA must match across the containment so that
		// the contained region's addresses are consistent with the
		// containing one.
		if (candidate.VA - candidate.PA) != (existing.VA - existing.PA) {
			return ErrPermissionDenied
		}

		return nil
	case !overlapsVA(candidate, existing) && !overlapsPA(candidate, existing):
		// complete separation in both VA and PA
		return nil
	default:
		// partial overlap in either dimension
		return ErrPermissionDenied
	}
}

// regionList is the bounded, sorted array of region records described in
// spec §3/§4.1. It is embedded in Context.
type regionList struct {
	regions []Region
	cap     int
}

func newRegionList(capacity int) regionList {
	return regionList{regions: make([]Region, 0, capacity), cap: capacity}
}

// insert validates candidate against every rule in spec §4.1 and, if legal,
// inserts it keeping the list sorted by (end-VA ascending, size ascending).
func (rl *regionList) insert(ctx *Context, candidate Region) error {
	if err := candidate.validate(ctx); err != nil {
		return err
	}

	if len(rl.regions) >= rl.cap {
		return ErrOutOfMemory
	}

	for _, existing := range rl.regions {
		if err := checkOverlap(candidate, existing); err != nil {
			return err
		}
	}

	idx := 0
	for idx < len(rl.regions) {
		r := rl.regions[idx]
		if r.end() > candidate.end() || (r.end() == candidate.end() && r.Size > candidate.Size) {
			break
		}
		idx++
	}

	rl.regions = append(rl.regions, Region{})
	copy(rl.regions[idx+1:], rl.regions[idx:])
	rl.regions[idx] = candidate

	return nil
}

// removeAt deletes the region at index i, compacting the list.
func (rl *regionList) removeAt(i int) {
	rl.regions = append(rl.regions[:i], rl.regions[i+1:]...)
}

// find locates the region with the exact (base_va, size) pair.
func (rl *regionList) find(base, size uint64) (int, bool) {
	for i, r := range rl.regions {
		if r.VA == base && r.Size == size {
			return i, true
		}
	}
	return -1, false
}

// recomputeMax recomputes MaxVA/MaxPA by linear scan, used after removal
// when the removed region owned either current maximum (spec §4.1,
// remove_dynamic).
func (rl *regionList) recomputeMax(ctx *Context) {
	var maxVA, maxPA uint64

	for _, r := range rl.regions {
		if r.end() > maxVA {
			maxVA = r.end()
		}
		if r.endPA() > maxPA {
			maxPA = r.endPA()
		}
	}

	ctx.maxMappedVA = maxVA
	ctx.maxMappedPA = maxPA
}

// AddStaticRegion adds a region prior to initialization. Per spec §7,
// pre-init validation failures are programming bugs: the memory map is
// fixed at build time and cannot proceed with a malformed entry, so this
// panics rather than returning a status the caller could ignore.
func (ctx *Context) AddStaticRegion(r Region) {
	if ctx.initialized {
		panic("xlat: AddStaticRegion called after Init")
	}

	if err := ctx.regions.insert(ctx, r); err != nil {
		panic("xlat: invalid static region: " + err.Error())
	}

	if r.end() > ctx.maxMappedVA {
		ctx.maxMappedVA = r.end()
	}
	if r.endPA() > ctx.maxMappedPA {
		ctx.maxMappedPA = r.endPA()
	}
}

// AddDynamicRegion adds a region at any time. Pre-initialization it only
// updates the region list; post-initialization it also drives the builder
// and, on partial failure, rolls back via the unmapper (spec §4.1).
func (ctx *Context) AddDynamicRegion(r Region) error {
	r.Attr.isDynamic = true

	if err := ctx.regions.insert(ctx, r); err != nil {
		return err
	}

	if r.end() > ctx.maxMappedVA {
		ctx.maxMappedVA = r.end()
	}
	if r.endPA() > ctx.maxMappedPA {
		ctx.maxMappedPA = r.endPA()
	}

	if !ctx.initialized {
		return nil
	}

	failVA, any, ok := ctx.build(r)
	if !ok {
		if any {
			// roll back the partial mapping up to the failure point
			rollback := r
			rollback.Size = failVA - r.VA + 1
			ctx.unmap(rollback)
		}

		if idx, found := ctx.regions.find(r.VA, r.Size); found {
			ctx.regions.removeAt(idx)
			ctx.regions.recomputeMax(ctx)
		}

		ctx.hooks.TLBSync()

		return ErrOutOfMemory
	}

	ctx.hooks.TLBSync()

	return nil
}

// RemoveDynamicRegion removes a region added via AddDynamicRegion, by exact
// (base_va, size) match (spec §4.1).
func (ctx *Context) RemoveDynamicRegion(baseVA, size uint64) error {
	idx, found := ctx.regions.find(baseVA, size)
	if !found {
		return ErrNotFound
	}

	r := ctx.regions.regions[idx]
	if !r.Attr.Dynamic() {
		return ErrPermissionDenied
	}

	if ctx.initialized {
		ctx.unmap(r)
		ctx.hooks.TLBSync()
	}

	ownedMax := r.end() == ctx.maxMappedVA || r.endPA() == ctx.maxMappedPA

	ctx.regions.removeAt(idx)

	if ownedMax {
		ctx.regions.recomputeMax(ctx)
	}

	return nil
}
