// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

// RecordingHooks is a Hooks implementation that performs no architectural
// side effects but records every TLB invalidation, for use by tests and by
// callers exercising the engine ahead of wiring the real exception-level
// assembly. It mirrors arm64/gic.GIC's pattern of caching a small piece of
// state (there, hw.mpidr; here, the invalidation log) rather than
// re-deriving it on every call.
type RecordingHooks struct {
	MaxPA uint64
	EL    int

	Invalidated []uint64
	Syncs       int
}

func (h *RecordingHooks) InvalidateTLB(va uint64, el int) {
	h.Invalidated = append(h.Invalidated, va)
}

func (h *RecordingHooks) TLBSync() {
	h.Syncs++
}

func (h *RecordingHooks) CurrentEL() int {
	return h.EL
}

func (h *RecordingHooks) XNMask(el int) uint64 {
	return XNMask(el)
}

func (h *RecordingHooks) MaxSupportedPA() uint64 {
	if h.MaxPA == 0 {
		return 1 << 48
	}
	return h.MaxPA
}
