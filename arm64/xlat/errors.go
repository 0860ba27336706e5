// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package xlat

import "errors"

// Dynamic operation status codes (Region list manager and Attribute
// mutator, see package doc). Pre-initialization violations from
// AddStaticRegion are programming bugs and panic instead of returning one
// of these.
var (
	// ErrInvalidArgument indicates unaligned addresses/sizes, a zero
	// size region outside of its sentinel role, or an illegal
	// attribute combination (e.g. read-write plus executable).
	ErrInvalidArgument = errors.New("xlat: invalid argument")

	// ErrOutOfRange indicates an address, or address plus size, that
	// wraps or exceeds the context's configured maximum VA/PA.
	ErrOutOfRange = errors.New("xlat: address out of range")

	// ErrOutOfMemory indicates a full region list or an exhausted
	// sub-table pool.
	ErrOutOfMemory = errors.New("xlat: out of memory")

	// ErrPermissionDenied indicates an illegal region overlap, an
	// attempt to remove a region that is not dynamic, or a dynamic
	// region overlapping any existing region.
	ErrPermissionDenied = errors.New("xlat: permission denied")

	// ErrNotFound indicates RemoveDynamicRegion was given a
	// (base, size) pair that does not match any region on the list.
	ErrNotFound = errors.New("xlat: region not found")
)
