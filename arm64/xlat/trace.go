// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !xlat_debug

package xlat

// trace is a no-op unless built with the xlat_debug tag, matching the
// board mem.go files' pattern of a build tag gating a value (here, the
// trace function's body) rather than duplicating call sites.
func trace(format string, args ...interface{}) {}
