// ARM64 translation table engine
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build xlat_debug

package xlat

import "log"

// trace logs builder/unmapper descent decisions when built with the
// xlat_debug tag.
func trace(format string, args ...interface{}) {
	log.Printf("xlat: "+format, args...)
}
