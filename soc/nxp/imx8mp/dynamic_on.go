// NXP i.MX8MP initialization
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build xlat_dynamic

package imx8mp

// xlatDynamic is true under the `xlat_dynamic` build tag, see dynamic.go.
var xlatDynamic = true
