// NXP i.MX8MP initialization
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !xlat_dynamic

package imx8mp

// xlatDynamic is passed to ARM64.ConfigureMMU as xlat.Config.Dynamic, which
// turns on sub-table refcounting so that RemoveDynamicRegion returns emptied
// tables to the pool. It is false by default; building with the
// `xlat_dynamic` tag sets it to true instead (see dynamic_on.go).
var xlatDynamic = false
