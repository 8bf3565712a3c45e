// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"modernc.org/cc/v4"
)

// The declaration set has its foreign includes commented out. These are
// the standard types it may still use.
const prelude = `
typedef __INT8_TYPE__ int8_t;
typedef __INT16_TYPE__ int16_t;
typedef __INT32_TYPE__ int32_t;
typedef __INT64_TYPE__ int64_t;
typedef __UINT8_TYPE__ uint8_t;
typedef __UINT16_TYPE__ uint16_t;
typedef __UINT32_TYPE__ uint32_t;
typedef __UINT64_TYPE__ uint64_t;
typedef __INTPTR_TYPE__ intptr_t;
typedef __UINTPTR_TYPE__ uintptr_t;
typedef __SIZE_TYPE__ size_t;
typedef __PTRDIFF_TYPE__ ptrdiff_t;
#define bool _Bool
#define true 1
#define false 0
#define NULL ((void*)0)
`

// verify parses the declaration set in decls with a C front end. includeRoot
// is searched before the host include paths.
func verify(goos, goarch, includeRoot, name, decls string) error {
	cfg, err := cc.NewConfig(goos, goarch)
	if err != nil {
		return err
	}

	cfg.IncludePaths = append([]string{"", includeRoot}, cfg.HostIncludePaths...)
	cfg.IncludePaths = append(cfg.IncludePaths, cfg.HostSysIncludePaths...)
	cfg.SysIncludePaths = append([]string{includeRoot}, cfg.HostSysIncludePaths...)
	if _, err := cc.Translate(cfg, []cc.Source{
		{Name: "<predefined>", Value: cfg.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
		{Name: "<prelude>", Value: prelude},
		{Name: name, Value: decls},
	}); err != nil {
		return errorf("%s: %v", name, err)
	}

	return nil
}
