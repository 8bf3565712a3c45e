// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qbdgen generates a preload binding for QBDI from its public
// headers.
package main // import "github.com/qbdpy/qbdgen"

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	qbdgen "github.com/qbdpy/qbdgen/lib"
)

func main() {
	goarch := env("TARGET_GOARCH", env("GOARCH", runtime.GOARCH))
	goos := env("TARGET_GOOS", env("GOOS", runtime.GOOS))
	if err := qbdgen.NewTask(goos, goarch, os.Args, os.Stdout, os.Stderr).Main(); err != nil {
		var e *qbdgen.ExitError
		if errors.As(err, &e) {
			os.Exit(e.Status)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func env(name, deflt string) (r string) {
	r = deflt
	if s := os.Getenv(name); s != "" {
		r = s
	}
	return r
}
