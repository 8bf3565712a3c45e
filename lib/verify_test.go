// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"modernc.org/cc/v4"
)

func hostConfig(t *testing.T) {
	if _, err := cc.NewConfig(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skipf("no host C compiler: %v", err)
	}
}

func TestVerify(t *testing.T) {
	hostConfig(t)
	dir := t.TempDir()
	if err := verify(runtime.GOOS, runtime.GOARCH, dir, "main.h", wantMain); err != nil {
		t.Fatal(err)
	}

	if err := verify(runtime.GOOS, runtime.GOARCH, dir, "bad.h", "typedef char buf[2 * ;\n"); err == nil {
		t.Fatal("unexpected success")
	}
}

func TestBuildVerify(t *testing.T) {
	hostConfig(t)
	src := extract(t, "testdata/qbdi.txtar")
	task, c, _, stderr := newTestTask(t, src, filepath.Join(t.TempDir(), "out"), "-verify", "-v")
	task.goos = runtime.GOOS
	task.goarch = runtime.GOARCH
	if err := task.Main(); err != nil {
		t.Fatalf("%v\n%s", err, stderr.String())
	}

	if !strings.Contains(stderr.String(), "Verifying...") {
		t.Errorf("verification did not run:\n%s", stderr.String())
	}
	if len(c.bindings) != 1 {
		t.Fatalf("binding compiler called %d times", len(c.bindings))
	}
}
