// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dustin/go-humanize"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/tools/txtar"
)

var (
	oTrace = flag.Bool("trc", false, "Print tested paths.")
)

func TestMain(m *testing.M) {
	extendedErrors = true
	flag.Parse()
	os.Exit(m.Run())
}

// extract writes the files of a txtar archive under a new temporary
// directory and returns the directory.
func extract(t *testing.T, fn string) string {
	t.Helper()
	a, err := txtar.ParseFile(filepath.FromSlash(fn))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	var size int
	for _, v := range a.Files {
		pth := filepath.Join(dir, filepath.FromSlash(v.Name))
		if err := os.MkdirAll(filepath.Dir(pth), 0755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(pth, v.Data, 0644); err != nil {
			t.Fatal(err)
		}

		size += len(v.Data)
		if *oTrace {
			fmt.Fprintln(os.Stderr, pth)
		}
	}
	t.Logf("%s: %v files, %s", fn, len(a.Files), humanize.Bytes(uint64(size)))
	return dir
}

// diff reports got != want as a unified diff.
func diff(t *testing.T, name, got, want string) {
	t.Helper()
	if got == want {
		return
	}

	s, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	t.Errorf("%s:\n%s", name, s)
}

func readFile(t *testing.T, fn string) string {
	t.Helper()
	b, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}

	return string(b)
}

type runnerFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, int, error)

func (f runnerFunc) run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, int, error) {
	return f(ctx, dir, name, args...)
}

// fakeCPP stands in for "cc -E -P -nostdinc <file> -I<root>". It inlines
// includes found under root and drops all other directives. Comments are
// kept, unlike a real preprocessor.
func fakeCPP(t *testing.T) runnerFunc {
	return func(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, int, error) {
		n := len(args)
		if n < 5 || strings.Join(args[n-5:n-2], " ") != "-E -P -nostdinc" || !strings.HasPrefix(args[n-1], "-I") {
			t.Errorf("unexpected preprocessor arguments: %q", args)
			return nil, []byte("bad arguments"), 2, nil
		}

		root := strings.TrimPrefix(args[n-1], "-I")
		var b bytes.Buffer
		if err := fakeExpand(&b, args[n-2], root); err != nil {
			return nil, []byte(err.Error()), 1, nil
		}

		return b.Bytes(), nil, 0, nil
	}
}

func fakeExpand(b *bytes.Buffer, fn, root string) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return err
	}

	for _, v := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if m := includeRE.FindStringSubmatch(v); m != nil {
			if err := fakeExpand(b, filepath.Join(root, m[1]+m[2]), root); err != nil {
				return err
			}

			continue
		}

		if strings.HasPrefix(v, "#") {
			continue
		}

		b.WriteString(v)
		b.WriteByte('\n')
	}
	return nil
}

type fakeCompiler struct {
	bindings []*binding
}

func (c *fakeCompiler) compile(ctx context.Context, b *binding) (string, error) {
	c.bindings = append(c.bindings, b)
	return filepath.Join(b.dir, "lib"+b.module+".so"), nil
}

// newTestTask returns a Task building the headers in src into out with a
// fake preprocessor and binding compiler.
func newTestTask(t *testing.T, src, out string, args ...string) (*Task, *fakeCompiler, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	task := NewTask("linux", "amd64", append([]string{"qbdgen", "-I", src, "-o", out}, args...), &stdout, &stderr)
	task.runner = fakeCPP(t)
	c := &fakeCompiler{}
	task.compiler = c
	return task, c, &stdout, &stderr
}
