// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestNameGenerator(t *testing.T) {
	gen := newNameGenerator("")
	m := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		s := gen.next()
		if _, ok := m[s]; ok {
			t.Fatalf("%v: duplicate name %q", i, s)
		}

		if !strings.HasPrefix(s, defaultNamePrefix) {
			t.Fatalf("%v: %q: missing prefix", i, s)
		}

		m[s] = struct{}{}
	}

	gen.reset()
	if g, e := gen.next(), "__pQDBI_unused__0__"; g != e {
		t.Fatalf("after reset: got %q, expected %q", g, e)
	}

	if g, e := newNameGenerator("__x_").next(), "__x_0__"; g != e {
		t.Fatalf("got %q, expected %q", g, e)
	}
}

func TestNewPipeline(t *testing.T) {
	for i, v := range []struct {
		passes []pass
		ok     bool
	}{
		{[]pass{passBitfields}, true},
		{[]pass{passIncludes, passBitfields}, true},
		{[]pass{passAttributeShim, passIncludes, passDefines, passPreprocess, passBitfields, passProblematic, passArithmetic}, true},
		{nil, false},
		{[]pass{passArithmetic, passPreprocess}, false},
		{[]pass{passBitfields, passAttributeShim}, false},
		{[]pass{passIncludes, passIncludes}, false},
		{[]pass{passCount}, false},
		{[]pass{-1}, false},
	} {
		_, err := newPipeline(v.passes...)
		if g, e := err == nil, v.ok; g != e {
			t.Errorf("%v: %v: ok %v, expected %v: %v", i, v.passes, g, e, err)
		}
	}
}

func TestDeclaredPipelines(t *testing.T) {
	for _, v := range []struct {
		p    pipeline
		want []pass
	}{
		{cleanPipeline, []pass{passBitfields}},
		{stagedPipeline, []pass{passIncludes, passBitfields}},
		{entryPipeline, []pass{passAttributeShim, passIncludes, passDefines, passPreprocess, passBitfields, passProblematic, passArithmetic}},
	} {
		if g, e := []pass(v.p), v.want; !reflect.DeepEqual(g, e) {
			t.Errorf("got %v, expected %v", g, e)
		}
	}
}

func TestPassString(t *testing.T) {
	for p := pass(0); p < passCount; p++ {
		if s := p.String(); s == "" || strings.HasPrefix(s, "pass(") {
			t.Errorf("%d: missing name", int(p))
		}
	}
	if g, e := passCount.String(), "pass(7)"; g != e {
		t.Errorf("got %q, expected %q", g, e)
	}
}

type recordingRunner struct {
	passes []pass
	names  []*nameGenerator
}

func (r *recordingRunner) runPass(ctx context.Context, p pass, h *header, names *nameGenerator) error {
	r.passes = append(r.passes, p)
	r.names = append(r.names, names)
	h.text += p.String() + "\n"
	return nil
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	var r recordingRunner
	for _, nm := range []string{"a.h", "b.h"} {
		fn := filepath.Join(dir, nm)
		if err := os.WriteFile(fn, []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := stagedPipeline.run(context.Background(), &r, fn, ""); err != nil {
			t.Fatal(err)
		}

		diff(t, nm, readFile(t, fn), "x\nincludes\nbitfields\n")
	}
	if g, e := r.passes, []pass{passIncludes, passBitfields, passIncludes, passBitfields}; !reflect.DeepEqual(g, e) {
		t.Errorf("got %v, expected %v", g, e)
	}

	// One generator per header.
	if r.names[0] != r.names[1] || r.names[1] == r.names[2] {
		t.Errorf("name generator not scoped to a header")
	}
}

func TestPatchLines(t *testing.T) {
	h := &header{text: "struct s {\n    : 3;\n    : 5;\n};\n"}
	names := newNameGenerator("")
	matched := h.patchLines(&bitfieldRule{names: names})
	diff(t, "text", h.text, "struct s {\n    __pQDBI_unused__0__: 3;\n    __pQDBI_unused__1__: 5;\n};\n")
	if g, e := matched, []string{"    : 3;", "    : 5;"}; !reflect.DeepEqual(g, e) {
		t.Errorf("got %q, expected %q", g, e)
	}

	before := h.text
	if matched := h.patchLines(&bitfieldRule{names: names}); len(matched) != 0 || h.text != before {
		t.Errorf("second pass changed the text")
	}
}
