// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ passRunner = (*builder)(nil)

// builder runs one build. It is discarded afterwards.
type builder struct {
	compiler    bindingCompiler
	cpp         *preprocessor
	includes    *includeRule
	layout      layout
	problematic *problematicRule
	roots       buildRoots
	task        *Task
}

func newBuilder(t *Task) (*builder, error) {
	cpp, err := splitCommand(t.cpp)
	if err != nil {
		return nil, errorf("-cpp: %v", err)
	}

	b := &builder{
		cpp: &preprocessor{
			argv:    cpp,
			runner:  t.runner,
			stderr:  t.stderr,
			timeout: t.cppTimeout,
		},
		includes:    &includeRule{namespace: t.namespace},
		layout:      layout{namespace: t.namespace, entry: t.entry},
		problematic: newProblematicRule(t.namespace, t.drop),
		roots:       newBuildRoots(t.o),
		task:        t,
	}
	switch {
	case t.compiler != nil:
		b.compiler = t.compiler
	default:
		goCmd, err := splitCommand(t.goCmd)
		if err != nil {
			return nil, errorf("GO: %v", err)
		}

		b.compiler = &goCompiler{argv: goCmd, runner: t.runner, stderr: t.stderr}
	}
	return b, nil
}

func (b *builder) progress(s string, args ...interface{}) {
	log(s, args...)
	if b.task.verbose {
		fmt.Fprintf(b.task.stderr, s+"\n", args...)
	}
}

// main stages the headers, sanitizes them and compiles the binding. The
// returned string is the artifact path, or the declaration set with -E.
func (b *builder) main(ctx context.Context) (string, error) {
	if err := b.roots.create(); err != nil {
		return "", err
	}

	if err := stage(b.task.includeDir, b.roots, b.layout); err != nil {
		return "", err
	}

	b.progress("Fixing headers...")
	if err := b.runTree(ctx, cleanPipeline, b.roots.include); err != nil {
		return "", err
	}

	if err := b.runTree(ctx, stagedPipeline, b.roots.patched); err != nil {
		return "", err
	}

	b.progress("Patching main...")
	entry := b.roots.entry()
	if err := entryPipeline.run(ctx, b, entry, b.task.namePrefix); err != nil {
		return "", err
	}

	decls, err := os.ReadFile(entry)
	if err != nil {
		return "", err
	}

	if b.task.verbose {
		var r report
		for _, v := range []string{b.roots.include, b.roots.patched, b.roots.preloader} {
			if err := r.add(filepath.Base(v), v); err != nil {
				return "", err
			}
		}
		r.write(b.task.stderr)
	}

	if b.task.verify {
		b.progress("Verifying...")
		if err := verify(b.task.goos, b.task.goarch, b.roots.include, entry, string(decls)); err != nil {
			return "", err
		}
	}

	if b.task.E {
		return string(decls), nil
	}

	b.progress("Building...")
	link := linkSpec{includeDirs: []string{b.roots.include}, libraries: b.task.l}
	src, err := glue(b.task.module, b.task.namespace, b.task.entry, link)
	if err != nil {
		return "", err
	}

	return b.compiler.compile(ctx, &binding{
		decls:  string(decls),
		dir:    filepath.Join(b.roots.out, b.task.module),
		glue:   src,
		link:   link,
		module: b.task.module,
	})
}

func (b *builder) runTree(ctx context.Context, p pipeline, dir string) error {
	a, err := headers(dir)
	if err != nil {
		return err
	}

	for _, v := range a {
		if err := p.run(ctx, b, v, b.task.namePrefix); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) runPass(ctx context.Context, p pass, h *header, names *nameGenerator) error {
	before := h.text
	var n int
	switch p {
	case passAttributeShim:
		h.prepend(attributeShim)
		n = 1
	case passIncludes:
		n = len(h.patchLines(b.includes))
	case passDefines:
		n = len(h.patchLines(defineRule{}))
	case passPreprocess:
		if err := b.cpp.preprocess(ctx, h, b.roots.patched); err != nil {
			return err
		}
	case passBitfields:
		names.reset()
		n = len(h.patchLines(&bitfieldRule{names: names}))
	case passProblematic:
		dropped := h.patchLines(b.problematic)
		if b.task.warnDropped {
			for _, v := range dropped {
				fmt.Fprintf(b.task.stderr, "warning: %s: dropped: %s\n", h.path, strings.TrimSpace(v))
			}
		}
		n = len(dropped)
	case passArithmetic:
		h.text, n = foldArithmetic(h.text)
	default:
		return errorf("internal error: unexpected pass %v", p)
	}

	log("%s: %v: %d", h.path, p, n)
	if b.task.tracePasses && h.path == b.roots.entry() {
		return tracePass(b.task.stderr, h.path, p, before, h.text)
	}

	return nil
}
