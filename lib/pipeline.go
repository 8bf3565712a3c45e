// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"context"
	"fmt"
)

// pass is a transformation of a header. The numeric order of the constants
// is the only order in which passes may run.
type pass int

const (
	passAttributeShim pass = iota // #define __attribute__(x)
	passIncludes                  // comment out foreign includes
	passDefines                   // #define N 42 -> const int N = 42;
	passPreprocess                // cc -E -P -nostdinc
	passBitfields                 // name anonymous bit-fields
	passProblematic               // drop unsupported declarations
	passArithmetic                // fold [a*b] and = a<<b
	passCount
)

const attributeShim = "#define __attribute__(x)\n"

var passNames = [...]string{
	passAttributeShim: "attribute-shim",
	passIncludes:      "includes",
	passDefines:       "defines",
	passPreprocess:    "preprocess",
	passBitfields:     "bitfields",
	passProblematic:   "problematic",
	passArithmetic:    "arithmetic",
}

func (p pass) String() string {
	if p >= 0 && p < passCount {
		return passNames[p]
	}

	return fmt.Sprintf("pass(%d)", int(p))
}

// pipeline is a list of passes in the order they run.
type pipeline []pass

var (
	cleanPipeline  = mustPipeline(passBitfields)
	stagedPipeline = mustPipeline(passIncludes, passBitfields)
	entryPipeline  = mustPipeline(
		passAttributeShim,
		passIncludes,
		passDefines,
		passPreprocess,
		passBitfields,
		passProblematic,
		passArithmetic,
	)
)

// newPipeline returns a pipeline of passes, which must be listed in
// strictly increasing pass order.
func newPipeline(passes ...pass) (pipeline, error) {
	if len(passes) == 0 {
		return nil, errorf("empty pipeline")
	}

	for i, v := range passes {
		if v < 0 || v >= passCount {
			return nil, errorf("invalid pass %v", v)
		}

		if i != 0 && v <= passes[i-1] {
			return nil, errorf("pass %v cannot run after %v", v, passes[i-1])
		}
	}
	return pipeline(passes), nil
}

func mustPipeline(passes ...pass) pipeline {
	p, err := newPipeline(passes...)
	if err != nil {
		panic(todo("internal error: %v", err))
	}

	return p
}

// passRunner executes a single pass over a header.
type passRunner interface {
	runPass(ctx context.Context, p pass, h *header, names *nameGenerator) error
}

// run loads the header at path, applies the passes in order and writes the
// result back. Each call gets its own name generator.
func (p pipeline) run(ctx context.Context, r passRunner, path string, prefix string) error {
	h, err := loadHeader(path)
	if err != nil {
		return err
	}

	names := newNameGenerator(prefix)
	for _, v := range p {
		if err := r.runPass(ctx, v, h, names); err != nil {
			return err
		}
	}
	return h.write()
}
