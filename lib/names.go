// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"fmt"
)

// The prefix is reserved: no hand written QBDI member starts with it.
const defaultNamePrefix = "__pQDBI_unused__"

// nameGenerator produces placeholder member names. It is scoped to a single
// header and must be reset before the next one.
type nameGenerator struct {
	prefix string
	n      int
}

func newNameGenerator(prefix string) *nameGenerator {
	if prefix == "" {
		prefix = defaultNamePrefix
	}
	return &nameGenerator{prefix: prefix}
}

func (g *nameGenerator) next() string {
	r := fmt.Sprintf("%s%d__", g.prefix, g.n)
	g.n++
	return r
}

func (g *nameGenerator) reset() { g.n = 0 }
