// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"fmt"
	"math"
	"math/bits"
	"regexp"
	"strconv"
	"strings"
)

const (
	compileCheckMarker = "__compile_check"
	includePatchPrefix = "//PATCH//"
)

var (
	// Anonymous bit-field: optional indent and comment, then ": <width>" and
	// ';' or ','. A named member never matches.
	bitfieldRE = regexp.MustCompile(`^(\s*)(?:/\*.*?\*/\s*)?:\s*(\d+)\s*([;,])(.*)$`)
	defineRE   = regexp.MustCompile(`^#define\s+([A-Za-z_][A-Za-z0-9_]*)\s+(\d+)\s*$`)
	includeRE  = regexp.MustCompile(`^#include\s+(?:"(.*)"|<(.*)?>)\s*$`)
	mulRE      = regexp.MustCompile(`\[(\d+)\*(\d+)\]`)
	shlRE      = regexp.MustCompile(`=\s*(\d+)<<(\d+)`)
)

// lineRule rewrites single lines of header text. apply reports whether the
// line matched; a line that does not match is returned unchanged.
type lineRule interface {
	match(line string) bool
	apply(line string) (string, bool)
}

var (
	_ lineRule = (*bitfieldRule)(nil)
	_ lineRule = (*defineRule)(nil)
	_ lineRule = (*includeRule)(nil)
	_ lineRule = (*problematicRule)(nil)
)

// bitfieldRule names anonymous bit-field members.
type bitfieldRule struct {
	names *nameGenerator
}

func (r *bitfieldRule) match(line string) bool { return bitfieldRE.MatchString(line) }

func (r *bitfieldRule) apply(line string) (string, bool) {
	m := bitfieldRE.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}

	return fmt.Sprintf("%s%s: %s%s%s", m[1], r.names.next(), m[2], m[3], m[4]), true
}

// includeRule comments out angle includes outside of the library namespace.
// The preprocessor runs with -nostdinc so they could not be resolved anyway.
type includeRule struct {
	namespace string
}

func (r *includeRule) match(line string) bool {
	m := includeRE.FindStringSubmatch(line)
	return m != nil && m[2] != "" && !strings.HasPrefix(m[2], r.namespace)
}

func (r *includeRule) apply(line string) (string, bool) {
	if !r.match(line) {
		return line, false
	}

	return includePatchPrefix + line, true
}

// defineRule turns integer object-like macros into constants.
type defineRule struct{}

func (defineRule) match(line string) bool { return defineRE.MatchString(line) }

func (defineRule) apply(line string) (string, bool) {
	m := defineRE.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}

	return fmt.Sprintf("const int %s = %s;", m[1], m[2]), true
}

// problematicRule drops declarations the binding parser cannot represent:
// compile time assertions, the preload hooks provided by the glue and
// variadic functions.
type problematicRule struct {
	hookPrefix string // "extern int qbdipreload_on_"
	variadic   []string
}

func newProblematicRule(namespace string, variadic []string) *problematicRule {
	return &problematicRule{
		hookPrefix: fmt.Sprintf("extern int %s_on_", hookBase(namespace)),
		variadic:   variadic,
	}
}

func (r *problematicRule) match(line string) bool {
	if strings.Contains(line, compileCheckMarker) || strings.HasPrefix(line, r.hookPrefix) {
		return true
	}

	for _, v := range r.variadic {
		if strings.Contains(line, v) {
			return true
		}
	}
	return false
}

func (r *problematicRule) apply(line string) (string, bool) {
	if r.match(line) {
		return "", true
	}

	return line, false
}

// foldArithmetic replaces "[a*b]" and "= a<<b" with their values. It is a
// lexical substitution; anything else, including operands that would
// overflow, is left alone.
func foldArithmetic(s string) (r string, n int) {
	s = mulRE.ReplaceAllStringFunc(s, func(m string) string {
		sm := mulRE.FindStringSubmatch(m)
		a, b, ok := operands(sm[1], sm[2])
		if !ok {
			return m
		}

		hi, lo := bits.Mul64(uint64(a), uint64(b))
		if hi != 0 || lo > math.MaxInt64 {
			return m
		}

		n++
		return fmt.Sprintf("[%d]", lo)
	})
	s = shlRE.ReplaceAllStringFunc(s, func(m string) string {
		sm := shlRE.FindStringSubmatch(m)
		a, b, ok := operands(sm[1], sm[2])
		if !ok || b >= 63 || a > math.MaxInt64>>uint(b) {
			return m
		}

		n++
		return fmt.Sprintf("= %d", a<<uint(b))
	})
	return s, n
}

func operands(x, y string) (a, b int64, ok bool) {
	var err error
	if a, err = strconv.ParseInt(x, 10, 64); err != nil {
		return 0, 0, false
	}

	if b, err = strconv.ParseInt(y, 10, 64); err != nil {
		return 0, 0, false
	}

	return a, b, true
}

// hookBase returns the symbol prefix of the preload hooks, "qbdipreload" for
// the QBDI namespace.
func hookBase(namespace string) string { return strings.ToLower(namespace) + "preload" }
