// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pmezard/go-difflib/difflib"
	"modernc.org/mathutil"
)

type reportRow struct {
	name  string
	files int
	size  int64
}

// report summarizes the headers in the build roots.
type report struct {
	rows []reportRow
}

func (r *report) add(name, dir string) error {
	a, err := headers(dir)
	if err != nil {
		return err
	}

	row := reportRow{name: name, files: len(a)}
	for _, v := range a {
		fi, err := os.Stat(v)
		if err != nil {
			return err
		}

		row.size += fi.Size()
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *report) write(w io.Writer) {
	wn := 0
	for _, v := range r.rows {
		wn = mathutil.Max(wn, len(v.name))
	}
	for _, v := range r.rows {
		fmt.Fprintf(w, "%-*s %6s headers %10s\n", wn, v.name, humanize.Comma(int64(v.files)), humanize.Bytes(uint64(v.size)))
	}
}

// tracePass writes the change a pass made to a header as a unified diff.
func tracePass(w io.Writer, fn string, p pass, before, after string) error {
	if before == after {
		_, err := fmt.Fprintf(w, "%s: %v: no change\n", fn, p)
		return err
	}

	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: fmt.Sprintf("%s (before %v)", fn, p),
		ToFile:   fmt.Sprintf("%s (after %v)", fn, p),
		Context:  1,
	})
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, s)
	return err
}
