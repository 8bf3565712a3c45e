// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// header is a header file owned by the build while it is being patched.
type header struct {
	path string
	text string
}

func loadHeader(path string) (*header, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &header{path: path, text: string(b)}, nil
}

func (h *header) write() error { return os.WriteFile(h.path, []byte(h.text), 0644) }

func (h *header) prepend(s string) { h.text = s + h.text }

// patchLines applies r to every line and returns the original text of the
// lines that matched.
func (h *header) patchLines(r lineRule) (matched []string) {
	a := strings.Split(h.text, "\n")
	for i, v := range a {
		s, ok := r.apply(v)
		if !ok {
			continue
		}

		matched = append(matched, v)
		a[i] = s
	}
	h.text = strings.Join(a, "\n")
	return matched
}

// headers returns the .h files under dir in lexical order.
func headers(dir string) (r []string, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && filepath.Ext(path) == ".h" {
			r = append(r, path)
		}
		return nil
	})
	return r, err
}
