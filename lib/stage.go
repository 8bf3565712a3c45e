// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// buildRoots are the output directories of a single build.
//
//	include/	clean copy, the compiler include path
//	patched/	staging copy, the preprocessor search root
//	preloader/	main.h, the declaration set
type buildRoots struct {
	out       string
	include   string
	patched   string
	preloader string
}

func newBuildRoots(out string) buildRoots {
	return buildRoots{
		out:       out,
		include:   filepath.Join(out, "include"),
		patched:   filepath.Join(out, "patched"),
		preloader: filepath.Join(out, "preloader"),
	}
}

func (r buildRoots) entry() string { return filepath.Join(r.preloader, "main.h") }

// create replaces the roots left by a previous build with empty ones. Other
// content of the output directory, the binding package included, is kept.
func (r buildRoots) create() error {
	for _, v := range []string{r.include, r.patched, r.preloader} {
		if err := os.RemoveAll(v); err != nil {
			return err
		}

		if err := os.MkdirAll(v, 0755); err != nil {
			return err
		}
	}
	return nil
}

// layout names the parts of the library's include tree that are staged.
type layout struct {
	namespace string // QBDI: <src>/QBDI/ and <src>/QBDI.h
	entry     string // QBDIPreload.h
}

// stage copies the library headers from src into the roots.
func stage(src string, r buildRoots, l layout) error {
	nsDir := filepath.Join(src, l.namespace)
	nsHeader := filepath.Join(src, l.namespace+".h")
	for _, root := range []string{r.include, r.patched} {
		if err := copyTree(nsDir, filepath.Join(root, l.namespace)); err != nil {
			return err
		}

		if err := copyFile(nsHeader, filepath.Join(root, l.namespace+".h")); err != nil {
			return err
		}
	}
	entry := filepath.Join(src, l.entry)
	if err := copyFile(entry, filepath.Join(r.include, l.entry)); err != nil {
		return err
	}

	return copyFile(entry, r.entry())
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		}

		// Symlinked headers are copied as files.
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}

		if !fi.Mode().IsRegular() {
			return errorf("%s: not a regular file", path)
		}

		return copyFile(path, target)
	})
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}

	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	defer func() {
		if e := out.Close(); e != nil && err == nil {
			err = e
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
