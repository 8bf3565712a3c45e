// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kballard/go-shellquote"
)

// linkSpec is fixed per target library, it is not derived from the headers.
type linkSpec struct {
	includeDirs []string
	libraries   []string
}

// binding is everything the binding compiler consumes.
type binding struct {
	decls  string // Sanitized declaration set.
	dir    string // Package directory to create.
	glue   []byte
	link   linkSpec
	module string
}

// bindingCompiler turns a binding into a loadable artifact and returns its
// path.
type bindingCompiler interface {
	compile(ctx context.Context, b *binding) (artifact string, err error)
}

type packageFile struct {
	name string
	data []byte
}

// goCompiler builds the glue as a cgo shared library.
type goCompiler struct {
	argv   []string // go command
	runner commandRunner
	stderr io.Writer
}

func (c *goCompiler) compile(ctx context.Context, b *binding) (artifact string, err error) {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return "", err
	}

	for _, v := range []string{"cdef.go", "glue.go"} {
		if err := checkGenerated(filepath.Join(b.dir, v)); err != nil {
			return "", err
		}
	}

	cdefSrc, err := cdef(b.decls)
	if err != nil {
		return "", err
	}

	files := []packageFile{
		{"cdef.go", cdefSrc},
		{"cdef.h", []byte(b.decls)},
		{"glue.go", b.glue},
	}
	// go.mod belongs to the user once it exists.
	mod := filepath.Join(b.dir, "go.mod")
	if _, err := os.Stat(mod); os.IsNotExist(err) {
		files = append(files, packageFile{"go.mod", []byte(fmt.Sprintf("module %s\n\ngo 1.17\n", b.module))})
	}
	for _, v := range files {
		if err := os.WriteFile(filepath.Join(b.dir, v.name), v.data, 0644); err != nil {
			return "", err
		}
	}

	artifact = filepath.Join(b.dir, fmt.Sprintf("lib%s.so", b.module))
	args := append([]string(nil), c.argv[1:]...)
	args = append(args, "build", "-buildmode=c-shared", "-o", artifact, ".")
	if logging {
		log("%s", shellquote.Join(append([]string{c.argv[0]}, args...)...))
	}
	_, diag, status, err := c.runner.run(ctx, b.dir, c.argv[0], args...)
	if err != nil {
		return "", errorf("%s: %v", c.argv[0], err)
	}

	if len(diag) != 0 {
		c.stderr.Write(diag)
	}
	if status != 0 {
		return "", &ExitError{Cmd: shellquote.Join(c.argv[0], "build"), Status: status}
	}

	return artifact, nil
}
