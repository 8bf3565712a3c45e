// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"bytes"
	"go/format"
	"os"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/mod/semver"
)

// Don't change the hook set or the callback variable names without
// incrementing the major glueSemver, user code assigns the variables.
const glueSemver = "v1"

// generatedRE matches the first line of the files qbdgen writes into the
// binding package.
var generatedRE = regexp.MustCompile(`^// Code generated by qbdgen ([^,\s]+), glue (\S+)\. DO NOT EDIT\.$`)

// cdefConstRE matches the integer constants of the declaration set.
var cdefConstRE = regexp.MustCompile(`(?m)^(?:static\s+)?const\s+int\s+([A-Z][A-Za-z0-9_]*)\s*=`)

// hook is a preload lifecycle entry point. The host calls <base>_on_<name>.
type hook struct {
	Name     string
	Callback string
	Params   string
	Args     string
}

var hooks = []hook{
	{"start", "OnStart", "main unsafe.Pointer", "main"},
	{"premain", "OnPremain", "gprCtx, fpuCtx unsafe.Pointer", "gprCtx, fpuCtx"},
	{"main", "OnMain", "argc C.int, argv **C.char", "argc, argv"},
	{"run", "OnRun", "vm C.VMInstanceRef, start, stop C.rword", "vm, start, stop"},
	{"exit", "OnExit", "status C.int", "status"},
}

var glueTemplate = template.Must(template.New("glue").Parse(`// Code generated by qbdgen {{.Version}}, glue {{.Semver}}. DO NOT EDIT.

// Package main is the {{.Module}} preload plugin. Assign the On* callbacks
// from an init function in another file of this package; a hook without a
// callback returns {{.NotHandled}}.
package main

/*
#cgo CFLAGS:{{range .IncludeDirs}} -I{{.}}{{end}}
#cgo LDFLAGS:{{range .Libraries}} -l{{.}}{{end}}
#include <{{.Entry}}>
*/
import "C"

import (
	"unsafe"
)

var _ unsafe.Pointer

var (
{{- range .Hooks}}
	{{.Callback}} func({{.Params}}) C.int
{{- end}}
)
{{range .Hooks}}
//export {{$.Base}}_on_{{.Name}}
func {{$.Base}}_on_{{.Name}}({{.Params}}) C.int {
	if {{.Callback}} != nil {
		return {{.Callback}}({{.Args}})
	}

	return C.{{$.NotHandled}}
}
{{end}}
func main() {}
`))

type glueData struct {
	Base        string // qbdipreload
	Entry       string // QBDIPreload.h
	Hooks       []hook
	IncludeDirs []string
	Libraries   []string
	Module      string
	NotHandled  string // QBDIPRELOAD_NOT_HANDLED
	Semver      string
	Version     string
}

// glue returns the formatted source of the plugin's main package.
func glue(module, namespace, entry string, link linkSpec) ([]byte, error) {
	base := hookBase(namespace)
	var b bytes.Buffer
	if err := glueTemplate.Execute(&b, &glueData{
		Base:        base,
		Entry:       entry,
		Hooks:       hooks,
		IncludeDirs: link.includeDirs,
		Libraries:   link.libraries,
		Module:      module,
		NotHandled:  strings.ToUpper(base) + "_NOT_HANDLED",
		Semver:      glueSemver,
		Version:     Version,
	}); err != nil {
		return nil, err
	}

	r, err := format.Source(b.Bytes())
	if err != nil {
		return nil, errorf("glue: %v", err)
	}

	return r, nil
}

var cdefTemplate = template.Must(template.New("cdef").Parse(`// Code generated by qbdgen {{.Version}}, glue {{.Semver}}. DO NOT EDIT.

package main

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>
#include "cdef.h"
*/
import "C"

// Integer constants of the declaration set in cdef.h.
var (
{{- range .Consts}}
	{{.}} = int(C.{{.}})
{{- end}}
)
`))

type cdefData struct {
	Consts  []string
	Semver  string
	Version string
}

// cdef returns the formatted source of the file compiling the declaration
// set into the plugin's main package.
func cdef(decls string) ([]byte, error) {
	taken := map[string]bool{}
	for _, v := range hooks {
		taken[v.Callback] = true
	}
	var consts []string
	for _, m := range cdefConstRE.FindAllStringSubmatch(decls, -1) {
		if nm := m[1]; !taken[nm] {
			taken[nm] = true
			consts = append(consts, nm)
		}
	}

	var b bytes.Buffer
	if err := cdefTemplate.Execute(&b, &cdefData{
		Consts:  consts,
		Semver:  glueSemver,
		Version: Version,
	}); err != nil {
		return nil, err
	}

	r, err := format.Source(b.Bytes())
	if err != nil {
		return nil, errorf("cdef: %v", err)
	}

	return r, nil
}

// checkGenerated returns an error if fn exists and was not written by a
// qbdgen with the same major glue version. A missing file is not an error.
func checkGenerated(fn string) error {
	b, err := os.ReadFile(fn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	line := strings.SplitN(string(b), "\n", 2)[0]
	m := generatedRE.FindStringSubmatch(line)
	if m == nil {
		return errorf("%s: not generated by qbdgen, refusing to overwrite", fn)
	}

	version := m[2]
	if !semver.IsValid(version) {
		return errorf("%s: invalid glue version %q", fn, version)
	}

	if semver.Major(version) != semver.Major(glueSemver) {
		return errorf("%s: glue %s is incompatible with glue %s, remove the file to regenerate it", fn, version, glueSemver)
	}

	return nil
}
