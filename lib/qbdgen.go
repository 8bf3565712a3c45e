// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qbdgen implements the qbdgen command.
//
// qbdgen copies the public headers of a native library, rewrites them into a
// declaration set a restricted C parser accepts and compiles a preload plugin
// exposing the library's lifecycle hooks.
//
// The declaration set is produced by line level rewriting, not by parsing C.
// Variadic functions and the hook declarations themselves are dropped.
package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"modernc.org/opt"
)

const Version = "0.1.0"

var defaultVariadic = []string{
	"qbdi_call",
	"qbdi_simulateCall",
}

// Task represents a build job.
type Task struct {
	args       []string
	compiler   bindingCompiler // nil: go build
	cpp        string          // -cpp
	cppTimeout time.Duration   // -cpp-timeout
	drop       []string        // -drop
	entry      string          // -entry
	envFile    string          // -env-file
	envs       map[string]string
	goCmd      string
	goarch     string
	goos       string
	includeDir string   // -I
	l          []string // -l
	module     string   // -module
	namePrefix string   // -name-prefix
	namespace  string   // -namespace
	o          string   // -o
	runner     commandRunner
	stderr     io.Writer
	stdout     io.Writer

	E             bool // -E
	cppTimeoutSet bool // -cpp-timeout present
	tracePasses   bool // -trace-passes
	verbose       bool // -v
	verify        bool // -verify
	version       bool // -version
	warnDropped   bool // -warn-dropped
}

// NewTask returns a newly created Task. args[0] is the command name.
func NewTask(goos, goarch string, args []string, stdout, stderr io.Writer) *Task {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Task{
		args:   args,
		goarch: goarch,
		goos:   goos,
		runner: execRunner{},
		stderr: stderr,
		stdout: stdout,
	}
}

// env returns the value of the named environment variable. Variables from
// -env-file are consulted when the process environment does not set it.
func (t *Task) env(name, deflt string) (r string) {
	r = deflt
	if s := t.envs[name]; s != "" {
		r = s
	}
	if s := os.Getenv(name); s != "" {
		r = s
	}
	return r
}

// Main executes task.
func (t *Task) Main() (err error) {
	if len(t.args) == 0 {
		return fmt.Errorf("invalid arguments %v", t.args)
	}

	set := opt.NewSet()
	set.Arg("I", true, func(opt, val string) error { t.includeDir = val; return nil })
	set.Arg("cpp", false, func(opt, val string) error { t.cpp = val; return nil })
	set.Arg("cpp-timeout", false, func(opt, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}

		t.cppTimeout = d
		t.cppTimeoutSet = true
		return nil
	})
	set.Arg("drop", false, func(opt, val string) error { t.drop = append(t.drop, splitList(val)...); return nil })
	set.Arg("entry", false, func(opt, val string) error { t.entry = val; return nil })
	set.Arg("env-file", false, func(opt, val string) error { t.envFile = val; return nil })
	set.Arg("l", true, func(opt, val string) error { t.l = append(t.l, splitList(val)...); return nil })
	set.Arg("module", false, func(opt, val string) error { t.module = val; return nil })
	set.Arg("name-prefix", false, func(opt, val string) error { t.namePrefix = val; return nil })
	set.Arg("namespace", false, func(opt, val string) error { t.namespace = val; return nil })
	set.Arg("o", false, func(opt, val string) error {
		if t.o != "" {
			return fmt.Errorf("multiple argument: -o %s", val)
		}

		t.o = val
		return nil
	})
	set.Opt("E", func(opt string) error { t.E = true; return nil })
	set.Opt("trace-passes", func(opt string) error { t.tracePasses = true; return nil })
	set.Opt("v", func(opt string) error { t.verbose = true; return nil })
	set.Opt("verify", func(opt string) error { t.verify = true; return nil })
	set.Opt("version", func(opt string) error { t.version = true; return nil })
	set.Opt("warn-dropped", func(opt string) error { t.warnDropped = true; return nil })
	if err := set.Parse(t.args[1:], func(arg string) error {
		if strings.HasPrefix(arg, "-") {
			return fmt.Errorf("unexpected option: %s", arg)
		}

		return fmt.Errorf("unexpected argument %s", arg)
	}); err != nil {
		return fmt.Errorf("parsing %v: %v", t.args[1:], err)
	}

	if t.version {
		fmt.Fprintf(t.stdout, "%s\n", Version)
		return nil
	}

	if err := t.configure(); err != nil {
		return err
	}

	b, err := newBuilder(t)
	if err != nil {
		return err
	}

	r, err := b.main(context.Background())
	if err != nil {
		return err
	}

	if t.E {
		_, err = io.WriteString(t.stdout, r)
		return err
	}

	if t.verbose {
		fmt.Fprintln(t.stderr, r)
	}
	return nil
}

// configure fills in everything the command line left unset.
func (t *Task) configure() (err error) {
	if t.envFile == "" {
		t.envFile = os.Getenv("QBDGEN_ENV_FILE")
	}
	if t.envFile != "" {
		if t.envs, err = godotenv.Read(t.envFile); err != nil {
			return fmt.Errorf("-env-file: %v", err)
		}
	}

	if t.includeDir == "" {
		t.includeDir = t.env("QBDGEN_INCLUDE", "/usr/include/")
	}
	if t.o == "" {
		t.o = t.env("QBDGEN_OUT", filepath.Join(os.TempDir(), "qbdpy_tmp"))
	}
	if t.namespace == "" {
		t.namespace = t.env("QBDGEN_NAMESPACE", "QBDI")
	}
	if t.entry == "" {
		t.entry = t.namespace + "Preload.h"
	}
	if len(t.l) == 0 {
		t.l = []string{t.namespace + "Preload", t.namespace}
	}
	if t.module == "" {
		t.module = "qbdpy"
	}
	if t.cpp == "" {
		t.cpp = t.env("QBDGEN_CPP", t.env("CC", "gcc"))
	}
	if !t.cppTimeoutSet {
		t.cppTimeout = 5 * time.Minute
	}
	t.goCmd = t.env("GO", "go")
	t.drop = append(defaultVariadic[:len(defaultVariadic):len(defaultVariadic)], t.drop...)
	return nil
}

func splitList(s string) (r []string) {
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			r = append(r, v)
		}
	}
	return r
}
