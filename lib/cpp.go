// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
)

// commandRunner runs an external program to completion. A non-zero exit
// status is reported in status, err is reserved for failing to run it.
type commandRunner interface {
	run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, status int, err error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, status int, err error) {
	var o, e bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &o
	cmd.Stderr = &e
	err = cmd.Run()
	var x *exec.ExitError
	switch {
	case err == nil:
		return o.Bytes(), e.Bytes(), 0, nil
	case ctx.Err() != nil:
		return o.Bytes(), e.Bytes(), -1, ctx.Err()
	case errors.As(err, &x):
		return o.Bytes(), e.Bytes(), x.ExitCode(), nil
	default:
		return nil, nil, -1, err
	}
}

// splitCommand splits a command line like "clang --target=x86_64-linux-gnu"
// into its words.
func splitCommand(s string) ([]string, error) {
	a, err := shellquote.Split(s)
	if err != nil {
		return nil, errorf("%q: %v", s, err)
	}

	if len(a) == 0 {
		return nil, errorf("empty command")
	}

	return a, nil
}

// preprocessor expands macros and conditionals of a header without access to
// the system headers.
type preprocessor struct {
	argv    []string // Command and its leading arguments.
	runner  commandRunner
	stderr  io.Writer
	timeout time.Duration // Zero: no limit.
}

func (p *preprocessor) args(path, searchRoot string) []string {
	a := append([]string(nil), p.argv[1:]...)
	return append(a, "-E", "-P", "-nostdinc", path, "-I"+searchRoot)
}

// preprocess flushes h, runs the preprocessor on it and replaces h's text by
// the output. A non-zero exit status is fatal and returned as *ExitError.
func (p *preprocessor) preprocess(ctx context.Context, h *header, searchRoot string) error {
	if err := h.write(); err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	args := p.args(h.path, searchRoot)
	if logging {
		log("%s", shellquote.Join(append([]string{p.argv[0]}, args...)...))
	}
	out, diag, status, err := p.runner.run(ctx, "", p.argv[0], args...)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errorf("%s: %s: timed out after %v", h.path, p.argv[0], p.timeout)
	case err != nil:
		return errorf("%s: %s: %v", h.path, p.argv[0], err)
	}

	if len(diag) != 0 {
		p.stderr.Write(diag)
	}
	if status != 0 {
		return &ExitError{Cmd: p.argv[0], Status: status}
	}

	h.text = string(out)
	return nil
}
