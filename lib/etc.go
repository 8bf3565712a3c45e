// Copyright 2026 The QBDGEN Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qbdgen // import "github.com/qbdpy/qbdgen/lib"

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	extendedErrors bool // true: Errors will include origin info.

	log     = func(string, ...interface{}) {}
	logging bool
)

func init() {
	if fn := os.Getenv("QBDGENLOG"); fn != "" {
		logging = true
		f, err := os.OpenFile(fn, os.O_APPEND|os.O_CREATE|os.O_WRONLY|os.O_SYNC, 0644)
		if err != nil {
			panic(err)
		}

		pid := fmt.Sprintf("[pid %v] ", os.Getpid())

		log = func(s string, args ...interface{}) {
			if s == "" {
				s = strings.Repeat("%v ", len(args))
			}
			_, fn, fl, _ := runtime.Caller(1)
			s = fmt.Sprintf(pid+"%s:%d: "+s, append([]interface{}{filepath.Base(fn), fl}, args...)...)
			switch {
			case len(s) != 0 && s[len(s)-1] == '\n':
				fmt.Fprint(f, s)
			default:
				fmt.Fprintln(f, s)
			}
		}
	}
}

// origin returns the position of the caller skip frames up, with the short
// name of the enclosing function.
func origin(skip int) string {
	pc, fn, fl, _ := runtime.Caller(skip)
	var name string
	if f := runtime.FuncForPC(pc); f != nil {
		name = f.Name()
		if x := strings.LastIndex(name, "."); x > 0 {
			name = name[x+1:]
		}
	}
	return fmt.Sprintf("%s:%d:%s", filepath.Base(fn), fl, name)
}

func sprintf(s string, args ...interface{}) string {
	if s == "" {
		s = strings.Repeat("%v ", len(args))
	}
	return fmt.Sprintf(s, args...)
}

// todo formats a message for a condition that should not happen, prefixed by
// the position of the caller.
func todo(s string, args ...interface{}) string {
	return fmt.Sprintf("%s\n\tTODO %s", origin(2), sprintf(s, args...))
}

// errorf returns an error formatted from s and args. With extendedErrors the
// message ends with the position of the caller.
func errorf(s string, args ...interface{}) error {
	if extendedErrors {
		return fmt.Errorf("%s (%v:)", sprintf(s, args...), origin(2))
	}

	return fmt.Errorf("%s", sprintf(s, args...))
}

// ExitError reports an external command that terminated with a non-zero
// status. The build cannot continue and the command should exit with Status.
type ExitError struct {
	Cmd    string
	Status int
}

// Error implements error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Cmd, e.Status)
}
