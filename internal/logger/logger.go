// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger provides the kernel's access to vlog. There is a
// pre-created "global" logger and the ability to create named loggers
// for individual subsystems.
package logger

import (
	"v.io/x/lib/vlog"
)

// Logging is the logging interface used throughout the kernel. It is
// satisfied by *vlog.Logger.
type Logging interface {
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	V(level int) bool
	VI(level int) interface {
		Info(args ...interface{})
		Infof(format string, args ...interface{})
		InfoDepth(depth int, args ...interface{})
		InfoStack(all bool)
	}
	FlushLog()
}

// Global returns the global logger.
func Global() Logging {
	return vlog.Log
}

// NewLogger creates a new logger with the supplied name.
func NewLogger(name string) Logging {
	return vlog.NewLogger(name)
}

// Or returns l if it is non-nil and the global logger otherwise.
func Or(l Logging) Logging {
	if l == nil {
		return Global()
	}
	return l
}

// IsAlreadyConfiguredError returns true if the err parameter indicates
// the the logger has already been configured.
func IsAlreadyConfiguredError(err error) bool {
	return err == vlog.ErrConfigured
}

// ConfigureFromFlags configures the global logger from the vlog command
// line flags. A logger that is already configured is left alone.
func ConfigureFromFlags() error {
	if err := vlog.Log.ConfigureFromFlags(); err != nil && !IsAlreadyConfiguredError(err) {
		return err
	}
	return nil
}
