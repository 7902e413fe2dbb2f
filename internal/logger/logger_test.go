// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger_test

import (
	"testing"

	"v.io/x/lib/vlog"

	"v.io/x/kern/internal/logger"
)

func TestOr(t *testing.T) {
	if got, want := logger.Or(nil), logger.Global(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	named := logger.NewLogger("proc")
	if got := logger.Or(named); got != named {
		t.Errorf("Or dropped the supplied logger")
	}
	var _ logger.Logging = vlog.Log
}
