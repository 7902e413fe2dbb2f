// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import (
	"fmt"
	"io"

	"github.com/shirou/gopsutil/v3/mem"

	"v.io/x/kern/vm"
)

// MemStats reports the kernel's physical memory use alongside that of the
// host it runs on.
type MemStats struct {
	Coremap vm.Stats
	// Host memory, zero if it could not be read.
	HostTotal, HostAvailable uint64
}

// MemStats returns current memory statistics. Failure to read host memory
// is reported but does not prevent the coremap statistics from being
// returned.
func (k *Kernel) MemStats() (MemStats, error) {
	s := MemStats{Coremap: k.coremap.Stats()}
	vms, err := mem.VirtualMemory()
	if err != nil {
		return s, fmt.Errorf("host memory: %w", err)
	}
	s.HostTotal, s.HostAvailable = vms.Total, vms.Available
	return s, nil
}

func perc(a, b int) int {
	if b == 0 {
		return 0
	}
	return (100*a + b/2) / b
}

// Print writes s to w in a human-readable form.
func (s MemStats) Print(w io.Writer) {
	cm := s.Coremap
	total, used := cm.Bytes()
	fmt.Fprintf(w, "coremap:\n")
	fmt.Fprintf(w, "  RAM:              %d KiB (%d KiB used)\n", total/1024, used/1024)
	fmt.Fprintf(w, "  pages:            %d\n", cm.Total)
	fmt.Fprintf(w, "  allocated pages:  %d (%d%%)\n", cm.Used, perc(cm.Used, cm.Total))
	fmt.Fprintf(w, "  largest free run: %d\n", cm.Largest)
	if s.HostTotal != 0 {
		fmt.Fprintf(w, "host:\n")
		fmt.Fprintf(w, "  RAM:              %d MiB (%d MiB available)\n", s.HostTotal>>20, s.HostAvailable>>20)
	}
}
