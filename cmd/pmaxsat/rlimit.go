package main

import (
	"syscall"

	"github.com/coregap/pmaxsat/config"
	"github.com/sirupsen/logrus"
)

// applyResourceLimits installs the OS-level CPU and memory caps §5
// calls for ("Memory/CPU limits are enforced via OS resource limits
// set at startup"). There is no third-party wrapper for raw rlimit
// syscalls anywhere in the examined corpus, so this is one of the few
// places this module reaches straight for the syscall package — see
// DESIGN.md.
func applyResourceLimits(opts *config.Options, log *logrus.Entry) {
	if opts.CPULimitSeconds > 0 {
		setRlimit(syscall.RLIMIT_CPU, uint64(opts.CPULimitSeconds), log, "cpu")
	}
	if opts.MemLimitMB > 0 {
		setRlimit(syscall.RLIMIT_AS, uint64(opts.MemLimitMB)*1024*1024, log, "memory")
	}
}

func setRlimit(resource int, value uint64, log *logrus.Entry, label string) {
	lim := syscall.Rlimit{Cur: value, Max: value}
	if err := syscall.Setrlimit(resource, &lim); err != nil {
		log.WithError(err).Warnf("resource limit: could not install %s limit", label)
	}
}
