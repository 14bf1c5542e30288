//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package vfs

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncOSFile issues a real fsync via golang.org/x/sys/unix, the one
// syscall Engine.Sync actually needs.
func syncOSFile(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}
