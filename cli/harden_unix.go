//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package cli

import "golang.org/x/sys/unix"

// disableCoreDumps keeps decrypted records and keys out of core files.
func disableCoreDumps() error {
	var rlim unix.Rlimit
	rlim.Cur = 0
	rlim.Max = 0
	return unix.Setrlimit(unix.RLIMIT_CORE, &rlim)
}
