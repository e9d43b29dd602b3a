//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package cli

func disableCoreDumps() error { return nil }
