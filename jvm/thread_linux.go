//go:build linux

package jvm

import "golang.org/x/sys/unix"

// threadID identifies the current OS thread. Callers hold runtime.LockOSThread.
func threadID() int64 {
	return int64(unix.Gettid())
}
