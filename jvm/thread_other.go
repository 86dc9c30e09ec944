//go:build !linux

package jvm

import "github.com/petermattis/goid"

// threadID identifies the calling goroutine. Callers hold runtime.LockOSThread,
// which pins the goroutine to one OS thread for the life of the attachment.
func threadID() int64 {
	return goid.Get()
}
