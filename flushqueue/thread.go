package flushqueue

import "github.com/petermattis/goid"

// currentThreadID stands in for spoor's std::hash<std::thread::id>: Go has
// no OS thread identity visible to user code, so the calling goroutine's id
// is used instead, consistent with collector's goroutine-keyed Logger
// registry.
func currentThreadID() uint64 { return uint64(goid.Get()) }
