package collector

import "github.com/petermattis/goid"

// goroutineID returns a stable integer identifying the calling goroutine.
// Go has no native thread-local storage and goroutines are not 1:1 with OS
// threads, so this stands in for the original's thread_local binding: it is
// the key Registry uses to create-or-reuse one Logger per goroutine. Trace
// headers and file names get their thread id separately, from the flush
// queue's currentThreadID of the goroutine that enqueues the buffer.
func goroutineID() int64 { return goid.Get() }
