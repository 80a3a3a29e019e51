package collector

import "sync"

// Registry binds one Logger per goroutine, created on first use. It is the
// Go port's stand-in for automatic thread_local construction: whichever
// goroutine calls LoggerFor first gets a fresh Logger built by newLogger;
// every subsequent call from that same goroutine reuses it.
type Registry struct {
	newLogger func() *Logger

	mu      sync.Mutex
	loggers map[int64]*Logger
}

// NewRegistry returns a Registry that lazily builds loggers with newLogger.
func NewRegistry(newLogger func() *Logger) *Registry {
	return &Registry{newLogger: newLogger, loggers: make(map[int64]*Logger)}
}

// LoggerFor returns the calling goroutine's Logger, constructing one via
// newLogger on first access.
func (r *Registry) LoggerFor() *Logger {
	id := goroutineID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[id]; ok {
		return l
	}
	l := r.newLogger()
	r.loggers[id] = l
	return l
}

// Each calls fn for every currently-registered Logger.
func (r *Registry) Each(fn func(*Logger)) {
	r.mu.Lock()
	loggers := make([]*Logger, 0, len(r.loggers))
	for _, l := range r.loggers {
		loggers = append(loggers, l)
	}
	r.mu.Unlock()
	for _, l := range loggers {
		fn(l)
	}
}
