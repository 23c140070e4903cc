// Package logging defines the structured logger the library logs through.
// Callers plug in their own implementation; the default discards everything.
package logging

// Logger receives the resolver attempts, asset fetches and cleanup events
// of a downloader. Arguments after msg alternate key, value.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
