package logger

// Logger is the structured logger used across the module.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Sync() error
}

// With returns a Logger that adds base to every entry. Per-call fields
// win on key collisions.
func With(l Logger, base map[string]any) Logger {
	if l == nil {
		return NoopLogger{}
	}
	if len(base) == 0 {
		return l
	}
	if s, ok := l.(scoped); ok {
		return scoped{next: s.next, base: merge(s.base, base)}
	}
	return scoped{next: l, base: base}
}

type scoped struct {
	next Logger
	base map[string]any
}

func (s scoped) Debug(msg string, fields map[string]any) { s.next.Debug(msg, merge(s.base, fields)) }
func (s scoped) Info(msg string, fields map[string]any)  { s.next.Info(msg, merge(s.base, fields)) }
func (s scoped) Warn(msg string, fields map[string]any)  { s.next.Warn(msg, merge(s.base, fields)) }
func (s scoped) Error(msg string, fields map[string]any) { s.next.Error(msg, merge(s.base, fields)) }
func (s scoped) Sync() error                             { return s.next.Sync() }

func merge(base, fields map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// NoopLogger drops every entry.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}
func (NoopLogger) Sync() error                  { return nil }
