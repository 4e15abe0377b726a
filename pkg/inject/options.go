package inject

import "log/slog"

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for debug event lines and swallowed failures.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHook sets the diagnostic hook.
func WithHook(hook Hook) Option {
	return func(r *Registry) {
		r.hook = hook
	}
}

// WithDebug enables a Debug log line per registry event.
func WithDebug(enabled bool) Option {
	return func(r *Registry) {
		r.debug = enabled
	}
}
