package logger

import "io"

type options struct {
	format string
	level  string
	out    io.Writer
}

// Option configures Init.
type Option func(*options)

// WithFormat selects "text" or "json" output.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithLevel sets the initial level by name.
func WithLevel(level string) Option {
	return func(o *options) { o.level = level }
}

// WithOutput redirects log output.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}
