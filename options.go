package harrislist

import (
	"log/slog"
	"os"
)

// DefaultContentionWarn is the retry count after which a single operation
// logs a contention warning.
const DefaultContentionWarn = 4096

type options struct {
	logger         *slog.Logger
	reclaimer      Reclaimer
	backoff        *Backoff
	contentionWarn int
}

// Option configures a List.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:         noopLogger(),
		contentionWarn: DefaultContentionWarn,
	}
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithLogger sets the structured logger. A nil logger keeps logging disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithReclaimer sets the reclamation facility. Several lists may share one
// reclaim.Domain. When unset, each list creates and owns its own domain and
// drains it on Close.
func WithReclaimer(r Reclaimer) Option {
	return func(o *options) {
		o.reclaimer = r
	}
}

// WithBackoff enables backoff between retries of a lost CAS.
func WithBackoff(b Backoff) Option {
	return func(o *options) {
		o.backoff = &b
	}
}

// WithContentionWarn sets after how many retries an operation logs a
// warning. Zero disables the warning.
func WithContentionWarn(retries int) Option {
	return func(o *options) {
		o.contentionWarn = retries
	}
}
