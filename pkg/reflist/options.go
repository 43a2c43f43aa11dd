package reflist

import "go.uber.org/zap"

// Option configures a List at creation time.
type Option func(*options)

type options struct {
	log     *zap.Logger
	metrics *Metrics
}

// WithLogger sets the logger failures are reported to. A nil logger is
// ignored, by default failures are not logged.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics makes the list record item and failure counters into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, f := range opts {
		f(&o)
	}
	return o
}
