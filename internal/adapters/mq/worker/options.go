// Package worker defines worker contracts for asynchronous pick grading.
package worker

import "pickwire/pkg/logger"

// Option applies a configuration option to the GradeWorker.
type Option func(*GradeWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *GradeWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *GradeWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
