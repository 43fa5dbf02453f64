package cellgraph

import "log/slog"

// Options holds configuration for a Sheet.
type Options struct {
	logger  *slog.Logger
	grammar Grammar
}

func defaultOptions() *Options {
	return &Options{
		logger:  slog.Default().With(slog.String("component", "cellgraph")),
		grammar: efpGrammar{},
	}
}

// Option configures a Sheet.
type Option func(*Options)

// WithLogger sets the structured logger used for edit and invalidation records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithGrammar replaces the formula grammar (default: the Excel tokenizer based one).
func WithGrammar(g Grammar) Option {
	return func(o *Options) {
		if g != nil {
			o.grammar = g
		}
	}
}
