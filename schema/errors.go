package schema

import "errors"

// Error kinds surfaced by the ranking pipeline. Callers match them with errors.Is.
var (
	// ErrMissingColumn reports a required column absent from the dataset.
	ErrMissingColumn = errors.New("missing column")

	// ErrEmptyDataset reports that filtering or row limiting left no items.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInvalidInput reports unusable criteria, weights or values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateArithmetic marks a zero-division case resolved by policy.
	// It only appears in diagnostics, never as a failed run.
	ErrDegenerateArithmetic = errors.New("degenerate arithmetic")
)
