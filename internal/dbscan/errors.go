package dbscan

import "errors"

// Input errors. Callers classify failures with errors.Is; the wrapped message
// carries the offending value.
var (
	// ErrInvalidParameter reports a non-positive epsilon or minPoints, an
	// unknown algorithm or output shape, or a finder built for another dataset.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDimensionMismatch reports a point whose coordinate count differs from
	// the dataset's dimensionality, or a point with no coordinates at all.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNonFiniteCoordinate reports a NaN or infinite coordinate.
	ErrNonFiniteCoordinate = errors.New("non-finite coordinate")
)

// IsInputError reports whether err was caused by invalid caller input rather
// than an internal failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrNonFiniteCoordinate)
}
