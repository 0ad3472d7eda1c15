package review

import "errors"

var (
	// ErrOriginalNotFound indicates the source review referenced by a
	// derivation action no longer exists.
	ErrOriginalNotFound = errors.New("original review not found")

	// ErrSelfDerivation indicates a user attempted to share, quote or
	// co-sign their own review.
	ErrSelfDerivation = errors.New("cannot derive from own review")

	// ErrEmptyComment indicates a quote was submitted with blank text.
	ErrEmptyComment = errors.New("quote comment cannot be empty")

	// ErrUnknownMode indicates a derivation request carried a mode the
	// engine does not recognize.
	ErrUnknownMode = errors.New("unknown derivation mode")
)
