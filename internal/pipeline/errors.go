package pipeline

import (
	"context"
	"errors"

	"github.com/nikhil7591/slidex/internal/deck"
	"github.com/nikhil7591/slidex/internal/explain"
	"github.com/nikhil7591/slidex/internal/normalize"
	"github.com/nikhil7591/slidex/internal/outline"
	"github.com/nikhil7591/slidex/internal/slides"
	"github.com/nikhil7591/slidex/internal/summarize"
)

// Kind classifies a pipeline error for reporting and exit codes.
type Kind int

const (
	// KindUnknown covers errors outside the known taxonomy.
	KindUnknown Kind = iota
	// KindInput means the document itself was unusable.
	KindInput
	// KindUpstream means the completion provider failed or misbehaved.
	KindUpstream
	// KindStructural means planning or assembly invariants were violated.
	KindStructural
	// KindCanceled means the run was stopped by its context.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input error"
	case KindUpstream:
		return "upstream service error"
	case KindStructural:
		return "structural error"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown error"
	}
}

// Classify maps an error from any pipeline step onto its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	if errors.Is(err, normalize.ErrEmptyInput) {
		return KindInput
	}
	var planErr *outline.PlanError
	var asmErr *deck.AssemblyError
	if errors.As(err, &planErr) || errors.As(err, &asmErr) {
		return KindStructural
	}
	var summErr *summarize.SummarizeError
	var genErr *slides.GenerationError
	var explErr *explain.ExplanationError
	if errors.As(err, &summErr) || errors.As(err, &genErr) || errors.As(err, &explErr) {
		return KindUpstream
	}
	return KindUnknown
}
