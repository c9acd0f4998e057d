package reconcile

import (
	"context"

	"exif-fixer/internal/metadata"
)

// Answers the operator can give at a y/n/v question, plus the reserved
// token that cancels manual timestamp entry.
const (
	TokenYes    = "y"
	TokenNo     = "n"
	TokenView   = "v"
	TokenCancel = "c"
)

// QuestionKind selects the prompt shown to the operator.
type QuestionKind int

const (
	// QuestionAcceptDefault asks whether to apply the proposed default (y/n/v).
	QuestionAcceptDefault QuestionKind = iota
	// QuestionManualEntry asks whether to enter a capture time by hand (y/n/v).
	QuestionManualEntry
	// QuestionTimestamp reads a timestamp in the EXIF layout, or TokenCancel.
	QuestionTimestamp
)

// Question is a single blocking prompt.
type Question struct {
	Kind QuestionKind
	// Example is a sample timestamp shown with QuestionTimestamp.
	Example string
}

// EventKind classifies a message shown to the operator.
type EventKind int

const (
	EventNoCaptureTime EventKind = iota
	EventHasCaptureTime
	EventInvalidInput
	EventCancelled
	EventSaved
	EventSkipped
	EventModTimeSynced
	EventViewerFailed
	EventNoFiles
	EventInterrupted
)

// Event is an informational message. Fields carries the proposed or current
// values for EventNoCaptureTime and EventHasCaptureTime.
type Event struct {
	Kind   EventKind
	Fields []metadata.Field
	Err    error
}

// Operator is the interactive capability the policy consults. Ask blocks
// until an answer arrives or ctx is done.
type Operator interface {
	Ask(ctx context.Context, q Question) (string, error)
	ShowImage(ctx context.Context, path string) error
	Notify(e Event)
}
