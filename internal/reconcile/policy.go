// Package reconcile decides, per file, whether to derive a capture time from
// the filesystem, accept what is embedded, or take an operator override.
package reconcile

import (
	"context"
	"time"

	"exif-fixer/internal/metadata"
	"exif-fixer/internal/models"
	"exif-fixer/internal/utils"
)

// Policy is the per-file reconciliation state machine. It mutates the
// record's View but never touches the filesystem.
type Policy struct {
	// SkipIfPresent leaves files that already have a capture time alone
	// without prompting.
	SkipIfPresent bool
	// DefaultOffset is written with every correction unless the file
	// already carries an offset and the operator is overriding by hand.
	DefaultOffset string
	// Now supplies the example shown at manual entry. Defaults to time.Now.
	Now func() time.Time
}

// NewPolicy returns a Policy using offset as the default UTC offset.
func NewPolicy(skipIfPresent bool, offset string) *Policy {
	if offset == "" {
		offset = metadata.DefaultOffset
	}
	return &Policy{
		SkipIfPresent: skipIfPresent,
		DefaultOffset: offset,
		Now:           time.Now,
	}
}

// Reconcile runs the state machine for rec and reports its terminal state.
// An error is returned only when the operator channel fails or ctx is done;
// in that case rec.View may be partially unchanged but nothing was written.
func (p *Policy) Reconcile(ctx context.Context, op Operator, rec *models.FileRecord) (models.Outcome, error) {
	if rec.View.CaptureTime == nil {
		return p.reconcileMissing(ctx, op, rec)
	}

	op.Notify(Event{Kind: EventHasCaptureTime, Fields: rec.View.Fields()})
	if p.SkipIfPresent {
		op.Notify(Event{Kind: EventSkipped})
		return models.OutcomeUnchanged, nil
	}

	return p.manual(ctx, op, rec, models.OutcomeUnchanged)
}

// reconcileMissing proposes the filesystem modified time as capture time.
func (p *Policy) reconcileMissing(ctx context.Context, op Operator, rec *models.FileRecord) (models.Outcome, error) {
	proposed := rec.Stat.ModTime.Truncate(time.Second)
	op.Notify(Event{
		Kind: EventNoCaptureTime,
		Fields: []metadata.Field{
			{Name: "Exif DateTimeOriginal", Value: utils.FormatExifTime(proposed)},
			{Name: "Exif OffsetTime", Value: p.DefaultOffset},
		},
	})

	for {
		answer, err := op.Ask(ctx, Question{Kind: QuestionAcceptDefault})
		if err != nil {
			return models.OutcomeSkipped, err
		}

		switch answer {
		case TokenYes:
			rec.View.Correct(proposed, p.DefaultOffset)
			op.Notify(Event{Kind: EventSaved})
			return models.OutcomeAutoDefault, nil
		case TokenNo:
			return p.manual(ctx, op, rec, models.OutcomeSkipped)
		case TokenView:
			p.show(ctx, op, rec.Path)
		default:
			op.Notify(Event{Kind: EventInvalidInput})
		}
	}
}

// manual offers a hand-entered correction. declined is the outcome when the
// operator says no or cancels entry.
func (p *Policy) manual(ctx context.Context, op Operator, rec *models.FileRecord, declined models.Outcome) (models.Outcome, error) {
	for {
		answer, err := op.Ask(ctx, Question{Kind: QuestionManualEntry})
		if err != nil {
			return declined, err
		}

		switch answer {
		case TokenYes:
			t, ok, err := p.readTimestamp(ctx, op)
			if err != nil {
				return declined, err
			}
			if !ok {
				op.Notify(Event{Kind: EventCancelled})
				return declined, nil
			}
			rec.View.Correct(t, p.offsetFor(rec.View))
			op.Notify(Event{Kind: EventSaved})
			return models.OutcomeManualOverride, nil
		case TokenNo:
			op.Notify(Event{Kind: EventCancelled})
			return declined, nil
		case TokenView:
			p.show(ctx, op, rec.Path)
		default:
			op.Notify(Event{Kind: EventInvalidInput})
		}
	}
}

// readTimestamp re-prompts until the operator enters a valid timestamp or
// TokenCancel. ok is false on cancel.
func (p *Policy) readTimestamp(ctx context.Context, op Operator) (t time.Time, ok bool, err error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	for {
		line, err := op.Ask(ctx, Question{Kind: QuestionTimestamp, Example: utils.FormatExifTime(now())})
		if err != nil {
			return time.Time{}, false, err
		}
		if line == TokenCancel {
			return time.Time{}, false, nil
		}

		t, err := utils.ParseExifTime(line)
		if err != nil {
			op.Notify(Event{Kind: EventInvalidInput, Err: err})
			continue
		}
		return t, true, nil
	}
}

// offsetFor keeps an offset the file already carries.
func (p *Policy) offsetFor(v *metadata.View) string {
	if v.UTCOffset != nil && *v.UTCOffset != "" {
		return *v.UTCOffset
	}
	return p.DefaultOffset
}

func (p *Policy) show(ctx context.Context, op Operator, path string) {
	if err := op.ShowImage(ctx, path); err != nil {
		op.Notify(Event{Kind: EventViewerFailed, Err: err})
	}
}
