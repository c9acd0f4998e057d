package models

import (
	"time"

	"exif-fixer/internal/exifcodec"
	"exif-fixer/internal/metadata"
)

// StatSnapshot is the filesystem timestamp pair captured once before a file is processed.
type StatSnapshot struct {
	AccessTime time.Time
	ModTime    time.Time
}

// FileRecord is the per-file working state. It is built once when the file
// is opened and discarded after the file has been processed.
type FileRecord struct {
	Path  string
	Stat  StatSnapshot
	Image *exifcodec.Image
	View  *metadata.View
}

// Outcome is the terminal state of reconciling one file.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeAutoDefault
	OutcomeManualOverride
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAutoDefault:
		return "auto-default"
	case OutcomeManualOverride:
		return "manual-override"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unchanged"
	}
}

// Wrote reports whether the outcome requires the container to be written back.
func (o Outcome) Wrote() bool {
	return o == OutcomeAutoDefault || o == OutcomeManualOverride
}

// RunStats counts outcomes across a run.
type RunStats struct {
	Total     int
	Auto      int
	Manual    int
	Skipped   int
	Unchanged int
	Synced    int
}

// Record tallies an outcome.
func (s *RunStats) Record(o Outcome) {
	switch o {
	case OutcomeAutoDefault:
		s.Auto++
	case OutcomeManualOverride:
		s.Manual++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Unchanged++
	}
}
