package index

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by every store operation attempted before a
// successful Initialize (or after Close).
var ErrNotInitialized = errors.New("index not initialized")

// Phase names one step of the rebuild pipeline.
type Phase string

const (
	PhaseDeletingOldStore      Phase = "deleting-old-store"
	PhaseCreatingSchema        Phase = "creating-schema"
	PhaseScanningSource        Phase = "scanning-source"
	PhaseIndexingDocuments     Phase = "indexing-documents"
	PhaseRebuildingSearchIndex Phase = "rebuilding-search-index"
	PhaseComplete              Phase = "complete"
)

// RebuildPhases is the order a full rebuild reports its phases in. Sync
// reports the same sequence without the first two.
var RebuildPhases = []Phase{
	PhaseDeletingOldStore,
	PhaseCreatingSchema,
	PhaseScanningSource,
	PhaseIndexingDocuments,
	PhaseRebuildingSearchIndex,
	PhaseComplete,
}

// Progress is one observation of a running rebuild. DocumentsTotal is zero
// until scanning finishes and fixed afterwards.
type Progress struct {
	Phase              Phase
	DocumentsProcessed int
	DocumentsTotal     int
}

// Observer receives progress synchronously on the goroutine running the
// rebuild, with the engine's write lock held. It must return quickly and must
// not call back into the Engine.
type Observer func(Progress)

func (o Observer) report(phase Phase, processed, total int) {
	if o != nil {
		o(Progress{Phase: phase, DocumentsProcessed: processed, DocumentsTotal: total})
	}
}

// RebuildFailedError reports the phase a rebuild or sync aborted in.
type RebuildFailedError struct {
	Phase Phase
	Err   error
}

func (e *RebuildFailedError) Error() string {
	return fmt.Sprintf("rebuild failed during %s: %v", e.Phase, e.Err)
}

func (e *RebuildFailedError) Unwrap() error {
	return e.Err
}

// Status is the coarse lifecycle state of an Engine.
type Status int

const (
	Disconnected Status = iota
	Ready
	Rebuilding
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Rebuilding:
		return "rebuilding"
	default:
		return "disconnected"
	}
}

// State is the engine status plus, while rebuilding, the current phase.
type State struct {
	Status Status
	Phase  Phase
}

func (s State) String() string {
	if s.Status == Rebuilding {
		return fmt.Sprintf("rebuilding(%s)", s.Phase)
	}
	return s.Status.String()
}
