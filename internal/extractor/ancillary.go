package extractor

import (
	"context"

	"go.uber.org/zap"
)

// AncillaryObject is a view, routine, or trigger definition captured
// for human review — never applied to the target, since migrating
// stored procedures, triggers, or UDFs is out of scope for this system.
type AncillaryObject struct {
	Name       string
	Definition string
}

// AncillarySource is an optional capability a SourceConnector may
// implement to expose view/routine/trigger definitions. Not every
// engine needs to implement it; extraction degrades gracefully when it
// doesn't.
type AncillarySource interface {
	ListViews(ctx context.Context, schema string) ([]AncillaryObject, error)
	ListRoutines(ctx context.Context, schema string) ([]AncillaryObject, error)
	ListTriggers(ctx context.Context, schema string) ([]AncillaryObject, error)
}

// AncillaryResult groups the three ancillary object kinds captured
// during one extraction run.
type AncillaryResult struct {
	Views    []AncillaryObject
	Routines []AncillaryObject
	Triggers []AncillaryObject
}

// ExtractAncillaryObjects captures view/routine/trigger definitions for
// human review, supplementing spec's core schema extraction with a
// feature present in original_source/src/extractor.py's
// extract_views/extract_routines/extract_triggers. It is best-effort:
// a connector that doesn't implement AncillarySource yields an empty
// result rather than an error, and no failure here aborts extraction.
func (e *Extractor) ExtractAncillaryObjects(ctx context.Context) AncillaryResult {
	anc, ok := e.source.(AncillarySource)
	if !ok {
		return AncillaryResult{}
	}

	var result AncillaryResult
	if v, err := anc.ListViews(ctx, e.schema); err != nil {
		e.log.Warn("ancillary: list views failed", zap.Error(err))
	} else {
		result.Views = v
	}
	if r, err := anc.ListRoutines(ctx, e.schema); err != nil {
		e.log.Warn("ancillary: list routines failed", zap.Error(err))
	} else {
		result.Routines = r
	}
	if t, err := anc.ListTriggers(ctx, e.schema); err != nil {
		e.log.Warn("ancillary: list triggers failed", zap.Error(err))
	} else {
		result.Triggers = t
	}
	return result
}
