// Package progress defines the CLI's progress-reporting boundary. A
// future HTTP/SSE layer (out of scope here — see spec's Non-goals) can
// implement Sink to subscribe to the same events the terminal bar
// consumes, without the pipeline stages depending on any transport.
package progress

// Sink receives progress notifications from a running pipeline stage.
// TableStarted/TableDone bracket one table's work; Total sets the
// overall unit count once known (tables, or rows for a single-table
// operation).
type Sink interface {
	Total(n int)
	TableStarted(table string)
	TableDone(table string, err error)
}

// NopSink discards every event, the default when a caller doesn't want
// progress output (e.g. non-interactive/CI invocations).
type NopSink struct{}

func (NopSink) Total(int)               {}
func (NopSink) TableStarted(string)     {}
func (NopSink) TableDone(string, error) {}
