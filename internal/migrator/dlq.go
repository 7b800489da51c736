package migrator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dbmig/internal/model"
)

// DLQWriter appends failed rows to a per-table CSV under
// dlq/<run_id>/<table>.csv, one file handle held open for the life of a
// table's load so failures stream out instead of buffering in memory —
// original_source/src/migrator.py's _write_dlq re-opens the file in
// append mode on every failed row, which this replaces with a single
// held writer plus an explicit Close.
type DLQWriter struct {
	mu     sync.Mutex
	dir    string
	files  map[string]*dlqFile
}

type dlqFile struct {
	f *os.File
	w *csv.Writer
}

func NewDLQWriter(dir string) *DLQWriter {
	return &DLQWriter{dir: dir, files: make(map[string]*dlqFile)}
}

var dlqHeader = []string{"offset", "error_kind", "error", "row_json"}

func (d *DLQWriter) open(table string) (*dlqFile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if df, ok := d.files[table]; ok {
		return df, nil
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(d.dir, table+".csv")
	writeHeader := true
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		writeHeader = false
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(dlqHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
	}
	df := &dlqFile{f: f, w: w}
	d.files[table] = df
	return df, nil
}

// Write appends one failed row, flushing immediately so a crash never
// loses an already-reported failure.
func (d *DLQWriter) Write(rec model.DLQRecord) error {
	df, err := d.open(rec.Table)
	if err != nil {
		return fmt.Errorf("open dlq for %s: %w", rec.Table, err)
	}
	rowJSON, err := json.Marshal(rec.Row)
	if err != nil {
		rowJSON = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := df.w.Write([]string{
		fmt.Sprintf("%d", rec.Offset),
		rec.ErrorKind,
		rec.Error,
		string(rowJSON),
	}); err != nil {
		return err
	}
	df.w.Flush()
	return df.w.Error()
}

// Close flushes and releases every open DLQ file.
func (d *DLQWriter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	for _, df := range d.files {
		df.w.Flush()
		if err := df.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
