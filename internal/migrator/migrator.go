// Package migrator drives the chunked, checkpointed, resumable
// extract-transform-load loop for one migration run, grounded on
// internal/engine/pumper.go's per-table transaction shape,
// data-ingress/pkg/transfer/worker.go's worker/job/result pattern, and
// original_source/src/migrator.py's checkpoint/DLQ/FK-disable control
// flow.
package migrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dbmig/internal/canonical"
	"dbmig/internal/config"
	"dbmig/internal/connector"
	"dbmig/internal/dberrors"
	"dbmig/internal/model"
)

// Migrator owns the connectors and artifact stores needed to move one
// table's rows from source to target.
type Migrator struct {
	Source connector.SourceConnector
	Target connector.TargetConnector
	Checkpoints *CheckpointStore
	DLQ    *DLQWriter
	Cfg    config.MigrationConfig
	Log    *zap.Logger
}

// New builds a Migrator; cfg supplies chunk sizing and failure
// tolerances, dlq and checkpoints are shared across every table in the
// run.
func New(source connector.SourceConnector, target connector.TargetConnector, checkpoints *CheckpointStore, dlq *DLQWriter, cfg config.MigrationConfig, log *zap.Logger) *Migrator {
	return &Migrator{Source: source, Target: target, Checkpoints: checkpoints, DLQ: dlq, Cfg: cfg, Log: log}
}

// columnTransform resolves the (source, target) canonical transform for
// every mapped column once per table, rather than on every row.
func columnTransform(mapping *model.Mapping) (map[string]canonical.TransformFunc, error) {
	fns := make(map[string]canonical.TransformFunc, len(mapping.Columns))
	for _, col := range mapping.Columns {
		target := col.TargetCanonicalType
		if target == "" {
			target = col.CanonicalType
		}
		fn, ok := canonical.Lookup(canonical.Type(col.CanonicalType), canonical.Type(target))
		if !ok {
			return nil, fmt.Errorf("no transform registered for %s -> %s (column %s)", col.CanonicalType, target, col.Source)
		}
		fns[col.Source] = fn
	}
	return fns, nil
}

// MigrateTable runs the full chunked load for one table, resuming from
// its last checkpoint if one exists, and returns once the table is
// exhausted or a fatal error occurs. Per-row failures never abort the
// table; they're classified and routed to the DLQ.
func (m *Migrator) MigrateTable(ctx context.Context, spec *model.TableSpec, mapping *model.Mapping) (retErr error) {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("table", spec.Name))

	cp, err := m.Checkpoints.Load(spec.Name)
	if err != nil {
		return dberrors.New(dberrors.CategoryLoad, spec.Name, err)
	}
	if cp.Status == model.StatusDone {
		log.Info("table already migrated, skipping")
		return nil
	}
	cp.Status = model.StatusRunning

	// A fatal error abandons the table mid-chunk; mark the checkpoint
	// failed rather than leaving it stuck at "running" with no record of
	// why it stopped. A cancelled context is a pause, not a failure, so it
	// stays "running" and the next invocation resumes it normally.
	defer func() {
		if retErr == nil {
			return
		}
		if cat, ok := dberrors.CategoryOf(retErr); ok && cat == dberrors.CategoryCancelled {
			return
		}
		if ctx.Err() != nil {
			return
		}
		cp.Status = model.StatusFailed
		cp.UpdatedAt = time.Now()
		if err := m.Checkpoints.Save(cp); err != nil {
			log.Error("failed to persist failed checkpoint status", zap.Error(err))
		}
	}()

	transforms, err := columnTransform(mapping)
	if err != nil {
		return dberrors.New(dberrors.CategoryMapping, spec.Name, err)
	}

	mode, pkCols, lastPK, offset := PlanResume(spec, cp, log)

	sourceCols := make([]string, len(mapping.Columns))
	targetByAsSource := make(map[string]string, len(mapping.Columns))
	for i, c := range mapping.Columns {
		sourceCols[i] = c.Source
		targetByAsSource[c.Source] = c.Target
	}
	targetCols := make([]string, len(mapping.Columns))
	for i, c := range mapping.Columns {
		targetCols[i] = c.Target
	}

	chunkSize := cp.ChunkSize
	if chunkSize <= 0 {
		chunkSize = m.Cfg.ChunkSize
	}
	minChunk := m.Cfg.MinChunkSize
	if minChunk <= 0 {
		minChunk = 1000
	}

	for {
		if err := ctx.Err(); err != nil {
			return dberrors.New(dberrors.CategoryCancelled, spec.Name, err)
		}

		chunkCtx := ctx
		var cancel context.CancelFunc
		if m.Cfg.ChunkTimeout > 0 {
			chunkCtx, cancel = context.WithTimeout(ctx, m.Cfg.ChunkTimeout)
		}

		var pkArg []any
		var off int64
		if mode == ResumeByKeyset {
			pkArg = lastPK
		} else {
			off = offset
		}

		iter, err := m.Source.StreamRows(chunkCtx, spec.Schema, spec.Name, sourceCols, pkCols, pkArg, off, chunkSize)
		if err != nil {
			if cancel != nil {
				cancel()
			}
			return dberrors.New(dberrors.CategoryLoad, spec.Name, fmt.Errorf("stream rows: %w", err))
		}

		targetRows := make([]map[string]any, 0, chunkSize)
		var lastRow map[string]any
		rowCount := 0
		var transformFailed []model.DLQRecord
		for iter.Next() {
			row := iter.Row()
			lastRow = row
			out := make(map[string]any, len(mapping.Columns))
			var badErr error
			for src, tgt := range targetByAsSource {
				fn := transforms[src]
				v, err := fn(row[src])
				if err != nil {
					badErr = fmt.Errorf("column %s: %w", src, err)
					break
				}
				out[tgt] = v
			}
			if badErr != nil {
				// A transform failure is a type_conversion load error, not
				// a value worth loading raw — one bad column routes the
				// whole row to the DLQ instead of aborting the chunk.
				transformFailed = append(transformFailed, model.DLQRecord{
					Table:     spec.Name,
					Offset:    offset + int64(rowCount),
					ErrorKind: dberrors.LoadKindTypeConversion.String(),
					Error:     badErr.Error(),
					Row:       row,
				})
				rowCount++
				continue
			}
			targetRows = append(targetRows, out)
			rowCount++
		}
		iterErr := iter.Err()
		closeErr := iter.Close()
		if cancel != nil {
			cancel()
		}
		if iterErr != nil {
			return dberrors.New(dberrors.CategoryLoad, spec.Name, fmt.Errorf("read chunk: %w", iterErr))
		}
		if closeErr != nil {
			log.Warn("error closing source cursor", zap.Error(closeErr))
		}

		if rowCount == 0 {
			cp.Status = model.StatusDone
			cp.UpdatedAt = time.Now()
			if err := m.Checkpoints.Save(cp); err != nil {
				return dberrors.New(dberrors.CategoryLoad, spec.Name, err)
			}
			log.Info("table migration complete", zap.Int64("rows_loaded", cp.RowsLoaded), zap.Int64("rows_failed", cp.RowsFailed))
			return nil
		}

		for _, rec := range transformFailed {
			if err := m.DLQ.Write(rec); err != nil {
				log.Error("failed to write dlq record", zap.Error(err))
			}
		}

		loaded, failed, err := m.Target.BulkLoad(ctx, mapping.TargetTable, targetCols, targetRows)
		if err != nil {
			return dberrors.New(dberrors.CategoryLoad, spec.Name, fmt.Errorf("bulk load: %w", err))
		}
		for _, f := range failed {
			kind := loadKindFor(f.Kind)
			rec := model.DLQRecord{
				Table:     spec.Name,
				Offset:    offset + int64(f.Index),
				ErrorKind: kind.String(),
				Error:     f.Err.Error(),
				Row:       targetRows[f.Index],
			}
			if err := m.DLQ.Write(rec); err != nil {
				log.Error("failed to write dlq record", zap.Error(err))
			}
		}
		if len(failed) > 0 || len(transformFailed) > 0 {
			log.Warn("chunk had per-row failures",
				zap.Int("load_failed", len(failed)), zap.Int("transform_failed", len(transformFailed)), zap.Int("loaded", loaded))
		}

		chunkSize = adjustChunkSize(chunkSize, len(failed)+len(transformFailed), rowCount, m.Cfg.MaxChunkFailures, minChunk, m.Cfg.ChunkSize)

		cp.RowsLoaded += int64(loaded)
		cp.RowsFailed += int64(len(failed) + len(transformFailed))
		cp.ChunkSize = chunkSize
		cp.UpdatedAt = time.Now()
		if mode == ResumeByKeyset && lastRow != nil {
			pkVals := make([]any, len(pkCols))
			for i, c := range pkCols {
				pkVals[i] = lastRow[c]
			}
			lastPK = pkVals
			cp.LastPKValue = EncodeLastPK(pkVals)
		} else {
			offset += int64(rowCount)
			cp.LastOffset = offset
		}
		if err := m.Checkpoints.Save(cp); err != nil {
			return dberrors.New(dberrors.CategoryLoad, spec.Name, err)
		}
	}
}

// adjustChunkSize applies one chunk-size step: a clean full chunk grows
// the next chunk by 10% (capped at the configured chunk size), a chunk
// with failures beyond the tolerance halves it (floored at minChunk) so
// a table that's hitting constraint violations backs off instead of
// repeating the same failure at full batch size. A table starts at the
// configured chunk size, which is also the cap, so growth only recovers
// size lost to an earlier halving.
func adjustChunkSize(current, failures, rowCount, maxFailures, minChunk, maxChunk int) int {
	if failures > maxFailures {
		next := current / 2
		if next < minChunk {
			next = minChunk
		}
		return next
	}
	if failures == 0 && rowCount == current {
		next := current + current/10
		if maxChunk > 0 && next > maxChunk {
			next = maxChunk
		}
		return next
	}
	return current
}

func loadKindFor(kind string) dberrors.LoadKind {
	switch kind {
	case "constraint_violation":
		return dberrors.LoadKindConstraintViolation
	case "type_conversion":
		return dberrors.LoadKindTypeConversion
	case "encoding":
		return dberrors.LoadKindEncoding
	default:
		return dberrors.LoadKindUnknown
	}
}

// RunAll migrates every table in order, disabling target FK checks for
// the whole run when the config asks for it or when the topological
// order required breaking a cycle (a cycle-participating table cannot
// be loaded with FK checks on regardless of per-table settings), and
// re-enabling them once every table finishes or the pool aborts.
func (m *Migrator) RunAll(ctx context.Context, order TopoOrder, specs map[string]*model.TableSpec, mappings map[string]*model.Mapping) error {
	needsFKOff := m.Cfg.DisableFKDuringLoad || len(order.InCycle) > 0
	if needsFKOff {
		if err := m.Target.ToggleFK(ctx, false); err != nil {
			return dberrors.New(dberrors.CategoryDDL, "", fmt.Errorf("disable fk checks: %w", err))
		}
		defer func() {
			if err := m.Target.ToggleFK(ctx, true); err != nil && m.Log != nil {
				m.Log.Error("failed to re-enable fk checks", zap.Error(err))
			}
		}()
	}

	concurrency := m.Cfg.TableParallelism
	if concurrency <= 0 {
		concurrency = 1
	}

	return RunPool(ctx, order.Order, concurrency, func(ctx context.Context, table string) error {
		spec, ok := specs[table]
		if !ok {
			return nil
		}
		mapping, ok := mappings[table]
		if !ok {
			return dberrors.New(dberrors.CategoryMapping, table, fmt.Errorf("no approved mapping for table %s", table))
		}
		return m.MigrateTable(ctx, spec, mapping)
	})
}
