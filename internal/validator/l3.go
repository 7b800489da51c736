package validator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/zeebo/xxh3"

	"dbmig/internal/canonical"
	"dbmig/internal/connector"
	"dbmig/internal/model"
)

// SampleKeys draws up to sampleSize primary-key tuples from a table,
// starting at a row offset that is either deterministic (seeded by
// runID+table, per the "L3 sampling determinism" decision) or
// uniformly random within the table's estimated size.
func SampleKeys(ctx context.Context, src connector.SourceConnector, schema, table string, pkCols []string, sampleSize int, runID string, seeded bool) ([][]any, error) {
	estimate, err := src.RowCountEstimate(ctx, schema, table)
	if err != nil {
		return nil, fmt.Errorf("row count estimate: %w", err)
	}
	if estimate <= 0 || sampleSize <= 0 {
		return nil, nil
	}

	var offset int64
	span := estimate - int64(sampleSize)
	if span > 0 {
		if seeded {
			seed := xxh3.HashString(runID + "|" + table)
			offset = int64(seed % uint64(span))
		} else {
			offset = rand.Int63n(span)
		}
	}

	iter, err := src.StreamRows(ctx, schema, table, pkCols, pkCols, nil, offset, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("stream sample rows: %w", err)
	}
	defer iter.Close()

	var keys [][]any
	for iter.Next() {
		row := iter.Row()
		key := make([]any, len(pkCols))
		for i, c := range pkCols {
			key[i] = row[c]
		}
		keys = append(keys, key)
	}
	return keys, iter.Err()
}

// CheckSampleHash hashes the same K sampled rows on both sides of a
// migrated table and reports divergent keys, capped at maxDivergent
// entries in the check's error message so a systemic mismatch doesn't
// produce an unreadable report.
func CheckSampleHash(ctx context.Context, src connector.SourceConnector, tgt connector.TargetConnector, schema, sourceTable string, mapping *model.Mapping, pkCols []string, keys [][]any, maxDivergent int) model.ValidationCheck {
	check := model.ValidationCheck{Check: "sample_hash"}
	if len(keys) == 0 {
		check.Pass = true
		check.Warning = true
		check.Error = "no rows available to sample"
		return check
	}

	targetPKCols := mappedPKCols(mapping, pkCols)
	sourceHashCols, targetHashCols, transforms := hashColumnPairs(mapping, pkCols)

	srcHashes, err := src.SampleHash(ctx, schema, sourceTable, pkCols, sourceHashCols, transforms, keys)
	if err != nil {
		check.Error = fmt.Sprintf("source sample hash: %v", err)
		return check
	}
	tgtHashes, err := tgt.SampleHash(ctx, mapping.TargetTable, targetPKCols, targetHashCols, keys)
	if err != nil {
		check.Error = fmt.Sprintf("target sample hash: %v", err)
		return check
	}

	var divergent []string
	for keyStr, sh := range srcHashes {
		th, ok := tgtHashes[keyStr]
		if !ok || th != sh {
			divergent = append(divergent, keyStr)
		}
	}
	sort.Strings(divergent)

	if len(divergent) == 0 {
		check.Pass = true
		return check
	}
	check.Pass = false
	shown := divergent
	truncated := false
	if len(shown) > maxDivergent {
		shown = shown[:maxDivergent]
		truncated = true
	}
	msg := fmt.Sprintf("%d/%d sampled rows diverged: %v", len(divergent), len(keys), shown)
	if truncated {
		msg += fmt.Sprintf(" (truncated to %d)", maxDivergent)
	}
	check.Error = msg
	return check
}

func mappedPKCols(mapping *model.Mapping, pkCols []string) []string {
	sourceToTarget := make(map[string]string, len(mapping.Columns))
	for _, c := range mapping.Columns {
		sourceToTarget[c.Source] = c.Target
	}
	targetPK := make([]string, len(pkCols))
	for i, c := range pkCols {
		targetPK[i] = sourceToTarget[c]
	}
	return targetPK
}

// hashColumnPairs returns the non-PK columns in mapping order (not
// independently sorted per side) so a source column and its renamed
// target counterpart always land at the same index — CanonicalRowKey
// hashes columns positionally, so the two sides must agree on order,
// not merely on membership. It also returns each source column's
// registered TransformFunc so the source side can be hashed post-
// transform: the target side is scanned back in its already-loaded
// representation (TINYINT(1), CHAR(36), UTC DATETIME, ...), so hashing
// the raw untransformed source value would report a mismatch on every
// column whose transform isn't the identity, even for a byte-correct
// migration.
func hashColumnPairs(mapping *model.Mapping, pkCols []string) (sourceCols, targetCols []string, transforms []canonical.TransformFunc) {
	pk := make(map[string]bool, len(pkCols))
	for _, c := range pkCols {
		pk[c] = true
	}
	for _, c := range mapping.Columns {
		if pk[c.Source] {
			continue
		}
		sourceCols = append(sourceCols, c.Source)
		targetCols = append(targetCols, c.Target)
		fn, ok := canonical.Lookup(canonical.Type(c.CanonicalType), canonical.Type(c.TargetCanonicalType))
		if !ok {
			fn = func(v any) (any, error) { return v, nil }
		}
		transforms = append(transforms, fn)
	}
	return
}
