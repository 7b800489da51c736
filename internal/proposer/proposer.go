// Package proposer drafts source-to-target column mappings, preferring
// an LLM-assisted proposal when one is configured and always able to
// fall back to a deterministic rule-based mapping so the pipeline never
// depends on the LLM for correctness.
package proposer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"dbmig/internal/canonical"
	"dbmig/internal/llmclient"
	"dbmig/internal/model"
)

// mysqlTypeGrammar validates that an LLM-proposed target type is at
// least syntactically a MySQL type declaration before it's trusted,
// per spec's per-engine target-type grammar validation step.
var mysqlTypeGrammar = regexp.MustCompile(`(?i)^(TINYINT|SMALLINT|MEDIUMINT|INT|BIGINT|DECIMAL|FLOAT|DOUBLE|CHAR|VARCHAR|TEXT|TINYTEXT|MEDIUMTEXT|LONGTEXT|DATE|DATETIME|TIMESTAMP|TIME|YEAR|BINARY|VARBINARY|BLOB|TINYBLOB|MEDIUMBLOB|LONGBLOB|JSON|ENUM|SET)(\(\d+(,\s*\d+)?\))?( UNSIGNED)?$`)

// Proposer drafts a Mapping for one table.
type Proposer struct {
	client     llmclient.Client
	limiter    *rate.Limiter
	maxRetries int
	log        *zap.Logger
}

// New builds a Proposer. client may be nil to disable LLM assistance
// entirely — every table then goes through FallbackMapping.
func New(client llmclient.Client, ratePerSec float64, maxRetries int, log *zap.Logger) *Proposer {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return &Proposer{client: client, limiter: limiter, maxRetries: maxRetries, log: log}
}

// Propose drafts a mapping for spec, trying the LLM (with
// retry-with-feedback on invariant violations) before falling back to
// the deterministic rule table.
func (p *Proposer) Propose(ctx context.Context, spec *model.TableSpec) (*model.Mapping, error) {
	if p.client == nil {
		mapping, warnings := FallbackMapping(spec)
		p.logFallback(spec.Name, "llm disabled", warnings)
		return mapping, nil
	}

	mapping, err := p.tryLLM(ctx, spec)
	if err != nil {
		p.log.Warn("llm proposal failed, using rule-based fallback",
			zap.String("table", spec.Name), zap.Error(err))
		fb, warnings := FallbackMapping(spec)
		p.logFallback(spec.Name, err.Error(), warnings)
		return fb, nil
	}
	return mapping, nil
}

func (p *Proposer) logFallback(table, reason string, warnings []string) {
	p.log.Info("mapping produced by rule-based fallback",
		zap.String("table", table), zap.String("reason", reason), zap.Int("warnings", len(warnings)))
}

func (p *Proposer) tryLLM(ctx context.Context, spec *model.TableSpec) (*model.Mapping, error) {
	req := buildRequest(spec)

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(p.maxRetries))
	var mapping *model.Mapping
	feedback := ""

	op := func() error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		req.Feedback = feedback
		resp, err := p.client.GenerateMapping(ctx, req)
		if err != nil {
			return err // retryable — transient LLM call failure
		}
		m, verr := validateResponse(spec, resp)
		if verr != nil {
			feedback = verr.Error()
			return verr // invariant violation, retryable with the violation fed back next attempt
		}
		mapping = m
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return mapping, nil
}

func buildRequest(spec *model.TableSpec) llmclient.MappingRequest {
	req := llmclient.MappingRequest{Table: spec.Name}
	for _, c := range spec.Columns {
		req.Columns = append(req.Columns, llmclient.ColumnContext{
			Name: c.Name, SourceType: c.SourceType, CanonicalType: c.CanonicalType,
			Nullable: c.Nullable, IsPrimaryKey: c.IsPrimaryKey, Comment: c.Comment,
		})
	}
	return req
}

// validateResponse checks structural and semantic shape: every source
// column is covered, canonical types are members of the closed
// enumeration, and the proposed target type parses under the MySQL
// grammar — spec's proposer validation step.
func validateResponse(spec *model.TableSpec, resp *llmclient.MappingResponse) (*model.Mapping, error) {
	if resp == nil || len(resp.Columns) == 0 {
		return nil, fmt.Errorf("empty llm response for table %s", spec.Name)
	}
	bySource := make(map[string]llmclient.ColumnProposal, len(resp.Columns))
	for _, c := range resp.Columns {
		bySource[c.Source] = c
	}

	mapping := &model.Mapping{
		SourceTable: spec.Name, TargetTable: resp.TargetTable, ProposedBy: "llm",
		MySQLEngine: "InnoDB", MySQLCharset: "utf8mb4",
	}
	if mapping.TargetTable == "" {
		mapping.TargetTable = spec.Name
	}

	for _, col := range spec.Columns {
		prop, ok := bySource[col.Name]
		if !ok {
			return nil, fmt.Errorf("llm response missing column %s", col.Name)
		}
		if !canonical.Type(col.CanonicalType).Valid() {
			return nil, fmt.Errorf("column %s: canonical type %q is not a member of the enum", col.Name, col.CanonicalType)
		}
		if !mysqlTypeGrammar.MatchString(prop.TargetType) {
			return nil, fmt.Errorf("column %s: target type %q does not parse as a mysql type", col.Name, prop.TargetType)
		}
		cm := model.ColumnMapping{
			Source: col.Name, Target: prop.Target, CanonicalType: col.CanonicalType,
			TargetCanonicalType: col.CanonicalType,
			TargetType:          prop.TargetType, Nullable: col.Nullable, AutoIncrement: col.IsAutoIncr,
			Role: prop.Role,
		}
		if cm.Target == "" {
			cm.Target = col.Name
		}
		mapping.Columns = append(mapping.Columns, cm)
	}
	return mapping, nil
}
