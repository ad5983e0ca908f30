package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/proxyscout/proxyscout/internal/core"
	"github.com/proxyscout/proxyscout/internal/metrics"
)

// ErrNoRecord means the verification service returned nothing for a candidate.
var ErrNoRecord = errors.New("verification service returned no record for candidate")

// CandidateSource fetches unverified proxy candidates.
type CandidateSource interface {
	FetchCandidates(ctx context.Context) ([]core.Candidate, error)
}

// Verifier checks a batch of candidates in one round trip.
type Verifier interface {
	Verify(ctx context.Context, candidates []core.Candidate) (core.VerificationResult, error)
}

// Pipeline composes fetch, sample and verify for the caller-facing operations.
type Pipeline struct {
	Source   CandidateSource
	Verifier Verifier
	Selector *Selector
	Clock    func() time.Time
	Logger   *logging.Logger
}

// CheckOne verifies a single caller-supplied ip:port without fetching.
func (p *Pipeline) CheckOne(ctx context.Context, raw string) (*core.VerificationRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	candidate, err := core.ParseCandidate(raw)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Verifier == nil {
		return nil, fmt.Errorf("verifier not configured")
	}

	batch := []core.Candidate{candidate}
	records, err := p.Verifier.Verify(ctx, batch)
	if err != nil {
		metrics.RecordVerify(false, len(batch), 0)
		return nil, err
	}
	metrics.RecordVerify(true, len(batch), len(records.Working()))

	correlation := Correlate(batch, records)
	record, ok := correlation.Matched[0]
	if !ok && len(records) == 1 {
		// A single submission leaves nothing to confuse the record with,
		// even when the service normalised the address it echoes back.
		record, ok = records[0], true
		correlation.Mode = core.CorrelationPositional
	}
	if !ok {
		return nil, ErrNoRecord
	}

	p.debug("Checked proxy",
		zap.String("proxy", candidate.Address()),
		zap.Bool("working", record.Working),
		zap.String("correlation", string(correlation.Mode)))

	return &record, nil
}

// CheckBatch fetches candidates, samples count of them and verifies the
// sample. Running out of candidates or working proxies is reported through
// Report.Status, not as an error.
func (p *Pipeline) CheckBatch(ctx context.Context, count int) (*core.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ValidateCount(count); err != nil {
		return nil, err
	}
	if p == nil || p.Source == nil || p.Verifier == nil {
		return nil, fmt.Errorf("pipeline not configured")
	}

	report := &core.Report{
		RunID:       uuid.NewString(),
		Requested:   count,
		Records:     core.VerificationResult{},
		Working:     core.VerificationResult{},
		Correlation: core.CorrelationNone,
		RequestedAt: p.now(),
	}

	candidates, err := p.Source.FetchCandidates(ctx)
	if err != nil {
		metrics.RecordFetch(false, 0)
		return nil, err
	}
	metrics.RecordFetch(true, len(candidates))
	report.Fetched = len(candidates)

	if len(candidates) == 0 {
		report.Status = core.ReportStatusNoCandidates
		report.ResolvedAt = p.now()
		p.debug("No proxy candidates available", zap.String("run_id", report.RunID))
		return report, nil
	}

	sample := p.Selector.Select(candidates, count)
	report.Sampled = len(sample)

	records, err := p.Verifier.Verify(ctx, sample)
	if err != nil {
		metrics.RecordVerify(false, len(sample), 0)
		return nil, err
	}
	working := records.Working()
	metrics.RecordVerify(true, len(sample), len(working))

	correlation := Correlate(sample, records)
	report.Records = records
	report.Working = working
	report.Unmatched = correlation.Unmatched
	report.Correlation = correlation.Mode
	report.Status = core.ReportStatusOK
	if len(working) == 0 {
		report.Status = core.ReportStatusNoWorking
	}
	report.ResolvedAt = p.now()

	p.debug("Verified proxy sample",
		zap.String("run_id", report.RunID),
		zap.Int("fetched", report.Fetched),
		zap.Int("sampled", report.Sampled),
		zap.Int("records", len(records)),
		zap.Int("working", len(working)),
		zap.String("correlation", string(report.Correlation)))

	return report, nil
}

func (p *Pipeline) debug(msg string, fields ...zap.Field) {
	if p != nil && p.Logger != nil {
		p.Logger.Debug(msg, fields...)
	}
}

func (p *Pipeline) now() time.Time {
	if p != nil && p.Clock != nil {
		return p.Clock()
	}
	return time.Now().UTC()
}
