package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ats-screener/internal/ai"
	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
	"ats-screener/internal/ranking"
	"ats-screener/internal/scoring"
	"ats-screener/internal/source"
)

// ErrScanInProgress rejects a new run while one is still running for the
// same user. Runs are never queued silently.
var ErrScanInProgress = errors.New("a scan is already running for this user")

const (
	defaultConcurrency    = 4
	defaultExtractTimeout = 60 * time.Second
)

// Options tune the orchestrator. Zero values fall back to defaults.
type Options struct {
	// Concurrency bounds how many candidates are processed at once.
	Concurrency int
	// ExtractTimeout bounds one fact-extraction call.
	ExtractTimeout time.Duration
}

// Orchestrator drives end-to-end scans: pull documents, deduplicate, score,
// aggregate, rank, and record progress.
type Orchestrator struct {
	store          Store
	sources        []source.Source
	scorers        []scoring.CriterionScorer
	extractor      ai.Extractor
	logger         *zap.Logger
	concurrency    int
	extractTimeout time.Duration

	mu      sync.Mutex
	running map[string]*execution // keyed by user id
}

type execution struct {
	runID string
	done  chan struct{}
}

func New(store Store, sources []source.Source, scorers []scoring.CriterionScorer, extractor ai.Extractor, logger *zap.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	extractTimeout := opts.ExtractTimeout
	if extractTimeout <= 0 {
		extractTimeout = defaultExtractTimeout
	}

	return &Orchestrator{
		store:          store,
		sources:        sources,
		scorers:        scorers,
		extractor:      extractor,
		logger:         logger,
		concurrency:    concurrency,
		extractTimeout: extractTimeout,
		running:        make(map[string]*execution),
	}
}

// StartScan validates and persists the profile, then launches one scan run
// for its owner. It returns the run id immediately; progress is queryable
// through GetScanStatus while the run executes.
func (o *Orchestrator) StartScan(ctx context.Context, p *profile.Profile) (string, error) {
	if p == nil {
		return "", fmt.Errorf("profile is required")
	}

	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("invalid profile: %w", err)
	}

	if len(o.sources) == 0 {
		return "", fmt.Errorf("at least one document source is required")
	}

	if err := o.store.SaveProfile(ctx, p); err != nil {
		return "", fmt.Errorf("saving profile: %w", err)
	}

	o.mu.Lock()
	if _, busy := o.running[p.UserID]; busy {
		o.mu.Unlock()
		return "", ErrScanInProgress
	}

	run := &Run{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	exec := &execution{runID: run.ID, done: make(chan struct{})}
	o.running[p.UserID] = exec
	o.mu.Unlock()

	if err := o.store.CreateRun(ctx, run); err != nil {
		o.release(p.UserID, exec)
		return "", fmt.Errorf("creating scan run: %w", err)
	}

	snapshot := *p
	go o.execute(ctx, run, &snapshot, exec)

	return run.ID, nil
}

// Wait blocks until the given run reaches a terminal status. It returns
// immediately for unknown or already finished runs.
func (o *Orchestrator) Wait(runID string) {
	o.mu.Lock()
	var done chan struct{}
	for _, exec := range o.running {
		if exec.runID == runID {
			done = exec.done
			break
		}
	}
	o.mu.Unlock()

	if done != nil {
		<-done
	}
}

// GetScanStatus returns the run with its current counters.
func (o *Orchestrator) GetScanStatus(ctx context.Context, runID string) (*Run, error) {
	return o.store.GetRun(ctx, runID)
}

// GetRankedCandidates returns the run's shortlist ordered by final score
// descending, ties broken by earlier ingestion.
func (o *Orchestrator) GetRankedCandidates(ctx context.Context, runID string) ([]*candidate.Record, error) {
	if _, err := o.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	records, err := o.store.CandidatesByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	ranked := make([]*candidate.Record, 0, len(records))
	for _, rec := range records {
		if rec.Status == candidate.StatusRanked {
			ranked = append(ranked, rec)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].FinalScore != *ranked[j].FinalScore {
			return *ranked[i].FinalScore > *ranked[j].FinalScore
		}
		return ranked[i].IngestedAt.Before(ranked[j].IngestedAt)
	})

	return ranked, nil
}

func (o *Orchestrator) release(userID string, exec *execution) {
	o.mu.Lock()
	if current, ok := o.running[userID]; ok && current == exec {
		delete(o.running, userID)
	}
	o.mu.Unlock()
	close(exec.done)
}

// execute runs the pipeline and guarantees a terminal status even when the
// enclosing context is canceled mid-run.
func (o *Orchestrator) execute(ctx context.Context, run *Run, p *profile.Profile, exec *execution) {
	defer o.release(p.UserID, exec)

	err := o.pipeline(ctx, run, p)

	// Terminal writes must survive cancellation.
	terminalCtx := context.WithoutCancel(ctx)

	now := time.Now().UTC()
	run.CompletedAt = &now

	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		o.logger.Error("scan failed",
			zap.String("run_id", run.ID),
			zap.String("user", run.UserID),
			zap.Error(err),
		)
	} else {
		run.Status = StatusCompleted
		o.logger.Info("scan completed",
			zap.String("run_id", run.ID),
			zap.String("user", run.UserID),
			zap.Int("found", run.Counters.Found),
			zap.Int("processed", run.Counters.Processed),
			zap.Int("filtered", run.Counters.Filtered),
			zap.Int("scored", run.Counters.Scored),
			zap.Int("shortlisted", run.Counters.Shortlisted),
		)
	}

	if uerr := o.store.UpdateRun(terminalCtx, run); uerr != nil {
		o.logger.Error("recording terminal run status failed",
			zap.String("run_id", run.ID),
			zap.Error(uerr),
		)
	}
}

type unit struct {
	doc      source.Document
	srcType  source.Type
	dedupKey string
}

func (o *Orchestrator) pipeline(ctx context.Context, run *Run, p *profile.Profile) error {
	units, err := o.collectDocuments(ctx)
	if err != nil {
		return err
	}

	var mu sync.Mutex

	run.Counters.Found = len(units)
	if err := o.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("recording scan progress: %w", err)
	}

	o.logger.Info("documents collected",
		zap.String("run_id", run.ID),
		zap.Int("count", len(units)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, u := range units {
		g.Go(func() error {
			return o.processDocument(gctx, run, p, u, &mu)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return o.rank(ctx, run, p)
}

// collectDocuments pulls every configured source and deduplicates by
// resolved key. A source failure aborts the whole run.
func (o *Orchestrator) collectDocuments(ctx context.Context) ([]unit, error) {
	seen := make(map[string]bool)
	var units []unit

	for _, src := range o.sources {
		docs, err := src.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s documents: %w", src.Type(), err)
		}

		for _, doc := range docs {
			key, err := source.DedupKey(src.Type(), doc.Ref)
			if err != nil {
				o.logger.Warn("skipping document with unusable reference",
					zap.String("source", string(src.Type())),
					zap.String("file", doc.FileName),
					zap.Error(err),
				)
				continue
			}

			if seen[key] {
				continue
			}
			seen[key] = true

			units = append(units, unit{doc: doc, srcType: src.Type(), dedupKey: key})
		}
	}

	return units, nil
}

// processDocument ingests, filters and scores one candidate. Scoring
// failures stay local to the candidate; only persistence failures escalate.
func (o *Orchestrator) processDocument(ctx context.Context, run *Run, p *profile.Profile, u unit, mu *sync.Mutex) error {
	rec := &candidate.Record{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		RunID:      run.ID,
		DedupKey:   u.dedupKey,
		Source:     string(u.srcType),
		SourceRef:  u.doc.Ref,
		FileName:   u.doc.FileName,
		CVText:     sanitizeText(u.doc.Text),
		Status:     candidate.StatusPending,
		Weights:    p.Weights,
		IngestedAt: time.Now().UTC(),
	}

	existing, err := o.store.GetCandidate(ctx, p.UserID, u.dedupKey)
	if err != nil {
		return fmt.Errorf("looking up candidate %s: %w", u.dedupKey, err)
	}

	if existing != nil {
		// Re-ingestion updates the existing record. Identity and ingestion
		// time stay stable so ranking ties keep breaking the same way.
		rec.ID = existing.ID
		rec.IngestedAt = existing.IngestedAt
	}

	if err := o.store.UpsertCandidate(ctx, rec); err != nil {
		return fmt.Errorf("persisting candidate %s: %w", u.dedupKey, err)
	}

	o.extractFacts(ctx, rec)

	if passed, reasons := ranking.HardFilter(rec, p); !passed {
		now := time.Now().UTC()
		rec.Status = candidate.StatusFiltered
		rec.FilterReasons = reasons
		rec.ProcessedAt = &now

		if err := o.store.UpsertCandidate(ctx, rec); err != nil {
			return fmt.Errorf("persisting candidate %s: %w", u.dedupKey, err)
		}

		o.logger.Info("candidate filtered out",
			zap.String("run_id", run.ID),
			zap.String("file", rec.FileName),
			zap.Strings("reasons", reasons),
		)

		return o.bumpCounters(ctx, run, mu, func(c *Counters) {
			c.Processed++
			c.Filtered++
		})
	}

	scored := o.scoreCandidate(ctx, rec, p)

	now := time.Now().UTC()
	rec.Status = candidate.StatusScored
	rec.ProcessedAt = &now

	if err := o.store.UpsertCandidate(ctx, rec); err != nil {
		return fmt.Errorf("persisting candidate %s: %w", u.dedupKey, err)
	}

	return o.bumpCounters(ctx, run, mu, func(c *Counters) {
		c.Processed++
		if scored {
			c.Scored++
		}
	})
}

func (o *Orchestrator) extractFacts(ctx context.Context, rec *candidate.Record) {
	if o.extractor == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, o.extractTimeout)
	defer cancel()

	ext, err := o.extractor.Extract(ctx, rec.CVText)
	if err != nil {
		// Missing facts are not fatal: hard filters let unknowns through and
		// the criterion scorers read the raw text anyway.
		o.logger.Warn("fact extraction failed",
			zap.String("file", rec.FileName),
			zap.Error(err),
		)
		return
	}

	rec.FullName = ext.Name
	rec.Email = ext.Email
	rec.Phone = ext.Phone
	rec.Location = ext.Location
	rec.CurrentTitle = ext.CurrentTitle
	rec.EducationLevel = ext.EducationLevel
	rec.YearsOfExperience = ext.YearsOfExperience
	rec.Skills = ext.Skills
	rec.OverallAssessment = ext.Summary
}

// scoreCandidate fans the five criterion scorers out concurrently. They
// share no mutable state and only read the profile, so they are safe to run
// in parallel. Reports whether a final score was produced.
func (o *Orchestrator) scoreCandidate(ctx context.Context, rec *candidate.Record, p *profile.Profile) bool {
	results := make(map[candidate.Criterion]scoring.Result, len(o.scorers))

	var wg sync.WaitGroup
	var rmu sync.Mutex

	for _, scorer := range o.scorers {
		wg.Add(1)
		go func(scorer scoring.CriterionScorer) {
			defer wg.Done()
			res := scorer.Evaluate(ctx, rec.CVText, p)
			rmu.Lock()
			results[scorer.Criterion()] = res
			rmu.Unlock()
		}(scorer)
	}
	wg.Wait()

	flags := make(map[string]bool)
	for _, flag := range rec.RedFlags {
		flags[flag] = true
	}

	for criterion, res := range results {
		rec.SetResult(criterion, candidate.CriterionResult{
			Score:     res.Score,
			Reasoning: res.Reasoning,
		})
		for _, flag := range res.RedFlags {
			if !flags[flag] {
				flags[flag] = true
				rec.RedFlags = append(rec.RedFlags, flag)
			}
		}
	}

	final, ok := scoring.Aggregate(results, rec.Weights)
	if !ok {
		rec.FinalScore = nil
		rec.OverallAssessment = strings.TrimSpace(rec.OverallAssessment + "\nNo criterion produced a score; the candidate is unscorable.")
		return false
	}

	rec.FinalScore = &final
	return true
}

func (o *Orchestrator) bumpCounters(ctx context.Context, run *Run, mu *sync.Mutex, update func(*Counters)) error {
	mu.Lock()
	defer mu.Unlock()

	update(&run.Counters)
	if err := o.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("recording scan progress: %w", err)
	}
	return nil
}

// rank waits for nothing: it runs only after every in-flight candidate has
// settled, so the output depends on scores and ingestion order alone.
func (o *Orchestrator) rank(ctx context.Context, run *Run, p *profile.Profile) error {
	records, err := o.store.CandidatesByRun(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("loading candidates for ranking: %w", err)
	}

	ranked := ranking.Rank(records, p)
	for _, rec := range ranked {
		rec.Status = candidate.StatusRanked
		if err := o.store.UpsertCandidate(ctx, rec); err != nil {
			return fmt.Errorf("persisting ranked candidate %s: %w", rec.DedupKey, err)
		}
	}

	run.Counters.Shortlisted = len(ranked)
	if err := o.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("recording scan progress: %w", err)
	}

	return nil
}

// sanitizeText strips NUL bytes that PostgreSQL rejects in text columns.
func sanitizeText(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
