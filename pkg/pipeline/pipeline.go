// Package pipeline runs the three-stage credibility evaluation: preliminary
// screening, claim verification and context analysis, concurrently with
// per-stage timeouts. A failing or slow stage never fails the run; it is
// replaced by its documented simulated fallback at the stage boundary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veriscope/veriscope/internal/metrics"
	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/evaluation"
	"github.com/veriscope/veriscope/pkg/providers"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Fetcher retrieves a page snapshot for url-type items before the stages run.
type Fetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*Page, error)
}

// Page mirrors the snapshot shape fetchers produce.
type Page struct {
	Title   string
	Site    string
	Excerpt string
}

// excerptRunes caps the stored excerpt of analyzed content.
const excerptRunes = 200

// defaultStageTimeout bounds each stage when the config does not set one.
const defaultStageTimeout = 20 * time.Second

// Config holds everything a Runner needs.
type Config struct {
	Analyzer     providers.Analyzer
	Verifier     providers.Verifier
	Fetcher      Fetcher       // optional; url items are analyzed bare without it
	StageTimeout time.Duration // defaults to 20s if <= 0
	Log          Logger        // optional; nil = no logging
}

// Runner executes evaluations.
type Runner struct {
	analyzer providers.Analyzer
	verifier providers.Verifier
	fetcher  Fetcher
	timeout  time.Duration
	log      Logger
}

// New validates the config and builds a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("pipeline requires an analyzer")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("pipeline requires a verifier")
	}
	timeout := cfg.StageTimeout
	if timeout <= 0 {
		timeout = defaultStageTimeout
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Runner{
		analyzer: cfg.Analyzer,
		verifier: cfg.Verifier,
		fetcher:  cfg.Fetcher,
		timeout:  timeout,
		log:      log,
	}, nil
}

// Run evaluates one content item. A non-nil estimate grades the run and
// yields a discrepancy. The only errors returned are invalid input and a
// context that was already dead on entry; signal failures degrade instead.
func (r *Runner) Run(ctx context.Context, item evaluation.ContentItem, estimate *int) (*evaluation.FinalEvaluation, error) {
	if err := item.Validate(); err != nil {
		metrics.AnalysesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if estimate != nil {
		if err := evaluation.ValidateEstimate(*estimate); err != nil {
			metrics.AnalysesTotal.WithLabelValues("invalid").Inc()
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if item.Type == evaluation.TypeURL && r.fetcher != nil && item.Page == nil {
		r.prefetch(ctx, &item)
	}

	results := make([]evaluation.StageResult, 3)
	var wg sync.WaitGroup
	for i, stage := range evaluation.Stages() {
		wg.Add(1)
		go func(slot int, stage evaluation.Stage) {
			defer wg.Done()
			results[slot] = r.runStage(ctx, stage, item)
		}(i, stage)
	}
	wg.Wait()

	aggregate, err := evaluation.AggregateConfidence(results)
	if err != nil {
		// Unreachable with the fixed fan-out above.
		return nil, fmt.Errorf("aggregating stage results: %w", err)
	}

	eval := &evaluation.FinalEvaluation{
		ID:        uuid.NewString(),
		Type:      item.Type,
		Excerpt:   utils.Excerpt(item.Payload, excerptRunes),
		Results:   results,
		Aggregate: aggregate,
		Verdict:   evaluation.VerdictFor(aggregate),
		CreatedAt: time.Now().UTC(),
	}
	for _, res := range results {
		if res.Simulated {
			eval.Degraded = append(eval.Degraded, string(res.Stage))
		}
	}

	if estimate != nil {
		est := *estimate
		d := evaluation.Discrepancy(aggregate, est)
		eval.UserEstimate = &est
		eval.Discrepancy = &d
		eval.Feedback = evaluation.FeedbackFor(d)
	}

	outcome := "ok"
	if len(eval.Degraded) > 0 {
		outcome = "degraded"
	}
	metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	r.log.Debugf("evaluation %s: aggregate %d (%d degraded stage(s))", eval.ID, eval.Aggregate, len(eval.Degraded))

	return eval, nil
}

// prefetch attaches a page snapshot to a url item. Best effort: on failure
// the stages analyze the bare URL.
func (r *Runner) prefetch(ctx context.Context, item *evaluation.ContentItem) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := r.fetcher.FetchPage(fetchCtx, item.Payload)
	if err != nil {
		r.log.Warnf("page fetch failed for %s: %v", item.Payload, err)
		return
	}
	item.Page = &evaluation.Page{Title: page.Title, Site: page.Site, Excerpt: page.Excerpt}
}

// runStage executes one stage under its deadline. The returned result is
// the port's answer or, on failure or timeout, the stage's fallback.
func (r *Runner) runStage(ctx context.Context, stage evaluation.Stage, item evaluation.ContentItem) evaluation.StageResult {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		result evaluation.StageResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.callPort(stageCtx, stage, item)
		done <- outcome{result: res, err: err}
	}()

	var result evaluation.StageResult
	select {
	case out := <-done:
		if out.err != nil {
			r.log.Warnf("%s stage degraded: %v", stage, out.err)
			result = fallbackFor(stage, item)
		} else {
			result = out.result
		}
	case <-stageCtx.Done():
		r.log.Warnf("%s stage timed out after %s", stage, r.timeout)
		result = fallbackFor(stage, item)
	}

	result.Stage = stage
	result.Elapsed = time.Since(start)
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(result.Elapsed.Seconds())
	if result.Simulated {
		metrics.StageDegraded.WithLabelValues(string(stage)).Inc()
	}
	return result
}

func (r *Runner) callPort(ctx context.Context, stage evaluation.Stage, item evaluation.ContentItem) (evaluation.StageResult, error) {
	switch stage {
	case evaluation.StageVerification:
		verification, err := r.verifier.Verify(ctx, claimsFrom(item))
		if err != nil {
			return evaluation.StageResult{}, err
		}
		return verificationResult(verification), nil
	case evaluation.StageContext:
		analysis, err := r.analyzer.Analyze(ctx, providers.Request{Aspect: providers.AspectContext, Item: item})
		if err != nil {
			return evaluation.StageResult{}, err
		}
		return analysisResult(analysis), nil
	default:
		analysis, err := r.analyzer.Analyze(ctx, providers.Request{Aspect: providers.AspectPreliminary, Item: item})
		if err != nil {
			return evaluation.StageResult{}, err
		}
		return analysisResult(analysis), nil
	}
}

// claimsFrom extracts what the verifier searches for: the fetched page
// title when available, otherwise the leading slice of the payload.
func claimsFrom(item evaluation.ContentItem) []string {
	if item.Page != nil && item.Page.Title != "" {
		return []string{item.Page.Title}
	}
	return []string{utils.FirstRunes(utils.CollapseSpaces(item.Payload), 100)}
}

func analysisResult(a providers.Analysis) evaluation.StageResult {
	return evaluation.StageResult{
		Confidence: a.Confidence,
		Summary:    a.Summary,
		Evidence:   a.Evidence,
		Criteria:   a.Criteria,
		Sentiment:  a.Sentiment,
		Temporal:   a.Temporal,
		Simulated:  a.Simulated,
	}
}

func verificationResult(v providers.Verification) evaluation.StageResult {
	return evaluation.StageResult{
		Confidence: v.Confidence,
		Summary:    v.Summary,
		Evidence:   v.Evidence,
		Claims:     v.Claims,
		Simulated:  v.Simulated,
	}
}

func fallbackFor(stage evaluation.Stage, item evaluation.ContentItem) evaluation.StageResult {
	switch stage {
	case evaluation.StageVerification:
		return verificationResult(providers.SimulatedVerification(claimsFrom(item)))
	case evaluation.StageContext:
		return analysisResult(providers.SimulatedAnalysis(providers.AspectContext))
	default:
		return analysisResult(providers.SimulatedAnalysis(providers.AspectPreliminary))
	}
}
