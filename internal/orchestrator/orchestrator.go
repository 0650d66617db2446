// Package orchestrator drives the plan, collect and finalize phases of a
// context merge session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/ctxmerge/internal/collectors"
	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/provider"
)

const (
	DefaultMaxConcurrency   = 4
	DefaultCollectorTimeout = 20 * time.Second
	DefaultCollectDeadline  = 60 * time.Second
	DefaultPlanTimeout      = 60 * time.Second
	DefaultFinalizeTimeout  = 90 * time.Second

	noContext        = "[no context available]"
	finalizeFraction = 0.9
)

var tracer trace.Tracer = otel.Tracer("ctxmerge/internal/orchestrator")

// Config tunes the phases.
type Config struct {
	TokenBudget      int
	MaxConcurrency   int
	CollectorTimeout time.Duration
	CollectDeadline  time.Duration
	PlanTimeout      time.Duration
	FinalizeTimeout  time.Duration
	Weights          merger.CategoryWeights
}

func (c Config) normalized() Config {
	if c.TokenBudget <= 0 {
		c.TokenBudget = merger.DefaultTokenBudget
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.CollectorTimeout <= 0 {
		c.CollectorTimeout = DefaultCollectorTimeout
	}
	if c.CollectDeadline <= 0 {
		c.CollectDeadline = DefaultCollectDeadline
	}
	if c.PlanTimeout <= 0 {
		c.PlanTimeout = DefaultPlanTimeout
	}
	if c.FinalizeTimeout <= 0 {
		c.FinalizeTimeout = DefaultFinalizeTimeout
	}
	if c.Weights == nil {
		c.Weights = merger.DefaultCategoryWeights()
	}
	return c
}

// Orchestrator is shared by all sessions; it holds no per-session state.
type Orchestrator struct {
	cfg      Config
	gen      provider.Generator
	registry collectors.Registry
	deps     collectors.Deps
	counter  merger.TokenCounter
	logger   *zap.Logger
}

type Option func(*Orchestrator)

// WithTokenCounter sets the counter used for the bundle token metric.
func WithTokenCounter(c merger.TokenCounter) Option {
	return func(o *Orchestrator) { o.counter = c }
}

// WithRegistry replaces the built-in collector registry.
func WithRegistry(r collectors.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

func New(cfg Config, gen provider.Generator, deps collectors.Deps, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg.normalized(),
		gen:      gen,
		registry: collectors.NewRegistry(),
		deps:     deps,
		counter:  merger.EstimateCounter{},
		logger:   logger.Named("orchestrator"),
	}
	if o.deps.Logger == nil {
		o.deps.Logger = logger.Named("collectors")
	}
	for _, opt := range opts {
		opt(o)
	}
	metricsOnce.Do(func() { initMetrics(o.logger) })
	return o
}

func (o *Orchestrator) budget(req Request) int {
	if req.TokenBudget > 0 {
		return req.TokenBudget
	}
	return o.cfg.TokenBudget
}

func (o *Orchestrator) generate(ctx context.Context, timeout time.Duration, prompt string) (string, error) {
	if o.gen == nil {
		return "", provider.ErrMissingAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return o.gen.Generate(ctx, prompt)
}

// Plan proposes sources and asks the model for a gathering plan. It fetches
// no data.
func (o *Orchestrator) Plan(ctx context.Context, s *Session) (res PlanResult) {
	ctx, span := tracer.Start(ctx, "merger.plan")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	suggestions := SuggestSources(s.Request)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("plan panicked", zap.String("session", s.ID), zap.Any("panic", r))
			span.SetStatus(codes.Error, "panic")
			res = PlanResult{Plan: map[string]any{"error": fmt.Sprint(r)}, ProposedSources: suggestions, Status: StateNeedsConfirmation}
			s.plan, s.state = &res, StateNeedsConfirmation
		}
	}()

	var plan map[string]any
	raw, err := o.generate(ctx, o.cfg.PlanTimeout, planPrompt(s.Request, suggestions))
	if err != nil {
		o.logger.Warn("plan generation failed", zap.String("session", s.ID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		plan = map[string]any{"error": err.Error()}
	} else {
		plan = helpers.LenientParse(raw)
		if helpers.IsRawResponse(plan) {
			o.logger.Warn("plan reply was not JSON", zap.String("session", s.ID))
		}
	}

	res = PlanResult{Plan: plan, ProposedSources: suggestions, Status: StateNeedsConfirmation}
	s.plan, s.state = &res, StateNeedsConfirmation
	span.SetAttributes(attribute.Int("sources.proposed", len(suggestions)))
	return res
}

// Collect runs the confirmed collectors and ranks their chunks. A nil
// selected keeps the earlier choice, falling back to the plan defaults.
func (o *Orchestrator) Collect(ctx context.Context, s *Session, selected []string, params map[string]map[string]any) (res CollectResult) {
	ctx, span := tracer.Start(ctx, "merger.collect")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("collect panicked", zap.String("session", s.ID), zap.Any("panic", r))
			span.SetStatus(codes.Error, "panic")
			res = CollectResult{MergedContext: fmt.Sprintf("[error: %v]", r)}
		}
	}()

	if selected != nil {
		s.selected = selected
	}
	if params != nil {
		s.params = params
	}
	if len(s.selected) == 0 {
		if s.plan != nil {
			s.selected = defaultIDs(s.plan.ProposedSources)
		} else {
			s.selected = defaultIDs(SuggestSources(s.Request))
		}
	}

	built := o.instantiate(s)
	span.SetAttributes(attribute.Int("collectors", len(built)))
	chunks := o.fanOut(ctx, built)

	scorer := merger.NewScorer(merger.ExtractKeywords(s.Request.Query, s.Request.Fields), o.cfg.Weights)
	sel := merger.Rank(chunks, scorer, o.budget(s.Request))
	s.merged = sel.Merged
	s.provenance = merger.ProvenanceOf(sel.Selected)
	s.state = StateCollected
	recordSelection(ctx, len(sel.Selected), o.counter.Count(sel.Merged))

	o.logger.Info("collected context",
		zap.String("session", s.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("selected", len(sel.Selected)),
		zap.Bool("fallback", sel.Fallback),
	)
	merged := sel.Merged
	if merged == "" {
		merged = noContext
	}
	return CollectResult{MergedContext: merged, Provenance: append([]merger.Provenance(nil), s.provenance...)}
}

// instantiate builds one collector per known, distinct id. Unknown ids are
// skipped; a params decoding failure becomes an error chunk collector.
func (o *Orchestrator) instantiate(s *Session) []collectors.Collector {
	req := s.Request
	base := map[string]any{
		collectors.SessionQueryKey: req.Query,
		"customer_id":              req.CustomerID,
		"url":                      req.URL,
		"document_path":            req.DocumentPath,
	}
	seen := map[collectors.SourceID]bool{}
	var out []collectors.Collector
	for _, raw := range s.selected {
		id, ok := collectors.ParseSourceID(raw)
		if !ok {
			o.logger.Warn("skipping unknown source", zap.String("session", s.ID), zap.String("source", raw))
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		bag := collectors.Merge(base, req.Fields, s.params[raw], s.params[string(id)])
		c, err := o.registry.Build(id, o.deps, bag)
		if err != nil {
			o.logger.Warn("collector setup failed", zap.String("source", string(id)), zap.Error(err))
			c = brokenCollector{id: id, err: err}
		}
		out = append(out, c)
	}
	return out
}

// fanOut runs collectors concurrently and fans results back in by slot.
func (o *Orchestrator) fanOut(ctx context.Context, cs []collectors.Collector) []merger.ContextChunk {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.CollectDeadline)
	defer cancel()

	slots := make([][]merger.ContextChunk, len(cs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrency)
	for i, c := range cs {
		g.Go(func() error {
			slots[i] = o.runOne(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	var out []merger.ContextChunk
	for _, chunks := range slots {
		out = append(out, chunks...)
	}
	return out
}

func (o *Orchestrator) runOne(ctx context.Context, c collectors.Collector) []merger.ContextChunk {
	id := c.ID()
	ctx, span := tracer.Start(ctx, "merger.collector", trace.WithAttributes(attribute.String("source.id", string(id))))
	defer span.End()
	start := time.Now()

	chunks := o.await(ctx, c)

	errs := 0
	for _, ch := range chunks {
		if ch.IsError() {
			errs++
		}
	}
	if errs > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d error chunks", errs))
	}
	took := time.Since(start)
	recordCollector(ctx, id, took, len(chunks), errs)
	o.logger.Debug("collector finished",
		zap.String("source", string(id)),
		zap.Duration("took", took),
		zap.Int("chunks", len(chunks)),
		zap.Int("errors", errs),
	)
	return chunks
}

// await runs one collector under its own timeout, bounded by the collect
// deadline. A collector that ignores its context is abandoned.
func (o *Orchestrator) await(ctx context.Context, c collectors.Collector) []merger.ContextChunk {
	id := c.ID()
	if ctx.Err() != nil {
		return []merger.ContextChunk{timeoutChunk(id)}
	}
	cctx, cancel := context.WithTimeout(ctx, o.cfg.CollectorTimeout)
	defer cancel()

	done := make(chan []merger.ContextChunk, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("collector panicked", zap.String("source", string(id)), zap.Any("panic", r))
				done <- []merger.ContextChunk{merger.ErrorChunk(string(id), categoryOf(id),
					fmt.Sprintf("[error: %s collector failed: %v]", id, r), nil)}
			}
		}()
		done <- c.Collect(cctx)
	}()

	select {
	case chunks := <-done:
		return chunks
	case <-cctx.Done():
		select {
		case chunks := <-done:
			return chunks
		default:
		}
		o.logger.Warn("collector timed out", zap.String("source", string(id)))
		if ctx.Err() == nil {
			return []merger.ContextChunk{merger.ErrorChunk(string(id), categoryOf(id),
				fmt.Sprintf("[timeout: %s exceeded its %s limit]", id, o.cfg.CollectorTimeout), nil)}
		}
		return []merger.ContextChunk{timeoutChunk(id)}
	}
}

func timeoutChunk(id collectors.SourceID) merger.ContextChunk {
	return merger.ErrorChunk(string(id), categoryOf(id),
		fmt.Sprintf("[timeout: %s did not finish before the collection deadline]", id), nil)
}

// categoryOf maps a source id to its chunk category. Only memory differs.
func categoryOf(id collectors.SourceID) merger.Category {
	if id == collectors.SourceMemory {
		return merger.CategoryCustomer
	}
	return merger.Category(id)
}

type brokenCollector struct {
	id  collectors.SourceID
	err error
}

func (b brokenCollector) ID() collectors.SourceID { return b.id }

func (b brokenCollector) Collect(context.Context) []merger.ContextChunk {
	return []merger.ContextChunk{merger.ErrorChunk(string(b.id), categoryOf(b.id), fmt.Sprintf("[error: %v]", b.err), nil)}
}

var errRawFinalize = errors.New("finalize reply was not a JSON object")

// Finalize condenses the collected text into the bundle. Generation failures
// degrade to a finalization_failed bundle carrying the truncated text.
func (o *Orchestrator) Finalize(ctx context.Context, s *Session) (b Bundle) {
	ctx, span := tracer.Start(ctx, "merger.finalize")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	budget := o.budget(s.Request)
	truncated := merger.TruncateToBudget(s.merged, int(float64(budget)*finalizeFraction))
	failed := func(err error) Bundle {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Warn("finalize failed", zap.String("session", s.ID), zap.Error(err))
		s.state = StateFinalizationFailed
		return Bundle{
			MergedContext:   truncated,
			Task:            s.Request.Task,
			Status:          StateFinalizationFailed,
			Error:           err.Error(),
			Provenance:      s.provenance,
			SelectedSources: s.selected,
		}
	}
	defer func() {
		if r := recover(); r != nil {
			b = failed(fmt.Errorf("panic: %v", r))
		}
	}()

	raw, err := o.generate(ctx, o.cfg.FinalizeTimeout, finalizePrompt(s.Request, truncated))
	if err != nil {
		return failed(err)
	}
	parsed := helpers.LenientParse(raw)
	if helpers.IsRawResponse(parsed) {
		return failed(errRawFinalize)
	}

	merged := firstNonEmpty(stringField(parsed, "final_context_summary"), stringField(parsed, "merged_context"), s.merged)
	if merged == "" {
		merged = merger.TruncateToBudget(s.merged, budget)
	}
	fields, _ := parsed["field_suggestions"].(map[string]any)
	if fields == nil {
		fields = map[string]any{}
	}
	s.state = StateFinalized
	return Bundle{
		MergedContext:   merged,
		Fields:          fields,
		Task:            s.Request.Task,
		Status:          StateFinalized,
		Provenance:      s.provenance,
		SelectedSources: s.selected,
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
