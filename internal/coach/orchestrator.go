package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/insight"
	"github.com/MrWong99/podium/internal/observe"
	"github.com/MrWong99/podium/internal/pose"
	"github.com/MrWong99/podium/internal/resilience"
	"github.com/MrWong99/podium/pkg/provider/llm"
)

// defaultTimeout bounds every provider call of a tier.
const defaultTimeout = 30 * time.Second

// Assessor is the provider scoring and synthesis surface of a tier.
// [*insight.Analyzer] implements it.
type Assessor interface {
	Analyze(ctx context.Context, req insight.Request) (insight.Assessment, error)
	Synthesize(ctx context.Context, scores insight.Scores) (insight.Synthesis, error)
}

var _ Assessor = (*insight.Analyzer)(nil)

// Tier is one AI provider level of the state machine.
type Tier struct {
	// Name labels logs, metrics and the breaker.
	Name string
	// Insight feeds the language analyzer. May be nil.
	Insight analysis.InsightProvider
	// Assessor produces the structure, confidence and body-language
	// assessment. Its errors decide the next state.
	Assessor Assessor

	breaker *resilience.CircuitBreaker
}

// NewTier builds a tier whose language scoring and assessment both run on p.
func NewTier(name string, p llm.Provider, opts ...insight.Option) *Tier {
	return &Tier{
		Name:     name,
		Insight:  insight.NewScorer(p, opts...),
		Assessor: insight.NewAnalyzer(p, opts...),
	}
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithPrimary sets the primary tier.
func WithPrimary(t *Tier) Option {
	return func(o *Orchestrator) { o.primary = t }
}

// WithSecondary sets the secondary tier.
func WithSecondary(t *Tier) Option {
	return func(o *Orchestrator) { o.secondary = t }
}

// WithTimeout bounds each tier's provider calls. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMetrics records analysis outcomes and breaker transitions on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithBreakerConfig sets the breaker tuning for every tier. Name and
// OnStateChange are overwritten per tier.
func WithBreakerConfig(cfg resilience.CircuitBreakerConfig) Option {
	return func(o *Orchestrator) { o.breakerCfg = cfg }
}

// Orchestrator runs the provider state machine. It is safe for concurrent
// use.
type Orchestrator struct {
	primary    *Tier
	secondary  *Tier
	timeout    time.Duration
	metrics    *observe.Metrics
	breakerCfg resilience.CircuitBreakerConfig
}

// New creates an Orchestrator. Without tiers every request is served by the
// local analyzer.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{timeout: defaultTimeout}
	for _, fn := range opts {
		fn(o)
	}
	for _, t := range []*Tier{o.primary, o.secondary} {
		if t == nil || t.breaker != nil {
			continue
		}
		cfg := o.breakerCfg
		cfg.Name = "coach/" + t.Name
		cfg.OnStateChange = o.onBreakerChange
		t.breaker = resilience.NewCircuitBreaker(cfg)
	}
	return o
}

func (o *Orchestrator) onBreakerChange(name string, from, to resilience.State) {
	slog.Warn("provider breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
	if o.metrics != nil {
		o.metrics.RecordBreakerTransition(context.Background(), name, to.String())
	}
}

// errProvidersDown reports that every configured tier's breaker is open.
var errProvidersDown = errors.New("coach: all provider breakers open")

// CheckProviders reports whether at least one configured tier can take
// calls. With no tiers configured it always succeeds since the local
// analyzer never fails. It is meant as an optional readiness check.
func (o *Orchestrator) CheckProviders(context.Context) error {
	var configured, open int
	for _, t := range []*Tier{o.primary, o.secondary} {
		if t == nil {
			continue
		}
		configured++
		if t.breaker.State() == resilience.StateOpen {
			open++
		}
	}
	if configured > 0 && open == configured {
		return errProvidersDown
	}
	return nil
}

// Analyze scores one speech.
//
// Invalid input returns [ErrInvalidInput] before any analyzer runs. A blank
// transcript returns [EmptyAnalysis]. A request that ends in the failed
// state returns [FailedAnalysis] together with an error wrapping
// [ErrAnalysisFailed]; callers may serve the result as-is.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (CompositeAnalysis, error) {
	if err := validate(req); err != nil {
		return CompositeAnalysis{}, err
	}
	if analysis.IsBlank(req.Transcript) {
		return EmptyAnalysis(), nil
	}

	ctx, span := observe.StartSpan(ctx, "coach.Analyze")
	start := time.Now()
	// Pose evaluation joins the fan-out of the first tier that runs and is
	// shared by every later one.
	body := sync.OnceValue(func() *pose.Metrics { return evaluatePose(req.Pose) })

	var (
		res     CompositeAnalysis
		lastErr error
	)
	state := StatePrimary
	for !state.Terminal() {
		var err error
		switch state {
		case StatePrimary, StateSecondary:
			tier, tag := o.primary, ProviderPrimary
			if state == StateSecondary {
				tier, tag = o.secondary, ProviderSecondary
			}
			if tier == nil {
				state = skip(state)
				continue
			}
			res, err = o.runTier(ctx, tier, tag, req, body)
			if err != nil {
				lastErr = err
				slog.Warn("analysis tier failed", "tier", tier.Name, "state", state.String(), "kind", errorKind(err), "err", err)
				o.recordError(ctx, tier.Name, err)
			}
		case StateLocal:
			res = composeLocal(analysis.Transcript{Text: req.Transcript, Duration: req.Duration}, body())
		}
		state = next(ctx, state, err)
	}

	if state == StateFailed {
		o.record(ctx, "", "failed", start)
		err := fmt.Errorf("%w: %w", ErrAnalysisFailed, lastErr)
		observe.EndSpan(span, err)
		return FailedAnalysis(), err
	}
	o.record(ctx, res.Provider, "ok", start)
	span.SetAttributes(observe.Attr("podium.provider", res.Provider))
	observe.EndSpan(span, nil)
	return res, nil
}

// skip moves past an unconfigured tier.
func skip(s State) State {
	if s == StatePrimary {
		return StateSecondary
	}
	return StateLocal
}

// runTier fans out the analyzers of one AI tier. Only the assessor call can
// fail the tier.
func (o *Orchestrator) runTier(ctx context.Context, t *Tier, tag string, req Request, body func() *pose.Metrics) (CompositeAnalysis, error) {
	ctx, span := observe.StartSpan(ctx, "coach.tier "+t.Name)
	tctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var in tierInputs
	transcript := analysis.Transcript{Text: req.Transcript, Duration: req.Duration}
	lang := analysis.NewLanguageAnalyzer(t.Insight)

	g, gctx := errgroup.WithContext(tctx)

	g.Go(func() error {
		in.language = guard("language", analysis.EmptyLanguageResult(), func() analysis.LanguageResult {
			return lang.Analyze(gctx, req.Transcript, req.Duration)
		})
		return nil
	})
	g.Go(func() error {
		in.structure = guard("structure", analysis.StructureMetrics{}, func() analysis.StructureMetrics {
			return analysis.AnalyzeStructure(analysis.SplitSentences(req.Transcript))
		})
		return nil
	})
	g.Go(func() error {
		in.confidence = guard("confidence", analysis.ConfidenceResult{Score: neutralScore, SubScores: map[string]int{}}, func() analysis.ConfidenceResult {
			return analysis.AnalyzeConfidence(transcript)
		})
		return nil
	})
	g.Go(func() error {
		in.body = body()
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		// The prompt carries the body measurements, so this waits for them.
		measured := body()
		a, err := callGuarded(func() (insight.Assessment, error) {
			var a insight.Assessment
			err := t.breaker.Execute(func() error {
				var err error
				a, err = t.Assessor.Analyze(gctx, insight.Request{
					Transcript: req.Transcript,
					Duration:   req.Duration,
					Body:       measured,
				})
				return err
			})
			return a, err
		})
		o.recordRequest(ctx, t.Name, err, time.Since(start))
		if err != nil {
			return fmt.Errorf("coach: %s: %w", t.Name, err)
		}
		in.assessment = a
		return nil
	})

	if err := g.Wait(); err != nil {
		observe.EndSpan(span, err)
		return CompositeAnalysis{}, err
	}

	res := o.synthesize(ctx, t, composeAI(in, tag))
	observe.EndSpan(span, nil)
	return res, nil
}

// validate rejects requests before any analyzer runs.
func validate(req Request) error {
	d := req.Duration
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of seconds", ErrInvalidInput)
	}
	return nil
}

// evaluatePose turns the optional pose payload into metrics. A malformed
// payload counts as absent.
func evaluatePose(d *pose.Data) *pose.Metrics {
	m := guard("body", (*pose.Metrics)(nil), func() *pose.Metrics {
		m, ok := d.Evaluate()
		if !ok {
			return nil
		}
		return &m
	})
	return m
}

// guard runs fn and returns def if it panics.
func guard[T any](name string, def T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("analyzer panicked, using default", "analyzer", name, "panic", r)
			out = def
		}
	}()
	return fn()
}

// callGuarded runs fn and converts a panic into an error.
func callGuarded[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("coach: provider panicked: %v", r)
		}
	}()
	return fn()
}

func (o *Orchestrator) recordRequest(ctx context.Context, provider string, err error, d time.Duration) {
	if o.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = errorKind(err)
	}
	o.metrics.RecordProviderRequest(ctx, provider, "llm", status, d)
}

func (o *Orchestrator) recordError(ctx context.Context, provider string, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordProviderError(ctx, provider, errorKind(err))
}

func (o *Orchestrator) record(ctx context.Context, provider, outcome string, start time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordAnalysis(ctx, provider, outcome, time.Since(start))
}
