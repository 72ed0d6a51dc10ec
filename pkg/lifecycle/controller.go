package lifecycle

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/errors"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/observability"
	"github.com/matzehuels/depview/pkg/repo"
)

// Analyzer performs one analysis call. [*analysis.Client] implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Sink applies effects to a user interface.
type Sink interface {
	Apply(Effect)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Effect)

// Apply calls f(e).
func (f SinkFunc) Apply(e Effect) { f(e) }

// Controller owns the lifecycle state of one session. Its methods are safe
// for concurrent use, although shells normally call them from one event loop.
type Controller struct {
	analyzer Analyzer
	labels   i18n.Labeler
	logger   *log.Logger
	newID    func() string

	mu       sync.Mutex
	state    State
	inflight analysis.Request
	started  time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger transitions and calls are reported to.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithIDGenerator replaces the correlation ID source.
func WithIDGenerator(f func() string) Option {
	return func(c *Controller) { c.newID = f }
}

// NewController creates a controller in the idle phase. Labels are resolved
// through labels at the time each banner is produced.
func NewController(a Analyzer, labels i18n.Labeler, opts ...Option) *Controller {
	c := &Controller{
		analyzer: a,
		labels:   labels,
		logger:   log.New(io.Discard),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit starts an attempt for raw. It validates the input synchronously and
// returns every effect produced up to and including the Dispatch. While a
// call is in flight the submission is ignored and Submit returns nil.
func (c *Controller) Submit(ctx context.Context, raw string) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.TriggerEnabled() {
		observability.Lifecycle().OnSuppressed(ctx)
		c.logger.Debug("submit ignored, analysis in flight", "repo", c.state.Ref)
		return nil
	}

	out := c.step(ctx, Submitted{Raw: raw})
	var next Event
	for _, e := range out {
		if v, ok := e.(Validate); ok {
			next = parse(v.Raw)
		}
	}
	if next != nil {
		out = append(out, c.step(ctx, next)...)
	}

	for i, e := range out {
		d, ok := e.(Dispatch)
		if !ok {
			continue
		}
		d.Request.ID = c.newID()
		out[i] = d
		c.inflight = d.Request
		c.started = time.Now()
		observability.Lifecycle().OnDispatch(ctx, d.Request.ID, c.state.Ref.String())
		c.logger.Info("analyzing", "repo", c.state.Ref, "request_id", d.Request.ID)
	}
	return out
}

func parse(raw string) Event {
	ref, err := repo.Parse(raw)
	if err != nil {
		return ParseFailed{Err: err}
	}
	return Parsed{Ref: ref}
}

// Call performs the analysis call for req and returns its outcome as a
// Resolved or Rejected event. It does not touch the state; feed the event to
// [Controller.Handle].
func (c *Controller) Call(ctx context.Context, req analysis.Request) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			ev = Rejected{Err: errors.New(errors.ErrCodeInternal, "analysis panicked: %v", r)}
		}
	}()

	res, err := c.analyzer.Analyze(ctx, req)
	switch {
	case err != nil:
		return Rejected{Err: err}
	case res == nil:
		return Rejected{Err: errors.New(errors.ErrCodeTransport, "analysis returned no result")}
	default:
		return Resolved{Result: res}
	}
}

// Handle applies a resolution event and returns the resulting effects.
func (c *Controller) Handle(ctx context.Context, ev Event) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	effects := c.step(ctx, ev)
	if effects == nil {
		return nil
	}

	var err error
	if r, ok := ev.(Rejected); ok {
		err = r.Err
	}
	elapsed := time.Since(c.started)
	observability.Lifecycle().OnResolve(ctx, c.inflight.ID, elapsed, err)
	if err != nil {
		c.logger.Warn("analysis failed", "repo", c.state.Ref, "request_id", c.inflight.ID,
			"kind", errors.Kind(err), "err", err)
	} else {
		c.logger.Info("analysis complete", "repo", c.state.Ref, "request_id", c.inflight.ID,
			"elapsed", elapsed.Round(time.Millisecond))
	}
	c.inflight = analysis.Request{}
	return effects
}

// Run drives a whole attempt sequentially, applying every effect to sink in
// order, and returns the final state.
func (c *Controller) Run(ctx context.Context, raw string, sink Sink) State {
	effects := c.Submit(ctx, raw)
	for _, e := range effects {
		sink.Apply(e)
	}
	for _, e := range effects {
		if d, ok := e.(Dispatch); ok {
			for _, e := range c.Handle(ctx, c.Call(ctx, d.Request)) {
				sink.Apply(e)
			}
		}
	}
	return c.State()
}

// step runs one transition and reports a phase change.
func (c *Controller) step(ctx context.Context, ev Event) []Effect {
	from := c.state.Phase
	var effects []Effect
	c.state, effects = Transition(c.state, ev, c.labels)
	if to := c.state.Phase; to != from {
		observability.Lifecycle().OnTransition(ctx, from.String(), to.String())
		c.logger.Debug("transition", "from", from, "to", to, "event", fmt.Sprintf("%T", ev))
	}
	return effects
}
