// Package engine routes playground action requests to the right
// simulator and packages the uniform response the UI consumes.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/patternlab/patternlab/internal/errors"
	"github.com/patternlab/patternlab/internal/logging"
	"github.com/patternlab/patternlab/internal/registry"
	"github.com/patternlab/patternlab/internal/session"
	"github.com/patternlab/patternlab/internal/simulator"
)

// Request is one action invocation from the UI.
type Request struct {
	Category  string           `json:"category"`
	Slug      string           `json:"slug"`
	Action    string           `json:"action"`
	Params    simulator.Params `json:"params"`
	SessionID string           `json:"sessionId"`
}

// Response is the uniform dispatch result. Logs is always present, so
// the UI can render a trace even when the action failed. Status is the
// HTTP status the transport should answer with; it never serializes.
type Response struct {
	Success       bool                     `json:"success"`
	Result        interface{}              `json:"result,omitempty"`
	Error         string                   `json:"error,omitempty"`
	Logs          []simulator.LogEntry     `json:"logs"`
	Steps         []registry.ExecutionStep `json:"steps"`
	Duration      int64                    `json:"duration"`
	Visualization interface{}              `json:"visualizationData,omitempty"`

	Status int `json:"-"`
}

// Event describes a completed dispatch for observers (the websocket
// hub broadcasts these to connected UIs).
type Event struct {
	Category string `json:"category"`
	Slug     string `json:"slug"`
	Action   string `json:"action"`
	Success  bool   `json:"success"`
	Duration int64  `json:"duration"`
}

// Dispatcher resolves patterns, touches sessions, and runs simulators.
type Dispatcher struct {
	registry *registry.PatternRegistry
	sessions *session.Store
	logger   logging.Logger
	clock    func() time.Time
	observer func(Event)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock injects a time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// WithObserver registers a callback invoked after every dispatch.
func WithObserver(fn func(Event)) Option {
	return func(d *Dispatcher) { d.observer = fn }
}

// NewDispatcher creates a dispatcher over the given catalog and
// session store.
func NewDispatcher(reg *registry.PatternRegistry, sessions *session.Store, logger logging.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		sessions: sessions,
		logger:   logger.WithComponent("dispatcher"),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs one action request to completion. It never panics:
// simulator panics are recovered at this boundary and converted to a
// generic internal error.
func (d *Dispatcher) Execute(ctx context.Context, req Request) *Response {
	start := d.clock()
	resp := d.execute(ctx, req, start)
	resp.Duration = d.clock().Sub(start).Milliseconds()
	if resp.Logs == nil {
		resp.Logs = []simulator.LogEntry{}
	}
	if resp.Steps == nil {
		resp.Steps = []registry.ExecutionStep{}
	}

	if d.observer != nil {
		d.observer(Event{
			Category: req.Category,
			Slug:     req.Slug,
			Action:   req.Action,
			Success:  resp.Success,
			Duration: resp.Duration,
		})
	}
	return resp
}

func (d *Dispatcher) execute(ctx context.Context, req Request, now time.Time) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, fmt.Errorf("panic: %v", r), "dispatch panicked",
				"category", req.Category, "slug", req.Slug, "action", req.Action,
				"stack", string(debug.Stack()))
			resp = &Response{
				Success: false,
				Error:   "Internal server error",
				Status:  http.StatusInternalServerError,
			}
		}
	}()

	if req.Category == "" || req.Slug == "" || req.Action == "" || req.SessionID == "" {
		return &Response{
			Success: false,
			Error:   errors.ErrMissingFields().Message,
			Status:  http.StatusBadRequest,
		}
	}

	pattern, ok := d.registry.Get(req.Category, req.Slug)
	if !ok {
		return &Response{
			Success: false,
			Error:   errors.ErrPatternNotFound(req.Category, req.Slug).Message,
			Status:  http.StatusNotFound,
		}
	}

	sess := d.sessions.Touch(req.SessionID)

	params := req.Params
	if params == nil {
		params = simulator.Params{}
	}

	outcome, err := sess.Exec(pattern.Kind, req.Action, params, now)
	if outcome == nil && err == nil {
		// The catalog names a kind the factory does not know. A config
		// overlay cannot cause this, so treat it as internal.
		d.logger.Error(ctx, nil, "pattern maps to unknown simulator kind",
			"pattern", pattern.Key(), "kind", string(pattern.Kind))
		return &Response{
			Success: false,
			Error:   "Internal server error",
			Status:  http.StatusInternalServerError,
		}
	}

	resp = &Response{Status: http.StatusOK}
	if outcome != nil {
		resp.Result = outcome.Result
		resp.Logs = outcome.Logs
		resp.Visualization = outcome.Visualization
	}

	if err != nil {
		resp.Success = false
		resp.Error = errorMessage(err)
		resp.Status = statusFor(err)
		resp.Steps = pattern.AnnotatedSteps(0)
		d.logger.Debug(ctx, "action failed",
			"pattern", pattern.Key(), "action", req.Action, "error", err.Error())
		return resp
	}

	resp.Success = true
	completed := len(pattern.Steps)
	if action, ok := pattern.Action(req.Action); ok {
		completed = action.CompletedSteps
	}
	resp.Steps = pattern.AnnotatedSteps(completed)

	d.logger.Debug(ctx, "action executed",
		"pattern", pattern.Key(), "action", req.Action, "session_id", req.SessionID)
	return resp
}

// errorMessage surfaces simulator errors to the client. PatternError
// messages are written for users; anything else is masked.
func errorMessage(err error) string {
	var perr *errors.PatternError
	if stderrors.As(err, &perr) {
		return perr.Message
	}
	return "Internal server error"
}

func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsRateLimit(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
