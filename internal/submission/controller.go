package submission

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/ats-checker/internal/analysis"
	"github.com/jonathan/ats-checker/internal/parsing"
	"github.com/jonathan/ats-checker/internal/schemas"
	"github.com/jonathan/ats-checker/internal/types"
	"github.com/jonathan/ats-checker/internal/validation"
)

// Dispatcher sends one request to the analysis service and returns its raw reply.
// A non-2xx reply is a Response, not an error; errors mean the exchange itself failed.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *Request) (*analysis.Response, error)
}

// HTTPDispatcher encodes requests as multipart forms and posts them with an analysis.Client.
type HTTPDispatcher struct {
	Client *analysis.Client
}

// Dispatch implements Dispatcher.
func (d HTTPDispatcher) Dispatch(ctx context.Context, req *Request) (*analysis.Response, error) {
	contentType, body, err := req.Multipart()
	if err != nil {
		return nil, err
	}
	return d.Client.Post(ctx, contentType, body)
}

// Options configures a Controller.
type Options struct {
	// Timeout bounds each attempt. Zero means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Controller is the submission state machine. It owns the PendingInput and the current
// SubmissionState; views read them through State, Input and Subscribe.
type Controller struct {
	dispatcher Dispatcher
	timeout    time.Duration
	logger     *slog.Logger

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu       sync.Mutex
	input    types.PendingInput
	state    types.SubmissionState
	attempt  uuid.UUID
	closed   bool
	subs     map[uint64]func(types.SubmissionState)
	nextSub  uint64
	pending  []types.SubmissionState
	flushing bool
}

// New returns a Controller in the Idle state.
func New(dispatcher Dispatcher, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	base, stop := context.WithCancel(context.Background())
	return &Controller{
		dispatcher: dispatcher,
		timeout:    opts.Timeout,
		logger:     logger,
		base:       base,
		stop:       stop,
		state:      types.Idle{},
		subs:       make(map[uint64]func(types.SubmissionState)),
	}
}

// SetDocument replaces the pending document. The state is not touched.
func (c *Controller) SetDocument(doc *types.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input.Document = doc
}

// ClearDocument removes the pending document.
func (c *Controller) ClearDocument() {
	c.SetDocument(nil)
}

// SetJobDescription replaces the pending job description text.
func (c *Controller) SetJobDescription(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input.JobDescription = text
}

// Input returns a snapshot of the pending input.
func (c *Controller) Input() types.PendingInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// State returns the current state.
func (c *Controller) State() types.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state transition in order. fn runs on the
// goroutine that performed or flushed the transition and must not block for long.
func (c *Controller) Subscribe(fn func(types.SubmissionState)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Submit validates the pending input and, when valid, dispatches one request in the
// background. It returns false without doing anything while a request is in flight or
// after Close.
func (c *Controller) Submit() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if inFlight, busy := c.state.(types.InFlight); busy {
		c.mu.Unlock()
		c.logger.Debug("submission.ignored", "attempt_id", inFlight.AttemptID, "reason", "in_flight")
		return false
	}

	input := c.input
	outcome := validation.Validate(input)
	if !outcome.Valid() {
		c.logger.Info("submission.invalid", "reasons", outcome.Reasons)
		c.transitionLocked(types.Invalid{Reasons: outcome.Reasons})
		c.flushLocked()
		return true
	}

	req := Build(input)
	id := uuid.New()
	ctx, cancel := c.attemptContext()
	c.attempt = id
	c.transitionLocked(types.InFlight{AttemptID: id, StartedAt: time.Now()})
	c.wg.Add(1)
	go c.run(ctx, cancel, id, req)
	c.flushLocked()
	return true
}

// Wait blocks until no attempt is in flight.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close tears the controller down. An in-flight attempt is canceled and its eventual
// response is discarded without touching the state; later Submit calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.attempt = uuid.Nil
	c.mu.Unlock()

	c.stop()
	c.logger.Debug("submission.closed")
}

func (c *Controller) attemptContext() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(c.base, c.timeout)
	}
	return context.WithCancel(c.base)
}

type attemptResult struct {
	resp *analysis.Response
	err  error
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, id uuid.UUID, req *Request) {
	defer c.wg.Done()
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		resp, err := c.dispatcher.Dispatch(ctx, req)
		done <- attemptResult{resp: resp, err: err}
	}()

	var err error
	var next types.SubmissionState

	select {
	case res := <-done:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &TimeoutError{After: c.timeout}
			next = failure(err)
			break
		}
		next, err = c.resolve(id, res.resp, res.err)
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Info("submission.discarded", "attempt_id", id, "reason", "canceled")
			return
		}
		err = &TimeoutError{After: c.timeout}
		next = failure(err)
	}

	if err != nil {
		c.logger.Warn("submission.failed", "attempt_id", id, "kind", next.(types.Failed).Kind, "error", err)
	}
	c.finish(id, next)
}

// resolve converts a raw exchange into a terminal state.
func (c *Controller) resolve(id uuid.UUID, resp *analysis.Response, err error) (types.SubmissionState, error) {
	if err != nil {
		terr := &TransportError{Message: "request failed", Cause: err}
		return failure(terr), terr
	}

	if !resp.OK() {
		if raw, decErr := parsing.DecodeBody(resp.Body); decErr == nil {
			if msg, ok := parsing.ErrorMessage(raw); ok {
				cerr := &CollaboratorError{StatusCode: resp.StatusCode, Message: msg}
				return failure(cerr), cerr
			}
		}
		terr := &TransportError{StatusCode: resp.StatusCode, Message: "unexpected status"}
		return failure(terr), terr
	}

	raw, decErr := parsing.DecodeBody(resp.Body)
	if decErr != nil {
		merr := &MalformedResponseError{StatusCode: resp.StatusCode, Cause: decErr}
		c.logger.Error("submission.malformed_response",
			"attempt_id", id,
			"req_id", resp.RequestID,
			"content_type", resp.ContentType,
			"bytes", len(resp.Body),
			"error", decErr,
		)
		return failure(merr), merr
	}

	var drift *schemas.ValidationError
	if schemaErr := schemas.ValidateAnalysisResponse(resp.Body); errors.As(schemaErr, &drift) {
		c.logger.Warn("submission.schema_drift", "attempt_id", id, "fields", drift.Fields())
	}

	return types.Succeeded{Result: parsing.NormalizeAnalysis(raw)}, nil
}

// finish applies a terminal state unless the attempt has been superseded or torn down.
func (c *Controller) finish(id uuid.UUID, next types.SubmissionState) {
	c.mu.Lock()
	if c.closed || c.attempt != id {
		c.mu.Unlock()
		c.logger.Info("submission.discarded", "attempt_id", id, "reason", "stale")
		return
	}
	c.attempt = uuid.Nil
	c.transitionLocked(next)
	c.flushLocked()
}

// transitionLocked records next as the current state and queues it for subscribers.
// c.mu must be held.
func (c *Controller) transitionLocked(next types.SubmissionState) {
	prev := c.state
	c.state = next
	c.pending = append(c.pending, next)
	c.logger.Info("submission.transition", "from", prev.Status(), "to", next.Status())
}

// flushLocked delivers queued transitions in order and releases c.mu. If another
// goroutine is already delivering, it picks up the queued states instead.
func (c *Controller) flushLocked() {
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true

	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]

		subs := make([]func(types.SubmissionState), 0, len(c.subs))
		for _, fn := range c.subs {
			subs = append(subs, fn)
		}

		c.mu.Unlock()
		for _, fn := range subs {
			fn(next)
		}
		c.mu.Lock()
	}

	c.flushing = false
	c.mu.Unlock()
}
