// Package workflow owns the comparison selections and the submission state
// machine. All state mutation goes through the Controller under one lock;
// decoding and the remote call run on their own goroutines and report back
// through locked callbacks.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kozaktomas/face-compare/internal/compare"
	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/intake"
	"github.com/kozaktomas/face-compare/internal/preview"
)

// Comparer performs one remote comparison.
type Comparer interface {
	Compare(ctx context.Context, req *compare.Request, progress compare.ProgressFunc) (*compare.Response, error)
}

// Controller drives a single comparison session.
type Controller struct {
	EventBroadcaster

	validator  *intake.Validator
	comparer   Comparer
	msgs       *config.Messages
	logger     *slog.Logger
	refPreview *preview.Aggregator
	previews   *preview.Aggregator

	mu           sync.Mutex
	state        State
	reference    *intake.ImageFile
	candidates   []*intake.ImageFile
	token        uint64 // bumped by every submission and reset
	inflight     bool   // a remote call has not returned yet
	cancel       context.CancelFunc
	submissionID string
	resultNames  []string // candidate names of the request behind state.Response
}

// NewController creates a controller in the Idle phase.
func NewController(validator *intake.Validator, comparer Comparer, decoder preview.Decoder, msgs *config.Messages, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		validator: validator,
		comparer:  comparer,
		msgs:      msgs,
		logger:    logger,
		state:     State{Phase: PhaseIdle},
	}
	c.refPreview = preview.NewAggregator(decoder, func(generation uint64) {
		c.SendEvent(Event{Type: EventPreviews, Message: "reference", Data: generation})
	})
	c.previews = preview.NewAggregator(decoder, func(generation uint64) {
		c.SendEvent(Event{Type: EventPreviews, Message: "candidates", Data: generation})
	})
	return c
}

// setErrorLocked displaces the current error message. Caller must hold c.mu.
func (c *Controller) setErrorLocked(msg string) {
	c.state.Error = msg
	c.SendEvent(Event{Type: EventState, Data: c.state})
}

// SelectReference validates f and, when accepted, makes it the reference
// image and schedules its preview. A rejected file leaves the previous
// reference in place.
func (c *Controller) SelectReference(f *intake.ImageFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validator.ValidateReference(f); err != nil {
		var ve *intake.ValidationError
		if errors.As(err, &ve) {
			c.setErrorLocked(ve.Message)
		}
		return err
	}

	c.reference = f
	c.setErrorLocked("")
	c.refPreview.Start([]*intake.ImageFile{f})
	c.logger.Debug("reference selected", "name", f.Name, "size", f.Size)
	return nil
}

// SelectCandidates validates the batch as a whole. On success it replaces
// the previous batch and starts a new preview generation; on failure the
// previous batch and its previews are retained.
func (c *Controller) SelectCandidates(files []*intake.ImageFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validator.ValidateBatch(files); err != nil {
		var ve *intake.ValidationError
		if errors.As(err, &ve) {
			c.setErrorLocked(ve.Message)
		}
		c.logger.Debug("candidate batch rejected", "count", len(files), "error", err)
		return err
	}

	c.candidates = files
	c.setErrorLocked("")
	generation := c.previews.Start(files)
	c.logger.Debug("candidates selected", "count", len(files), "generation", generation)
	return nil
}

// CheckBatchSize applies the candidate count rule before any file is read.
// A rejected count is recorded like a rejected batch; the previous batch
// is retained.
func (c *Controller) CheckBatchSize(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validator.ValidateCount(n); err != nil {
		var ve *intake.ValidationError
		if errors.As(err, &ve) {
			c.setErrorLocked(ve.Message)
		}
		c.logger.Debug("candidate batch rejected", "count", n, "error", err)
		return err
	}
	return nil
}

// Start validates the selection and issues the comparison on a new
// goroutine. It returns the submission ID and a channel that yields
// exactly one Outcome. Start fails
// with ErrSubmissionInFlight while a previous call has not returned, even
// if that call was abandoned by Reset.
func (c *Controller) Start(ctx context.Context) (string, <-chan Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight {
		return "", nil, ErrSubmissionInFlight
	}

	prev := c.state
	c.state = State{Phase: PhaseValidating}
	c.SendEvent(Event{Type: EventState, Data: c.state})

	if c.reference == nil {
		c.state = prev
		c.setErrorLocked(c.msgs.MissingReference)
		return "", nil, ErrMissingReference
	}
	if len(c.candidates) == 0 {
		c.state = prev
		c.setErrorLocked(c.msgs.MissingCandidates)
		return "", nil, ErrMissingCandidates
	}

	req, err := compare.NewRequest(c.reference, c.candidates)
	if err != nil {
		c.state = prev
		c.setErrorLocked(c.msgs.SubmissionFailed)
		return "", nil, fmt.Errorf("could not build request: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.token++
	c.inflight = true
	c.cancel = cancel
	c.submissionID = req.ID
	c.resultNames = nil
	c.state = State{Phase: PhaseSubmitting}
	c.SendEvent(Event{Type: EventState, Data: c.state})

	out := make(chan Outcome, 1)
	go c.run(runCtx, c.token, req, out)
	return req.ID, out, nil
}

// Submit is the blocking form of Start.
func (c *Controller) Submit(ctx context.Context) (*compare.Response, error) {
	_, out, err := c.Start(ctx)
	if err != nil {
		return nil, err
	}
	select {
	case o := <-out:
		return o.Response, o.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for comparison: %w", ctx.Err())
	}
}

func (c *Controller) run(ctx context.Context, token uint64, req *compare.Request, out chan<- Outcome) {
	started := time.Now()
	c.logger.Info("comparison started",
		"submission_id", req.ID,
		"candidates", len(req.Candidates))

	resp, err := c.comparer.Compare(ctx, req, func(sent, total int64) {
		c.onProgress(token, sent, total)
	})

	out <- c.finish(token, req, resp, err, time.Since(started))
	close(out)
}

// onProgress records upload progress for the submission identified by token.
// Progress never decreases within one submission.
func (c *Controller) onProgress(token uint64, sent, total int64) {
	if total <= 0 {
		return
	}
	p := int(sent * 100 / total)
	p = min(max(p, 0), 100)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token || c.state.Phase != PhaseSubmitting || p <= c.state.Progress {
		return
	}
	c.state.Progress = p
	c.SendEvent(Event{Type: EventProgress, Data: p})
}

func (c *Controller) finish(token uint64, req *compare.Request, resp *compare.Response, err error, elapsed time.Duration) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := req.ID
	c.inflight = false
	if token != c.token {
		c.logger.Info("comparison discarded", "submission_id", id, "duration", elapsed)
		return Outcome{SubmissionID: id, Err: ErrDiscarded}
	}
	c.cancel()
	c.cancel = nil

	if err != nil {
		c.state = State{Phase: PhaseFailed, Error: c.failureMessage(err)}
		c.logger.Warn("comparison failed", "submission_id", id, "duration", elapsed, "error", err)
		c.SendEvent(Event{Type: EventState, Data: c.state})
		return Outcome{SubmissionID: id, Err: err}
	}

	c.state = State{Phase: PhaseSucceeded, Progress: 100, Response: resp}
	c.resultNames = make([]string, len(req.Candidates))
	for i, f := range req.Candidates {
		c.resultNames[i] = f.Name
	}
	c.logger.Info("comparison finished",
		"submission_id", id,
		"duration", elapsed,
		"results", len(resp.Results),
		"processing_time", resp.ProcessingTime)
	c.SendEvent(Event{Type: EventState, Data: c.state})
	return Outcome{SubmissionID: id, Response: resp}
}

// failureMessage prefers the service supplied detail over the generic message.
func (c *Controller) failureMessage(err error) string {
	if detail, ok := compare.DetailFromError(err); ok {
		return detail
	}
	if errors.Is(err, compare.ErrInvalidResponse) {
		return c.msgs.InvalidResponse
	}
	return c.msgs.SubmissionFailed
}

// Reset clears the reference, the batch, all previews, the result, the
// error and the progress. An in-flight call is cancelled and its outcome
// discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.reference = nil
	c.candidates = nil
	c.submissionID = ""
	c.resultNames = nil
	c.state = State{Phase: PhaseIdle}
	c.refPreview.Clear()
	c.previews.Clear()

	c.logger.Debug("workflow reset")
	c.SendEvent(Event{Type: EventReset})
}

// State returns the current workflow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitPreviews blocks until the reference and candidate previews settle.
func (c *Controller) WaitPreviews(ctx context.Context) error {
	if err := c.refPreview.Wait(ctx); err != nil {
		return err
	}
	return c.previews.Wait(ctx)
}

// View returns a snapshot for presentation.
func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		State:          c.state,
		SubmissionID:   c.submissionID,
		CandidateCount: len(c.candidates),
		ResultNames:    c.resultNames,
	}
	if c.reference != nil {
		v.Reference = &ReferenceView{Name: c.reference.Name, Size: c.reference.Size}
	}

	// Lock order is Controller then Aggregator, as in Reset.
	v.Previews = c.previews.Snapshot()
	if v.Reference != nil {
		if snap := c.refPreview.Snapshot(); snap.Ready && len(snap.Entries) == 1 {
			entry := snap.Entries[0]
			v.Reference.Preview = &entry
		}
	}
	c.mu.Unlock()
	return v
}

// ComparerFunc adapts a function to the Comparer interface.
type ComparerFunc func(ctx context.Context, req *compare.Request, progress compare.ProgressFunc) (*compare.Response, error)

// Compare calls fn.
func (fn ComparerFunc) Compare(ctx context.Context, req *compare.Request, progress compare.ProgressFunc) (*compare.Response, error) {
	return fn(ctx, req, progress)
}
