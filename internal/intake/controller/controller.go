package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tiger/voice-intake-controller/api/intake"
	"github.com/tiger/voice-intake-controller/internal/intake/batch"
	"github.com/tiger/voice-intake-controller/internal/intake/finalize"
	"github.com/tiger/voice-intake-controller/internal/intake/localvalidate"
	"github.com/tiger/voice-intake-controller/internal/intake/ports"
	"github.com/tiger/voice-intake-controller/internal/intake/router"
	"github.com/tiger/voice-intake-controller/internal/intake/sequencer"
	"github.com/tiger/voice-intake-controller/internal/intake/snapshot"
	"github.com/tiger/voice-intake-controller/internal/intake/timers"
)

// Notice is a user-visible, non-fatal report surfaced to the presentation
// layer.
type Notice struct {
	Code   string
	Detail string
}

// Observer receives presentation-facing session updates.
type Observer interface {
	PhaseChanged(phase intake.SessionPhase)
	AnswersUpdated(answers map[string]intake.AnswerRecord)
	ConfirmationRequested(question intake.QuestionDefinition, transcript string, confidence float64)
	NoticePosted(notice Notice)
}

// NoopObserver discards all updates.
type NoopObserver struct{}

func (NoopObserver) PhaseChanged(intake.SessionPhase)                                 {}
func (NoopObserver) AnswersUpdated(map[string]intake.AnswerRecord)                    {}
func (NoopObserver) ConfirmationRequested(intake.QuestionDefinition, string, float64) {}
func (NoopObserver) NoticePosted(Notice)                                              {}

const defaultMaxClarifyAttempts = 3

const clarifyPrefix = "Sorry, I did not catch that. "

// Config wires the controller's collaborators.
type Config struct {
	Questions []intake.QuestionDefinition
	Capture   ports.CapturePort
	Prompt    ports.PromptPort
	Remote    batch.RemoteValidator
	Snapshots snapshot.Store
	Observer  Observer
	// SubmissionSink receives the finished submission; the controller does
	// not retry failed submission.
	SubmissionSink func(intake.Submission)
	Timers         timers.Config
	// MaxClarifyAttempts bounds the clarify-and-retry loop per question;
	// exhaustion defers the transcript to the batch queue.
	MaxClarifyAttempts int
	Now                func() time.Time
}

// Controller drives the voice intake session: it owns the single
// SessionState, consumes the typed event union one event at a time, and
// keeps the answer set consistent across overlapping speech, timer, and
// network events.
type Controller struct {
	cfg       Config
	sessionID string

	seq       *sequencer.Sequencer
	queue     *batch.Queue
	timers    *timers.Manager
	router    router.Router
	validator localvalidate.Validator
	finalizer finalize.Finalizer
	observer  Observer

	ctx context.Context

	// queueMu guards the single-consumer event queue: post appends, and
	// exactly one caller drains, so every handler runs to completion before
	// the next. The lock is never held while a handler runs.
	queueMu  sync.Mutex
	pending  []intake.Event
	draining bool

	// Fields below are mutated only inside handlers (single consumer) and
	// read externally through the snapshot accessors.
	stateMu           sync.Mutex
	phase             intake.SessionPhase
	closed            bool
	captureEpoch      int64
	batchGeneration   int64
	clarifyAttempts   int
	provisional       *intake.AnswerRecord
	acceptedCount     int
	completionPending bool
}

// New constructs a controller for one intake session.
func New(cfg Config) (*Controller, error) {
	if cfg.Capture == nil {
		return nil, fmt.Errorf("capture port is required")
	}
	if cfg.Prompt == nil {
		return nil, fmt.Errorf("prompt port is required")
	}
	if cfg.Remote == nil {
		return nil, fmt.Errorf("remote validator is required")
	}
	if cfg.Snapshots == nil {
		cfg.Snapshots = snapshot.NullStore{}
	}
	if cfg.Observer == nil {
		cfg.Observer = NoopObserver{}
	}
	if cfg.MaxClarifyAttempts <= 0 {
		cfg.MaxClarifyAttempts = defaultMaxClarifyAttempts
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	seq, err := sequencer.New(cfg.Questions)
	if err != nil {
		return nil, err
	}
	queue, err := batch.New(batch.Config{}, cfg.Remote)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		seq:       seq,
		queue:     queue,
		router:    router.New(),
		validator: localvalidate.New(),
		finalizer: finalize.New(cfg.Now),
		observer:  cfg.Observer,
		phase:     intake.PhaseIdle,
	}
	manager, err := timers.NewManager(cfg.Timers, func(ev intake.TimerFired) {
		c.post(ev)
	})
	if err != nil {
		return nil, err
	}
	c.timers = manager
	cfg.Capture.SetListener(captureListener{c: c})
	cfg.Prompt.SetListener(promptListener{c: c})
	return c, nil
}

// SessionID returns the session identity.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() intake.SessionPhase {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.phase
}

// Answers returns a copy of the answer map.
func (c *Controller) Answers() map[string]intake.AnswerRecord {
	return c.seq.Answers()
}

// Mode returns the session mode.
func (c *Controller) Mode() intake.SessionMode {
	return c.seq.Mode()
}

// PendingBatch returns the pending batch items.
func (c *Controller) PendingBatch() []intake.PendingBatchItem {
	return c.queue.Pending()
}

// CurrentQuestion returns the active question.
func (c *Controller) CurrentQuestion() intake.QuestionDefinition {
	return c.seq.Current()
}

// Start opens the session: it speaks the first prompt and hands control to
// the event loop. The context bounds all outbound calls for the session.
func (c *Controller) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return fmt.Errorf("session is closed")
	}
	if c.phase != intake.PhaseIdle {
		c.stateMu.Unlock()
		return fmt.Errorf("session already started in phase %s", c.phase)
	}
	c.ctx = ctx
	c.stateMu.Unlock()

	c.speakPrompt(c.seq.Current().Prompt)
	return nil
}

// Confirm accepts the provisional mid-confidence answer.
func (c *Controller) Confirm() { c.post(intake.UserAction{Kind: intake.ActionConfirm}) }

// Retry discards the provisional transcript and reopens capture.
func (c *Controller) Retry() { c.post(intake.UserAction{Kind: intake.ActionRetry}) }

// Skip skips the active question; blocked for required fields.
func (c *Controller) Skip() { c.post(intake.UserAction{Kind: intake.ActionSkip}) }

// Previous navigates back one question.
func (c *Controller) Previous() { c.post(intake.UserAction{Kind: intake.ActionPrevious}) }

// ToggleMode flips standard and quick mode.
func (c *Controller) ToggleMode() { c.post(intake.UserAction{Kind: intake.ActionToggleMode}) }

// Resume restarts capture after a pause or capture error.
func (c *Controller) Resume() { c.post(intake.UserAction{Kind: intake.ActionResume}) }

// Complete requests completion of the session.
func (c *Controller) Complete() { c.post(intake.UserAction{Kind: intake.ActionComplete}) }

// Close tears the session down: timers are cancelled, the capture handle is
// released, and any in-flight network response is discarded on arrival.
func (c *Controller) Close() {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return
	}
	c.closed = true
	c.batchGeneration++
	c.stateMu.Unlock()

	c.timers.Close()
	_ = c.cfg.Capture.Stop()
	c.setPhase(intake.PhaseIdle)
}

// post enqueues an event and drains the queue unless another caller already
// is; handlers therefore run strictly one at a time, to completion, in
// arrival order.
func (c *Controller) post(ev intake.Event) {
	c.queueMu.Lock()
	c.pending = append(c.pending, ev)
	if c.draining {
		c.queueMu.Unlock()
		return
	}
	c.draining = true
	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		c.queueMu.Unlock()
		c.handle(next)
		c.queueMu.Lock()
	}
	c.draining = false
	c.queueMu.Unlock()
}

func (c *Controller) handle(ev intake.Event) {
	// Events arriving after teardown are discarded: stale timer fires and
	// network responses must never mutate a dead session.
	if c.isClosed() {
		return
	}
	switch event := ev.(type) {
	case intake.TranscriptReceived:
		c.handleTranscript(event)
	case intake.PromptEnded:
		c.handlePromptEnded()
	case intake.CaptureEnded:
		c.handleCaptureEnded()
	case intake.CaptureFailed:
		c.handleCaptureFailed(event)
	case intake.TimerFired:
		c.handleTimer(event)
	case intake.BatchResolved:
		c.handleBatchResolved(event)
	case intake.UserAction:
		c.handleUserAction(event)
	}
}

func (c *Controller) handleTranscript(ev intake.TranscriptReceived) {
	if c.getPhase() != intake.PhaseRecording {
		return
	}
	if ev.Epoch != c.currentEpoch() {
		return
	}

	c.timers.Cancel(intake.TimerSilence)
	_ = c.seq.SetRecordingState(intake.RecordingProcessing)
	c.setPhase(intake.PhaseValidating)

	question := c.seq.Current()
	local, err := c.validator.Validate(question, ev.Text)
	if err != nil {
		c.notice("validation_error", err.Error())
		c.reopenCapture()
		return
	}
	decision, err := c.router.Route(question, ev.Text, local, c.seq.Mode())
	if err != nil {
		c.notice("routing_error", err.Error())
		c.reopenCapture()
		return
	}

	switch decision.Path {
	case router.PathAutoAdvance, router.PathQuickAccept:
		c.stopCapture()
		c.commitAnswer(decision.Answer)
		c.advanceOrFinalize()
	case router.PathQueueForBatch:
		c.stopCapture()
		c.enqueueForBatch(question, ev.Text)
		c.advanceOrFinalize()
	case router.PathConfirmThenAdvance:
		c.stopCapture()
		answer := decision.Answer
		c.setProvisional(&answer)
		c.setPhase(intake.PhaseAwaitingConfirmation)
		if _, err := c.timers.Arm(intake.TimerConfirmation); err != nil {
			c.notice("timer_error", err.Error())
		}
		c.observer.ConfirmationRequested(question, ev.Text, local.Confidence)
	case router.PathClarifyAndRetry:
		c.stopCapture()
		if c.bumpClarifyAttempts() > c.cfg.MaxClarifyAttempts {
			// The loop is bounded: after the last attempt the transcript is
			// deferred to batch reconciliation instead of looping forever.
			c.enqueueForBatch(question, ev.Text)
			c.advanceOrFinalize()
			return
		}
		c.discardAnswer(question.FieldKey)
		c.speakPrompt(clarifyPrefix + question.Prompt)
	}
}

func (c *Controller) handlePromptEnded() {
	if c.getPhase() != intake.PhasePrompting {
		return
	}
	c.openCapture()
}

func (c *Controller) handleCaptureEnded() {
	if c.getPhase() != intake.PhaseRecording {
		return
	}
	_ = c.seq.SetRecordingState(intake.RecordingIdle)
}

func (c *Controller) handleCaptureFailed(ev intake.CaptureFailed) {
	c.timers.Cancel(intake.TimerSilence)
	_ = c.seq.SetRecordingState(intake.RecordingIdle)
	c.setPhase(intake.PhasePaused)
	c.notice("capture_error", ev.Code)
}

func (c *Controller) handleTimer(ev intake.TimerFired) {
	switch ev.Kind {
	case intake.TimerConfirmation:
		if c.getPhase() != intake.PhaseAwaitingConfirmation {
			return
		}
		// No user action before expiry: the provisional answer stands and
		// the session moves on.
		c.notice("confirmation_timeout", "provisional answer accepted without confirmation")
		c.commitProvisional()
		c.advanceOrFinalize()
	case intake.TimerSilence:
		if c.getPhase() != intake.PhaseRecording {
			return
		}
		_ = c.cfg.Capture.Stop()
		_ = c.seq.SetRecordingState(intake.RecordingPaused)
		c.setPhase(intake.PhasePaused)
		c.notice("silence_pause", "no speech detected, session paused")
	case intake.TimerDebounce:
		c.startFlush()
	}
}

func (c *Controller) handleBatchResolved(ev intake.BatchResolved) {
	if ev.Generation != c.currentBatchGeneration() {
		return
	}
	if ev.Failure != "" {
		c.notice("batch_resolve_error", ev.Failure)
		if c.takeCompletionPending() {
			// The items stay queued; retrying the flush would fail the same
			// way, so completion unblocks only through an explicit retry.
			c.notice("completion_blocked", "pending answers could not be validated")
			c.setPhase(intake.PhaseIdle)
		}
		return
	}
	for _, answer := range ev.Answers {
		if err := c.seq.Commit(answer); err != nil {
			c.notice("batch_commit_error", err.Error())
		}
	}
	if !ev.UsedRemote {
		c.notice("local_validation_fallback", "remote validation unavailable, local rules applied")
	}
	c.observer.AnswersUpdated(c.seq.Answers())

	if c.takeCompletionPending() {
		c.attemptCompletion()
	}
}

func (c *Controller) handleUserAction(ev intake.UserAction) {
	switch ev.Kind {
	case intake.ActionConfirm:
		if c.getPhase() != intake.PhaseAwaitingConfirmation {
			return
		}
		c.timers.Cancel(intake.TimerConfirmation)
		c.commitProvisional()
		c.advanceOrFinalize()
	case intake.ActionRetry:
		if c.getPhase() != intake.PhaseAwaitingConfirmation {
			return
		}
		c.timers.Cancel(intake.TimerConfirmation)
		c.setProvisional(nil)
		c.discardAnswer(c.seq.Current().FieldKey)
		c.openCapture()
	case intake.ActionSkip:
		c.handleSkip()
	case intake.ActionPrevious:
		if err := c.seq.Retreat(); err != nil {
			c.notice("navigation_blocked", err.Error())
			return
		}
		// Capture for the question being left must release before the replayed
		// prompt, or the reopen after the prompt is rejected as a duplicate.
		c.timers.Cancel(intake.TimerConfirmation)
		c.timers.Cancel(intake.TimerSilence)
		c.stopCapture()
		c.setProvisional(nil)
		c.resetClarifyAttempts()
		c.speakPrompt(c.seq.Current().Prompt)
	case intake.ActionToggleMode:
		mode := c.seq.ToggleMode()
		if mode == intake.ModeQuick {
			// Quick mode disables remote confirmation; pending work resolves
			// locally right away so behavior stays consistent.
			c.timers.Cancel(intake.TimerDebounce)
			answers, err := c.queue.ResolveLocally()
			if err != nil {
				c.notice("batch_resolve_error", err.Error())
				return
			}
			for _, answer := range answers {
				if err := c.seq.Commit(answer); err != nil {
					c.notice("batch_commit_error", err.Error())
				}
			}
			if len(answers) > 0 {
				c.observer.AnswersUpdated(c.seq.Answers())
			}
		}
	case intake.ActionResume:
		if c.getPhase() != intake.PhasePaused {
			return
		}
		c.openCapture()
	case intake.ActionComplete:
		c.attemptCompletion()
	}
}

func (c *Controller) handleSkip() {
	phase := c.getPhase()
	if phase != intake.PhaseAwaitingConfirmation && phase != intake.PhaseRecording &&
		phase != intake.PhasePaused && phase != intake.PhasePrompting {
		return
	}
	question := c.seq.Current()
	if question.Required {
		c.notice("skip_blocked", fmt.Sprintf("field %s is required", question.FieldKey))
		return
	}
	c.timers.Cancel(intake.TimerConfirmation)
	c.timers.Cancel(intake.TimerSilence)
	c.stopCapture()
	c.setProvisional(nil)
	if err := c.seq.Skip(); err != nil {
		c.notice("skip_blocked", err.Error())
		return
	}
	c.observer.AnswersUpdated(c.seq.Answers())
	c.advanceOrFinalize()
}

func (c *Controller) speakPrompt(text string) {
	c.setPhase(intake.PhasePrompting)
	if err := c.cfg.Prompt.Speak(c.context(), text); err != nil {
		c.notice("prompt_error", err.Error())
		// Without synthesis the session still works: open capture directly.
		c.openCapture()
	}
}

func (c *Controller) openCapture() {
	if err := c.seq.SetRecordingState(intake.RecordingActive); err != nil {
		// Capture already active; duplicate starts are ignored.
		return
	}
	c.bumpEpoch()
	c.setPhase(intake.PhaseRecording)
	if _, err := c.timers.Arm(intake.TimerSilence); err != nil {
		c.notice("timer_error", err.Error())
	}
	if err := c.cfg.Capture.Start(c.context()); err != nil {
		c.timers.Cancel(intake.TimerSilence)
		_ = c.seq.SetRecordingState(intake.RecordingIdle)
		c.setPhase(intake.PhasePaused)
		c.notice("capture_error", err.Error())
	}
}

func (c *Controller) reopenCapture() {
	_ = c.seq.SetRecordingState(intake.RecordingIdle)
	c.openCapture()
}

func (c *Controller) stopCapture() {
	_ = c.cfg.Capture.Stop()
	_ = c.seq.SetRecordingState(intake.RecordingIdle)
}

func (c *Controller) enqueueForBatch(question intake.QuestionDefinition, rawAnswer string) {
	item := intake.PendingBatchItem{
		Question:      question,
		RawAnswer:     rawAnswer,
		QuestionIndex: c.seq.Index(),
	}
	thresholdReached, err := c.queue.Enqueue(item)
	if err != nil {
		c.notice("batch_enqueue_error", err.Error())
		return
	}
	// Optimistic advance: the record is provisional until the flush
	// reconciles it.
	placeholder := intake.AnswerRecord{
		FieldKey:        question.FieldKey,
		RawTranscript:   rawAnswer,
		ProcessedValue:  rawAnswer,
		Source:          intake.SourceLocal,
		Confidence:      0.6,
		ValidationState: intake.ValidationValidating,
	}
	if err := c.seq.Commit(placeholder); err != nil {
		c.notice("batch_commit_error", err.Error())
	}
	if thresholdReached {
		c.timers.Cancel(intake.TimerDebounce)
		c.startFlush()
		return
	}
	if _, err := c.timers.Arm(intake.TimerDebounce); err != nil {
		c.notice("timer_error", err.Error())
	}
}

func (c *Controller) startFlush() {
	if c.isClosed() {
		return
	}
	generation := c.currentBatchGeneration()
	answers := c.seq.Answers()
	go func() {
		result, err := c.queue.Flush(c.context(), answers)
		if err != nil {
			c.post(intake.BatchResolved{Generation: generation, Failure: err.Error()})
			return
		}
		if !result.Flushed {
			return
		}
		c.post(intake.BatchResolved{
			Generation: generation,
			Answers:    result.Answers,
			UsedRemote: result.UsedRemote,
		})
	}()
}

func (c *Controller) commitAnswer(answer intake.AnswerRecord) {
	if err := c.seq.Commit(answer); err != nil {
		c.notice("commit_error", err.Error())
		return
	}
	c.observer.AnswersUpdated(c.seq.Answers())
	if answer.ValidationState != intake.ValidationValid || answer.Source == intake.SourceSkipped {
		return
	}
	count := c.bumpAcceptedCount()
	if count%2 != 0 {
		return
	}
	if err := c.cfg.Snapshots.Save(c.context(), c.sessionID, c.seq.Answers()); err != nil {
		c.notice("snapshot_write_failed", err.Error())
	}
}

func (c *Controller) commitProvisional() {
	provisional := c.takeProvisional()
	if provisional == nil {
		return
	}
	c.commitAnswer(*provisional)
}

func (c *Controller) advanceOrFinalize() {
	c.resetClarifyAttempts()
	c.setProvisional(nil)
	done := c.seq.Advance()
	if done {
		c.attemptCompletion()
		return
	}
	if c.seq.AtFinal() && c.queue.Len() > 0 {
		// Reaching the final question is a flush trigger.
		c.timers.Cancel(intake.TimerDebounce)
		c.startFlush()
	}
	c.speakPrompt(c.seq.Current().Prompt)
}

func (c *Controller) attemptCompletion() {
	c.setPhase(intake.PhaseFinalizing)
	if c.queue.Len() > 0 {
		// Completion may not proceed with pending batch work; force a final
		// flush and resume when it resolves.
		c.setCompletionPending(true)
		c.timers.Cancel(intake.TimerDebounce)
		c.startFlush()
		return
	}

	submission, err := c.finalizer.Finalize(c.sessionID, c.seq.Mode(), c.seq.Questions(), c.seq.Answers())
	if err != nil {
		var missing *finalize.MissingFieldsError
		if errors.As(err, &missing) {
			c.notice("completion_blocked", missing.Error())
			c.setPhase(intake.PhaseIdle)
			return
		}
		c.notice("completion_error", err.Error())
		c.setPhase(intake.PhaseIdle)
		return
	}

	if c.cfg.SubmissionSink != nil {
		c.cfg.SubmissionSink(submission)
	}
	c.Close()
}

func (c *Controller) notice(code string, detail string) {
	c.observer.NoticePosted(Notice{Code: code, Detail: detail})
}

func (c *Controller) context() context.Context {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *Controller) setPhase(phase intake.SessionPhase) {
	c.stateMu.Lock()
	changed := c.phase != phase
	c.phase = phase
	c.stateMu.Unlock()
	if changed {
		c.observer.PhaseChanged(phase)
	}
}

func (c *Controller) getPhase() intake.SessionPhase {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.phase
}

func (c *Controller) isClosed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.closed
}

func (c *Controller) bumpEpoch() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.captureEpoch++
}

func (c *Controller) currentEpoch() int64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.captureEpoch
}

func (c *Controller) currentBatchGeneration() int64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.batchGeneration
}

func (c *Controller) bumpClarifyAttempts() int {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.clarifyAttempts++
	return c.clarifyAttempts
}

func (c *Controller) resetClarifyAttempts() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.clarifyAttempts = 0
}

func (c *Controller) setProvisional(answer *intake.AnswerRecord) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.provisional = answer
}

func (c *Controller) takeProvisional() *intake.AnswerRecord {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	answer := c.provisional
	c.provisional = nil
	return answer
}

func (c *Controller) bumpAcceptedCount() int {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.acceptedCount++
	return c.acceptedCount
}

func (c *Controller) setCompletionPending(pending bool) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.completionPending = pending
}

func (c *Controller) takeCompletionPending() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	pending := c.completionPending
	c.completionPending = false
	return pending
}

func (c *Controller) discardAnswer(fieldKey string) {
	c.seq.Discard(fieldKey)
}

// captureListener adapts capture port callbacks into posted events. The
// transcript is tagged with the capture epoch current at arrival; transcripts
// surfacing outside the recording phase are dropped by the handler.
type captureListener struct {
	c *Controller
}

func (l captureListener) OnTranscript(text string, confidence float64) {
	l.c.post(intake.TranscriptReceived{
		Text:       text,
		Confidence: confidence,
		Epoch:      l.c.currentEpoch(),
	})
}

func (l captureListener) OnCaptureEnd() {
	l.c.post(intake.CaptureEnded{})
}

func (l captureListener) OnCaptureError(code string) {
	l.c.post(intake.CaptureFailed{Code: code})
}

type promptListener struct {
	c *Controller
}

func (l promptListener) OnPromptStart() {}

func (l promptListener) OnPromptEnd() {
	l.c.post(intake.PromptEnded{})
}
