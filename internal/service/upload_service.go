package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RubachokBoss/study-helper/internal/config"
	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type UploadState string

const (
	UploadIdle       UploadState = "idle"
	UploadUploading  UploadState = "uploading"
	UploadPending    UploadState = "pending"
	UploadProcessing UploadState = "processing"
	UploadCompleted  UploadState = "completed"
	UploadFailed     UploadState = "failed"
)

func (s UploadState) IsTerminal() bool {
	return s == UploadCompleted || s == UploadFailed
}

func stateFromStatus(status models.ProcessingStatus) UploadState {
	switch status {
	case models.StatusProcessing:
		return UploadProcessing
	case models.StatusCompleted:
		return UploadCompleted
	case models.StatusFailed:
		return UploadFailed
	default:
		return UploadPending
	}
}

// UploadSnapshot is a read-only copy of the controller state.
type UploadSnapshot struct {
	State    UploadState      `json:"state"`
	Progress int              `json:"progress"`
	Document *models.Document `json:"document,omitempty"`
	Error    string           `json:"error,omitempty"`
	Polling  bool             `json:"polling"`
	Attempts int              `json:"attempts"`
}

// UploadController drives one document from file selection to a terminal
// processing status. All methods are safe for concurrent use.
type UploadController struct {
	client      integration.UploadClient
	policy      *UploadPolicy
	polling     config.PollingConfig
	processType string
	store       *store.Store
	notifier    integration.StatusNotifier
	logger      zerolog.Logger

	mu         sync.Mutex
	state      UploadState
	progress   int
	doc        *models.Document
	lastErr    error
	isPolling  bool
	attempts   int
	generation uint64
	cancel     context.CancelFunc
	observers  map[int]func(UploadSnapshot)
	nextObs    int
}

func NewUploadController(
	client integration.UploadClient,
	policy *UploadPolicy,
	polling config.PollingConfig,
	processType string,
	st *store.Store,
	notifier integration.StatusNotifier,
	logger zerolog.Logger,
) *UploadController {
	if notifier == nil {
		notifier = integration.NewNopNotifier()
	}
	if polling.MaxConsecutiveFailures < 1 {
		polling.MaxConsecutiveFailures = 1
	}
	return &UploadController{
		client:      client,
		policy:      policy,
		polling:     polling,
		processType: processType,
		store:       st,
		notifier:    notifier,
		logger:      logger,
		state:       UploadIdle,
		observers:   make(map[int]func(UploadSnapshot)),
	}
}

// Validate applies the upload policy without touching controller state.
func (c *UploadController) Validate(file *models.UploadFile, prompt string) error {
	if err := c.policy.ValidateFile(file); err != nil {
		return err
	}
	_, err := c.policy.ValidatePrompt(prompt)
	return err
}

// Upload validates the file and prompt, uploads them and then polls until the
// document reaches a terminal status. Validation failures never reach the
// network.
func (c *UploadController) Upload(ctx context.Context, file models.UploadFile, prompt string) (*models.Document, error) {
	if err := c.policy.ValidateFile(&file); err != nil {
		return nil, err
	}
	cleanPrompt, err := c.policy.ValidatePrompt(prompt)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state == UploadUploading {
		c.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	gen := c.begin()
	runCtx := c.runContext(ctx)
	c.state = UploadUploading
	c.progress = 0
	c.doc = nil
	c.lastErr = nil
	c.attempts = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap, store.ClearError{}, store.SetUploadProgress{Progress: 0})

	c.logger.Info().
		Str("filename", file.Name).
		Str("content_type", file.ContentType).
		Int64("size", file.Size()).
		Msg("Uploading document")

	doc, err := c.client.Upload(runCtx, file, cleanPrompt, c.processType, func(pct float64) {
		c.reportProgress(gen, int(pct))
	})
	if err != nil {
		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			return nil, ErrUploadCanceled
		}
		c.state = UploadIdle
		c.progress = 0
		c.lastErr = err
		c.releaseLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap, store.SetUploadProgress{Progress: 0}, store.SetError{Message: err.Error()})

		c.logger.Error().Err(err).Str("filename", file.Name).Msg("Upload failed")
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	if doc.OriginalFilename == "" {
		doc.OriginalFilename = file.Name
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	doc.ProcessingStatus = models.StatusPending
	doc.Normalize()

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil, ErrUploadCanceled
	}
	c.progress = 100
	c.doc = doc.Clone()
	c.state = UploadPending
	c.isPolling = true
	c.attempts = 0
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap, store.SetUploadProgress{Progress: 100}, store.AddDocument{Document: doc})

	result, err := c.poll(ctx, runCtx, gen, doc.DocumentID)
	if errors.Is(err, ErrPollingCanceled) {
		return nil, ErrUploadCanceled
	}
	return result, err
}

// PollStatus polls the status endpoint until the document completes, fails
// or the attempt budget runs out. It may be called again after a timeout to
// resume watching a document. A document already known to be completed is
// returned as is.
func (c *UploadController) PollStatus(ctx context.Context, documentID string) (*models.Document, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}

	c.mu.Lock()
	if c.doc != nil && c.doc.DocumentID == documentID && c.doc.ProcessingStatus == models.StatusCompleted {
		doc := c.doc.Clone()
		c.mu.Unlock()
		return doc, nil
	}
	gen := c.begin()
	runCtx := c.runContext(ctx)
	if c.doc == nil || c.doc.DocumentID != documentID {
		c.doc = &models.Document{DocumentID: documentID, ProcessingStatus: models.StatusPending}
	}
	if c.doc.ProcessingStatus.IsTerminal() {
		c.doc.ProcessingStatus = models.StatusPending
		c.doc.Normalize()
	}
	c.state = stateFromStatus(c.doc.ProcessingStatus)
	c.isPolling = true
	c.attempts = 0
	c.lastErr = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	return c.poll(ctx, runCtx, gen, documentID)
}

// poll runs the status loop for generation gen. It returns ErrPollingCanceled
// without touching the backend if gen is no longer current.
func (c *UploadController) poll(ctx, runCtx context.Context, gen uint64, documentID string) (*models.Document, error) {
	c.mu.Lock()
	current := c.generation == gen
	c.mu.Unlock()
	if !current {
		return nil, ErrPollingCanceled
	}

	log := c.logger.With().Str("document_id", documentID).Logger()
	log.Debug().Msg("Polling document status")

	failures := 0
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(c.polling.Interval)
			select {
			case <-runCtx.Done():
				timer.Stop()
				return nil, c.abort(ctx, gen)
			case <-timer.C:
			}
		}
		if runCtx.Err() != nil {
			return nil, c.abort(ctx, gen)
		}

		doc, err := c.client.Status(runCtx, documentID)

		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			return nil, ErrPollingCanceled
		}
		c.attempts = attempt
		c.mu.Unlock()

		if err != nil {
			if runCtx.Err() != nil {
				return nil, c.abort(ctx, gen)
			}
			if !integration.IsTransient(err) {
				log.Error().Err(err).Int("attempt", attempt).Msg("Status poll failed")
				return nil, c.haltPolling(gen, fmt.Errorf("status poll failed: %w", err))
			}

			failures++
			if failures >= c.polling.MaxConsecutiveFailures {
				log.Error().Err(err).Int("failures", failures).Msg("Too many consecutive status poll failures")
				return nil, c.haltPolling(gen, fmt.Errorf("status poll failed after %d consecutive errors: %w", failures, err))
			}
			if attempt >= c.polling.MaxAttempts {
				return nil, c.timeout(ctx, gen, attempt)
			}
			log.Warn().Err(err).Int("attempt", attempt).Int("failures", failures).Msg("Transient status poll failure")
			continue
		}
		failures = 0

		result, done, err := c.applyStatus(ctx, gen, doc)
		if done {
			return result, err
		}
		if attempt >= c.polling.MaxAttempts {
			return nil, c.timeout(ctx, gen, attempt)
		}
	}
}

// Retry asks the backend to reprocess a failed document and polls again.
// It is allowed after a failure or from a fresh idle controller.
func (c *UploadController) Retry(ctx context.Context, documentID string) (*models.Document, error) {
	gen, runCtx, err := c.requestRetry(ctx, documentID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil, ErrPollingCanceled
	}
	c.isPolling = true
	c.attempts = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	return c.poll(ctx, runCtx, gen, documentID)
}

// RequestRetry sends the retry request without polling. The controller is
// left pending; callers follow up with PollStatus.
func (c *UploadController) RequestRetry(ctx context.Context, documentID string) (*models.Document, error) {
	gen, _, err := c.requestRetry(ctx, documentID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil, ErrPollingCanceled
	}
	c.releaseLocked()
	return c.doc.Clone(), nil
}

// requestRetry claims a new generation and sends the retry request on its
// run context. The run is left open for a following poll; a Cancel during
// the request discards the result.
func (c *UploadController) requestRetry(ctx context.Context, documentID string) (uint64, context.Context, error) {
	if documentID == "" {
		return 0, nil, integration.NewValidationError("documentId", "document id is required")
	}

	c.mu.Lock()
	allowed := (c.state == UploadFailed && c.doc != nil && c.doc.DocumentID == documentID) ||
		(c.state == UploadIdle && c.doc == nil)
	if !allowed {
		c.mu.Unlock()
		return 0, nil, ErrRetryNotAllowed
	}
	gen := c.begin()
	runCtx := c.runContext(ctx)
	prevState := c.state
	c.state = UploadPending
	c.mu.Unlock()

	if err := c.client.Retry(runCtx, documentID); err != nil {
		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			return 0, nil, ErrPollingCanceled
		}
		c.state = prevState
		c.lastErr = err
		c.releaseLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap, store.SetError{Message: err.Error()})

		c.logger.Error().Err(err).Str("document_id", documentID).Msg("Retry request failed")
		return 0, nil, fmt.Errorf("retry failed: %w", err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.logger.Info().Str("document_id", documentID).Msg("Retry accepted after tracking was canceled")
		return 0, nil, ErrPollingCanceled
	}
	if c.doc == nil {
		c.doc = &models.Document{DocumentID: documentID}
	}
	c.doc.ProcessingStatus = models.StatusPending
	c.doc.Normalize()
	c.lastErr = nil
	doc := c.doc.Clone()
	c.mu.Unlock()
	c.dispatch(store.ClearError{}, store.UpdateDocument{Document: doc})

	c.logger.Info().Str("document_id", documentID).Msg("Processing retry requested")

	return gen, runCtx, nil
}

// Cancel detaches the controller from any in-flight upload or poll. The
// backend job is not affected.
func (c *UploadController) Cancel() {
	c.mu.Lock()
	c.generation++
	wasActive := c.cancel != nil
	c.releaseLocked()
	c.isPolling = false
	if !c.state.IsTerminal() {
		c.state = UploadIdle
	}
	if c.progress < 100 {
		c.progress = 0
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if wasActive {
		c.logger.Info().Msg("Upload tracking canceled")
	}
	c.emit(snap)
}

func (c *UploadController) Snapshot() UploadSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn must not block.
func (c *UploadController) Subscribe(fn func(UploadSnapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// begin starts a new generation, canceling whatever run was in flight.
// Callers hold c.mu.
func (c *UploadController) begin() uint64 {
	c.generation++
	c.releaseLocked()
	return c.generation
}

func (c *UploadController) runContext(ctx context.Context) context.Context {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return runCtx
}

func (c *UploadController) releaseLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *UploadController) reportProgress(gen uint64, pct int) {
	if pct > 100 {
		pct = 100
	}

	c.mu.Lock()
	if c.generation != gen || c.state != UploadUploading || pct <= c.progress {
		c.mu.Unlock()
		return
	}
	c.progress = pct
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap, store.SetUploadProgress{Progress: pct})
}

// applyStatus records a poll result. done is true once the document is
// terminal.
func (c *UploadController) applyStatus(ctx context.Context, gen uint64, doc *models.Document) (*models.Document, bool, error) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil, true, ErrPollingCanceled
	}

	if c.doc != nil {
		if doc.OriginalFilename == "" {
			doc.OriginalFilename = c.doc.OriginalFilename
		}
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = c.doc.UploadedAt
		}
	}
	c.doc = doc.Clone()
	c.state = stateFromStatus(doc.ProcessingStatus)

	actions := []store.Action{store.UpdateDocument{Document: doc}}
	var (
		result *models.Document
		err    error
		done   = doc.ProcessingStatus.IsTerminal()
	)
	switch doc.ProcessingStatus {
	case models.StatusCompleted:
		result = doc.Clone()
		actions = append(actions, store.SetCurrentDocument{DocumentID: doc.DocumentID})
	case models.StatusFailed:
		err = &ProcessingError{DocumentID: doc.DocumentID, Message: doc.FailureMessage()}
		c.lastErr = err
		actions = append(actions, store.SetError{Message: err.Error()})
	}
	if done {
		c.isPolling = false
		c.releaseLocked()
	}
	attempts := c.attempts
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap, actions...)

	if done {
		c.logger.Info().
			Str("document_id", doc.DocumentID).
			Str("status", doc.ProcessingStatus.String()).
			Int("attempts", attempts).
			Msg("Document processing finished")
		c.publish(ctx, doc, attempts, false)
	}
	return result, done, err
}

func (c *UploadController) timeout(ctx context.Context, gen uint64, attempts int) error {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrPollingCanceled
	}
	doc := c.doc.Clone()
	err := &TimeoutError{DocumentID: doc.DocumentID, Attempts: attempts, LastStatus: doc.ProcessingStatus}
	c.lastErr = err
	c.isPolling = false
	c.releaseLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	c.logger.Warn().
		Str("document_id", doc.DocumentID).
		Int("attempts", attempts).
		Msg("Polling budget exhausted")
	c.publish(ctx, doc, attempts, true)
	return err
}

// haltPolling stops a run on a poll error and returns the controller to
// idle, keeping the last document snapshot so polling can be resumed.
func (c *UploadController) haltPolling(gen uint64, err error) error {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrPollingCanceled
	}
	c.state = UploadIdle
	c.isPolling = false
	c.lastErr = err
	c.releaseLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap, store.SetError{Message: err.Error()})
	return err
}

// abort handles a canceled run context: Cancel() if the generation moved on,
// otherwise the caller's own context.
func (c *UploadController) abort(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrPollingCanceled
	}
	c.isPolling = false
	if !c.state.IsTerminal() {
		c.state = UploadIdle
	}
	c.releaseLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrPollingCanceled
}

func (c *UploadController) publish(ctx context.Context, doc *models.Document, attempts int, timedOut bool) {
	event := &models.DocumentStatusEvent{
		EventID:    uuid.NewString(),
		DocumentID: doc.DocumentID,
		Status:     doc.ProcessingStatus,
		TimedOut:   timedOut,
		Attempts:   attempts,
		OccurredAt: time.Now().UTC(),
	}
	if doc.ProcessingStatus == models.StatusFailed {
		event.Error = doc.FailureMessage()
	}

	if err := c.notifier.PublishDocumentStatus(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn().Err(err).Str("document_id", doc.DocumentID).Msg("Failed to publish document status event")
	}
}

func (c *UploadController) snapshotLocked() UploadSnapshot {
	snap := UploadSnapshot{
		State:    c.state,
		Progress: c.progress,
		Document: c.doc.Clone(),
		Polling:  c.isPolling,
		Attempts: c.attempts,
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	return snap
}

func (c *UploadController) emit(snap UploadSnapshot, actions ...store.Action) {
	c.dispatch(actions...)

	c.mu.Lock()
	observers := make([]func(UploadSnapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		s := snap
		s.Document = snap.Document.Clone()
		fn(s)
	}
}

func (c *UploadController) dispatch(actions ...store.Action) {
	if c.store == nil {
		return
	}
	for _, a := range actions {
		c.store.Dispatch(a)
	}
}

// LastError returns the error that ended the most recent run, if any.
func (c *UploadController) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
