package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/draft"
)

// Controller drives one open wizard. All methods are safe for concurrent
// use; writes to the draft happen while the controller lock is held, so an
// autosave never races an explicit save.
type Controller struct {
	tenantID string
	params   OpenParams
	profiles ProfileSource
	records  RecordSource
	drafts   *draft.Store
	catalog  *catalog.Catalog
	logger   *slog.Logger

	mu           sync.Mutex
	state        State
	category     catalog.Category
	stepID       int
	record       careplan.Record
	baseline     careplan.Record
	counts       careplan.CompletionContext
	dirty        bool
	lastErr      error
	lastActivity time.Time
	handle       *draft.Handle
	undo         *UndoStack

	debouncer *Debouncer
	stopLoop  context.CancelFunc
	loopDone  chan struct{}
}

// New creates a controller in the Loading state. Call Load before anything
// else.
func New(tenantID string, params OpenParams, deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := deps.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	depth := deps.UndoDepth
	if depth == 0 {
		depth = defaultUndoDepth
	}
	return &Controller{
		tenantID:     tenantID,
		params:       params,
		profiles:     deps.Profiles,
		records:      deps.Records,
		drafts:       deps.Drafts,
		catalog:      deps.Drafts.Catalog(),
		logger:       logger.With("subject_id", params.SubjectID, "record_id", params.RecordID),
		state:        StateLoading,
		undo:         NewUndoStack(depth),
		debouncer:    NewDebouncer(debounce),
		lastActivity: time.Now(),
	}
}

// Load reads the subject, the draft and, when editing a committed plan, its
// data, staff assignments and counters. Nothing changes unless every read
// succeeds; on failure the controller stays in Loading and Load may be
// called again.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoading {
		return ErrInvalidState
	}
	c.lastActivity = time.Now()

	profile, err := c.profiles.GetProfile(ctx, c.tenantID, c.params.SubjectID)
	if err != nil {
		return c.loadFailed("subject", err)
	}

	existing, err := c.drafts.LoadDraft(ctx, c.tenantID, draft.LoadRequest{
		SubjectID: c.params.SubjectID,
		RecordID:  c.params.RecordID,
		ForceNew:  c.params.ForceNew,
	})
	if err != nil {
		return c.loadFailed("draft", err)
	}

	var (
		rec     careplan.Record
		step    int
		version int
	)
	if existing != nil {
		rec = existing.AutoSaveData.Clone()
		step = existing.LastStepCompleted
		version = existing.CatalogVersion
	}

	counts := careplan.CompletionContext{}
	if c.params.RecordID != "" {
		if existing == nil {
			data, err := c.records.GetData(ctx, c.tenantID, c.params.RecordID)
			if err != nil {
				return c.loadFailed("care plan", err)
			}
			rec = data.Clone()
		}
		staff, counted, err := c.readCommitted(ctx, rec.StaffIDs())
		if err != nil {
			return err
		}
		rec.SetStaffIDs(staff)
		counts = counted
	}

	category := profile.Category
	if !category.Valid() && existing != nil {
		category = existing.Category
	}
	if !category.Valid() {
		return c.loadFailed("subject", fmt.Errorf("%w: %q", ErrInvalidCategory, profile.Category))
	}

	step = catalog.RelocateStep(c.catalog, catalog.RelocateInput{
		Step:       step,
		Version:    version,
		HasSection: rec.HasSection,
		Category:   category,
	})
	rec = careplan.Prepopulate(rec, *profile)

	c.handle = c.drafts.Open(c.tenantID, draft.Key{SubjectID: c.params.SubjectID, RecordID: c.params.RecordID}, existing)
	c.category = category
	c.stepID = step
	c.record = rec
	c.baseline = rec.Clone()
	c.counts = counts
	c.lastErr = nil
	c.state = StateReady
	c.startLoop()

	c.logger.Debug("wizard loaded", "step_id", step, "category", category, "draft_id", c.handle.DraftID())
	return nil
}

// readCommitted reads the committed staff assignments, reconciles them
// with draftIDs and reads the external counters.
func (c *Controller) readCommitted(ctx context.Context, draftIDs []string) ([]string, careplan.CompletionContext, error) {
	assignments, err := c.records.GetAssignments(ctx, c.tenantID, c.params.RecordID)
	if err != nil {
		return nil, careplan.CompletionContext{}, c.loadFailed("staff assignments", err)
	}
	medication, err := c.records.GetExternalCount(ctx, c.tenantID, c.params.RecordID, careplan.CounterMedication)
	if err != nil {
		return nil, careplan.CompletionContext{}, c.loadFailed("counters", err)
	}
	staff := careplan.Reconcile(draftIDs, assignments)
	return staff, careplan.CompletionContext{}.WithCount(careplan.CounterMedication, medication), nil
}

func (c *Controller) loadFailed(op string, err error) error {
	loadErr := &LoadError{Op: op, Err: err}
	c.lastErr = loadErr
	c.logger.Warn("wizard load failed", "op", op, "error", err)
	return loadErr
}

// Reload flushes pending edits, then re-reads the draft and the committed
// assignments and merges them into the held record. Empty incoming lists
// never erase held ones. The step is not relocated.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditable(); err != nil {
		return err
	}
	c.lastActivity = time.Now()

	if err := c.cycleLocked(ctx, false, "autosave"); err != nil {
		return err
	}

	incoming := c.record.Clone()
	if id := c.handle.DraftID(); id != "" {
		d, err := c.drafts.GetDraft(ctx, c.tenantID, id)
		if err != nil {
			return c.loadFailed("draft", err)
		}
		incoming = d.AutoSaveData.Clone()
	} else if c.params.RecordID != "" {
		data, err := c.records.GetData(ctx, c.tenantID, c.params.RecordID)
		if err != nil {
			return c.loadFailed("care plan", err)
		}
		incoming = data.Clone()
	}

	counts := c.counts
	if c.params.RecordID != "" {
		staff, counted, err := c.readCommitted(ctx, incoming.StaffIDs())
		if err != nil {
			return err
		}
		incoming.SetStaffIDs(staff)
		counts = counted
	}

	c.record = careplan.MergeLoaded(c.record, incoming)
	c.counts = counts
	if !reflect.DeepEqual(c.record, c.baseline) {
		c.markDirty()
	}
	return nil
}

// SetCategory changes the subject category. When the current step is no
// longer active the wizard moves to the first active step.
func (c *Controller) SetCategory(category catalog.Category) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditable(); err != nil {
		return err
	}

	c.category = category
	active := catalog.Filter(c.catalog, category)
	if !catalog.Contains(active, c.stepID) {
		c.stepID = catalog.First(active)
	}
	c.markDirty()
	return nil
}

// Apply runs fn against a copy of the record and keeps the result when fn
// succeeds. The change is autosaved after the debounce window.
func (c *Controller) Apply(fn func(rec *careplan.Record) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditable(); err != nil {
		return err
	}

	next := c.record.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	c.record = next
	c.markDirty()
	return nil
}

// UpdateSection replaces one section with a JSON value.
func (c *Controller) UpdateSection(key catalog.SectionKey, data []byte) error {
	return c.Apply(func(rec *careplan.Record) error {
		return rec.SetSectionJSON(key, data)
	})
}

// Next saves and moves to the following active step.
func (c *Controller) Next(ctx context.Context) error {
	return c.navigate(ctx, "next", func(active []catalog.Step, idx int) (int, error) {
		if idx < 0 {
			return catalog.First(active), nil
		}
		if idx >= len(active)-1 {
			return 0, ErrLastStep
		}
		return active[idx+1].ID, nil
	})
}

// Previous saves and moves to the preceding active step.
func (c *Controller) Previous(ctx context.Context) error {
	return c.navigate(ctx, "previous", func(active []catalog.Step, idx int) (int, error) {
		if idx < 0 {
			return catalog.First(active), nil
		}
		if idx == 0 {
			return 0, ErrFirstStep
		}
		return active[idx-1].ID, nil
	})
}

// JumpTo saves and moves to stepID, which must be active.
func (c *Controller) JumpTo(ctx context.Context, stepID int) error {
	return c.navigate(ctx, "jump", func(active []catalog.Step, _ int) (int, error) {
		if !catalog.Contains(active, stepID) {
			return 0, fmt.Errorf("%w: %d", ErrUnknownStep, stepID)
		}
		return stepID, nil
	})
}

// navigate saves before moving. A failed save keeps the current step and
// returns the SaveError.
func (c *Controller) navigate(ctx context.Context, op string, target func([]catalog.Step, int) (int, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditable(); err != nil {
		return err
	}
	c.lastActivity = time.Now()

	active := catalog.Filter(c.catalog, c.category)
	next, err := target(active, catalog.IndexOf(active, c.stepID))
	if err != nil {
		return err
	}

	c.state = StateNavigating
	if err := c.flushLocked(ctx, op); err != nil {
		c.state = StateEditing
		return err
	}
	c.stepID = next
	c.state = StateEditing
	if c.handle.DraftID() != "" {
		c.dirty = true
		c.debouncer.Trigger()
	}
	return nil
}

// Flush writes the current state now.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditable(); err != nil {
		return err
	}
	c.lastActivity = time.Now()
	return c.flushLocked(ctx, "explicit")
}

// Undo restores the most recent snapshot and saves it. Pending edits are
// autosaved first so they can themselves be undone.
func (c *Controller) Undo(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditable(); err != nil {
		return err
	}
	c.lastActivity = time.Now()

	if err := c.cycleLocked(ctx, false, "autosave"); err != nil {
		return err
	}
	snap, ok := c.undo.Pop()
	if !ok {
		return ErrNothingToUndo
	}

	prev := c.record
	c.record = snap
	if err := c.handle.SaveDraft(ctx, c.saveInput()); err != nil {
		c.undo.Push(snap)
		c.record = prev
		return c.saveFailed("undo", err)
	}
	c.baseline = snap.Clone()
	c.dirty = false
	c.state = StateEditing
	return nil
}

// Readiness evaluates the finalize guard against the current record.
func (c *Controller) Readiness() careplan.Readiness {
	c.mu.Lock()
	defer c.mu.Unlock()
	return careplan.CheckReadiness(c.record, c.completion())
}

// Finalize commits the plan. It is only available on the last active step.
// A plan that is not ready returns ErrConfirmationRequired with the unmet
// conditions unless p.Override is set.
func (c *Controller) Finalize(ctx context.Context, p FinalizeParams) (*FinalizeResult, error) {
	if p.Status != "" && !p.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}

	c.mu.Lock()
	if err := c.requireEditable(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.lastActivity = time.Now()

	if !catalog.IsLast(catalog.Filter(c.catalog, c.category), c.stepID) {
		c.mu.Unlock()
		return nil, ErrNotLastStep
	}

	readiness := careplan.CheckReadiness(c.record, c.completion())
	if !readiness.Ready && !p.Override {
		c.mu.Unlock()
		return &FinalizeResult{Readiness: readiness}, ErrConfirmationRequired
	}

	status := p.Status
	if status == "" {
		status = careplan.DefaultStatus(p.Actor)
	}

	c.state = StateFinalizing
	recordID, err := c.handle.Finalize(ctx, draft.FinalizeInput{
		SaveInput: c.saveInput(),
		Status:    status,
		Actor:     p.Actor,
	})
	if err != nil {
		c.state = StateEditing
		c.lastErr = &FinalizeError{Err: err}
		c.logger.Warn("finalize failed", "error", err)
		c.mu.Unlock()
		return nil, c.lastErr
	}

	c.state = StateClosed
	c.dirty = false
	c.lastErr = nil
	c.mu.Unlock()
	c.shutdown()

	c.logger.Info("care plan finalized", "committed_id", recordID, "status", status)
	return &FinalizeResult{RecordID: recordID, Status: status, Readiness: readiness}, nil
}

// Close saves and closes the wizard. It always ends in Closed; the save
// error, if any, is returned.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	var err error
	if c.state != StateLoading {
		err = c.flushLocked(ctx, "close")
	}
	c.state = StateClosed
	c.mu.Unlock()
	c.shutdown()

	if err != nil {
		c.logger.Warn("save before close failed", "error", err)
	}
	return err
}

// View returns a snapshot of the controller.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := catalog.Filter(c.catalog, c.category)
	completion := c.completion()
	v := View{
		State:      c.state,
		SubjectID:  c.params.SubjectID,
		RecordID:   c.params.RecordID,
		Category:   c.category,
		StepID:     c.stepID,
		Steps:      active,
		IsLastStep: catalog.IsLast(active, c.stepID),
		Record:     c.record.Clone(),
		Completion: completion,
		Readiness:  careplan.CheckReadiness(c.record, completion),
		CanUndo:    c.undo.CanUndo(),
		Dirty:      c.dirty,
	}
	if c.handle != nil {
		v.DraftID = c.handle.DraftID()
	}
	if c.lastErr != nil {
		v.Error = c.lastErr.Error()
	}
	return v
}

// DismissError clears the surfaced error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

// Err returns the surfaced error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastActivity returns when the controller last handled a user operation.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func (c *Controller) requireEditable() error {
	switch c.state {
	case StateReady, StateEditing:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
}

func (c *Controller) markDirty() {
	c.state = StateEditing
	c.dirty = true
	c.lastActivity = time.Now()
	c.debouncer.Trigger()
}

func (c *Controller) completion() careplan.Completion {
	return careplan.Score(c.catalog, c.record, c.category, c.counts)
}

func (c *Controller) saveInput() draft.SaveInput {
	return draft.SaveInput{
		Record:   c.record.Clone(),
		StepID:   c.stepID,
		Category: c.category,
		Context:  c.counts,
	}
}

// flushLocked is the explicit save. A new plan nobody has edited has no
// draft and nothing to save.
func (c *Controller) flushLocked(ctx context.Context, op string) error {
	if c.handle.DraftID() == "" && !c.dirty {
		return nil
	}
	return c.cycleLocked(ctx, true, op)
}

// cycleLocked snapshots the last saved state onto the undo stack when the
// record changed, then writes. A failed write pops the snapshot again and
// leaves the record as it is.
func (c *Controller) cycleLocked(ctx context.Context, explicit bool, op string) error {
	if !explicit && !c.dirty {
		return nil
	}

	pushed := false
	if !reflect.DeepEqual(c.record, c.baseline) {
		c.undo.Push(c.baseline)
		pushed = true
	}

	var err error
	if explicit {
		err = c.handle.SaveDraft(ctx, c.saveInput())
	} else {
		_, err = c.handle.Autosave(ctx, c.saveInput())
	}
	if err != nil {
		if pushed {
			c.undo.Pop()
		}
		return c.saveFailed(op, err)
	}

	c.baseline = c.record.Clone()
	c.dirty = false
	if errors.As(c.lastErr, new(*SaveError)) {
		c.lastErr = nil
	}
	return nil
}

func (c *Controller) saveFailed(op string, err error) error {
	saveErr := &SaveError{Op: op, Err: err}
	c.lastErr = saveErr
	c.logger.Warn("draft save failed", "op", op, "draft_id", c.handle.DraftID(), "error", err)
	return saveErr
}

func (c *Controller) startLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	c.stopLoop = cancel
	c.loopDone = make(chan struct{})
	go c.run(ctx, c.loopDone)
}

func (c *Controller) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.debouncer.C():
			c.autosave(ctx)
		}
	}
}

func (c *Controller) autosave(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return
	}
	_ = c.cycleLocked(ctx, false, "autosave")
}

// shutdown stops the autosave loop. It must be called without c.mu held.
func (c *Controller) shutdown() {
	c.debouncer.Stop()
	c.mu.Lock()
	stop, done := c.stopLoop, c.loopDone
	c.stopLoop, c.loopDone = nil, nil
	c.mu.Unlock()
	if stop != nil {
		stop()
		<-done
	}
}
