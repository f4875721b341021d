package forma

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/reoring/forma/fieldpath"
	"github.com/reoring/forma/internal/debounce"
)

// State is a point-in-time snapshot of a form. Values is the live tree:
// every mutation replaces the containers along the written path, so a
// snapshot never changes underneath its holder, but it must be treated as
// read-only. Touched and Errors are copies.
type State struct {
	Values        map[string]any
	Touched       map[string]bool
	Errors        FieldErrors
	IsSubmitting  bool
	CanSubmit     bool
	LastValidated time.Time
	SubmissionID  string
}

// Form owns the values tree, the touched map and the error list for one
// form, and drives validation and the submission lifecycle. All methods are
// safe for concurrent use.
//
// Values are addressed with fieldpath.Path. Mutating operations never fail
// on paths that do not resolve; they degrade to no-ops so UI code stays
// resilient to races between field removal and in-flight edits.
type Form struct {
	mu            sync.Mutex
	values        map[string]any
	touched       map[string]bool
	errors        FieldErrors
	submitting    bool
	canSubmit     bool
	lastValidated time.Time
	submissionID  string

	initial          map[string]any
	schema           Schema
	handler          SubmitHandler
	log              *slog.Logger
	validateOnChange bool
	deb              *debounce.Debouncer

	subs    map[int]func(State)
	nextSub int
}

// New builds a form from the given options.
func New(opts ...Option) *Form {
	f := &Form{
		initial:   map[string]any{},
		touched:   map[string]bool{},
		canSubmit: true,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:      map[int]func(State){},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.values = fieldpath.Clone(f.initial).(map[string]any)
	return f
}

// Close releases the form's timers. The form itself stays readable.
func (f *Form) Close() {
	if f.deb != nil {
		f.deb.Stop()
	}
}

// Subscribe registers fn to run after every state change with the resulting
// snapshot. Callbacks run outside the form's lock on the mutating goroutine,
// so they may call back into the form. The returned cancel suppresses
// further calls.
func (f *Form) Subscribe(fn func(State)) (cancel func()) {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// ---- snapshots and notification ----

func (f *Form) snapshotLocked() State {
	touched := make(map[string]bool, len(f.touched))
	for k, v := range f.touched {
		touched[k] = v
	}
	errs := make(FieldErrors, len(f.errors))
	copy(errs, f.errors)
	return State{
		Values:        f.values,
		Touched:       touched,
		Errors:        errs,
		IsSubmitting:  f.submitting,
		CanSubmit:     f.canSubmit,
		LastValidated: f.lastValidated,
		SubmissionID:  f.submissionID,
	}
}

func (f *Form) snapshotAndSubsLocked() (State, []func(State)) {
	st := f.snapshotLocked()
	subs := make([]func(State), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	return st, subs
}

func publish(st State, subs []func(State)) {
	for _, fn := range subs {
		fn(st)
	}
}

// apply runs mutate under the lock, then notifies subscribers.
func (f *Form) apply(mutate func(*Form)) {
	f.mu.Lock()
	mutate(f)
	st, subs := f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)
}

// ---- reads ----

// State returns a snapshot of the current form state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Values returns the current value tree. Treat it as read-only; mutations go
// through the path-addressed API.
func (f *Form) Values() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// GetValue returns the value at the path, or false when the path does not
// resolve. A field holding nil resolves to (nil, true).
func (f *Form) GetValue(p fieldpath.Path) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fieldpath.Get(f.values, p)
}

// HasField reports whether the path resolves to a location in the values
// tree. Fields holding nil count as present.
func (f *Form) HasField(p fieldpath.Path) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fieldpath.Has(f.values, p)
}

// Touched reports whether the path has been marked touched.
func (f *Form) Touched(p fieldpath.Path) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[p.Key()]
}

// Errors returns a copy of the current error list.
func (f *Form) Errors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(FieldErrors, len(f.errors))
	copy(out, f.errors)
	return out
}

// IsValid reports whether the error list is empty across all sources.
func (f *Form) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) == 0
}

// IsSubmitting reports whether a submission is in flight.
func (f *Form) IsSubmitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// CanSubmit reflects the most recent validation verdict. Server errors do
// not flip it; they describe a field, not schema validity.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmit
}

// LastValidated returns the time of the most recent validation pass, or the
// zero time when none has run.
func (f *Form) LastValidated() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastValidated
}

// SubmissionID returns the identity of the most recent submission, or ""
// when none has started since construction or the last reset.
func (f *Form) SubmissionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissionID
}

// ClientSubmissionError returns the current client-submission messages.
func (f *Form) ClientSubmissionError() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.BySource(SourceSubmit).Messages()
}

// ---- mutations ----

// SetValue writes a value at the path, marks the path and its ancestors
// touched, and optimistically clears schema and server errors in the written
// subtree. With change-triggered validation enabled the subtree is
// re-validated. Empty and malformed paths are no-ops.
func (f *Form) SetValue(p fieldpath.Path, v any) {
	f.apply(func(f *Form) { f.setValueLocked(p, v) })
}

// ClearValue replaces the value at the path with its empty-shape equivalent
// (sequences become empty, maps keep their keys with emptied values, numbers
// zero, booleans false, everything else the empty string). A path that does
// not resolve is a no-op. The empty path clears the whole tree.
func (f *Form) ClearValue(p fieldpath.Path) {
	f.apply(func(f *Form) { f.clearValueLocked(p) })
}

// DeleteField removes the field at the path. Removing a sequence element
// splices it out and reindexes error paths and touched entries for the later
// elements, keeping error-to-field correspondence intact. Removing a map key
// drops the key along with errors and touched entries underneath it.
func (f *Form) DeleteField(p fieldpath.Path) {
	f.apply(func(f *Form) { f.deleteFieldLocked(p) })
}

// SetFieldTouched marks the path touched. Marking true also marks every
// ancestor; marking false affects only the exact path.
func (f *Form) SetFieldTouched(p fieldpath.Path, touched bool) {
	f.apply(func(f *Form) { f.touchLocked(p, touched) })
}

// SetErrors overwrites the whole error list unconditionally.
func (f *Form) SetErrors(list FieldErrors) {
	f.apply(func(f *Form) { f.setErrorsLocked(list) })
}

// SetServerErrors replaces all server-sourced errors with the given entries.
// Entries whose path does not resolve in the current values are dropped,
// except root-pathed ones. Schema and client-submission errors are
// untouched.
func (f *Form) SetServerErrors(list FieldErrors) {
	f.apply(func(f *Form) { f.setServerErrorsLocked(list) })
}

// SetServerError replaces the server errors at exactly the given path, one
// entry per message. No messages clears the slot.
func (f *Form) SetServerError(p fieldpath.Path, msgs ...string) {
	f.apply(func(f *Form) { f.setServerErrorLocked(p, msgs...) })
}

// SetClientSubmissionError replaces the client-submission errors, one
// root-pathed entry per message. No messages clears them.
func (f *Form) SetClientSubmissionError(msgs ...string) {
	f.apply(func(f *Form) { f.setClientSubmissionErrorLocked(msgs...) })
}

// ClearClientSubmissionError removes all client-submission errors.
func (f *Form) ClearClientSubmissionError() {
	f.apply(func(f *Form) { f.setClientSubmissionErrorLocked() })
}

// Reset restores the baseline values and clears touched state, errors and
// the submission identity. While a submission is in flight it declines and
// returns false unless force is set, in which case the in-flight
// submission's identity is invalidated and its pending helper effects are
// discarded.
func (f *Form) Reset(force bool) bool {
	return f.resetTo(nil, force)
}

// ResetWithValues is Reset with a new baseline tree, which later Reset calls
// restore. A nil tree adopts an empty one.
func (f *Form) ResetWithValues(values map[string]any, force bool) bool {
	if values == nil {
		values = map[string]any{}
	}
	return f.resetTo(values, force)
}

func (f *Form) resetTo(newBaseline map[string]any, force bool) bool {
	f.mu.Lock()
	if !f.resetLocked(newBaseline, force) {
		f.mu.Unlock()
		return false
	}
	st, subs := f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)
	return true
}

// Validate runs full-tree validation. With force set, every existing field
// path is marked touched first so all errors surface. Schema-sourced errors
// are replaced by the fresh result; server and client-submission errors are
// kept. It updates CanSubmit and LastValidated and returns the verdict.
// Without a schema the form is always valid.
func (f *Form) Validate(ctx context.Context, force bool) bool {
	f.mu.Lock()
	if f.deb != nil {
		// an explicit pass supersedes any pending debounced one
		f.deb.Stop()
	}
	if force {
		f.touchAllLocked()
	}
	values := f.values
	schema := f.schema
	f.mu.Unlock()

	res := ValidateValues(ctx, schema, values)

	f.mu.Lock()
	f.errors = append(dropSource(f.errors, SourceSchema), res.Errors...)
	f.canSubmit = res.Valid
	f.lastValidated = time.Now()
	st, subs := f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)
	return res.Valid
}

// ---- locked cores ----
//
// The cores hold the mutation logic so that both the public methods and the
// submission-scoped helper bundle can run them under one lock acquisition.

func (f *Form) setValueLocked(p fieldpath.Path, v any) {
	if p.IsRoot() || !pathOK(p) {
		return
	}
	newRoot, ok := fieldpath.Set(f.values, p, v).(map[string]any)
	if !ok {
		return
	}
	f.values = newRoot
	f.touchLocked(p, true)
	f.errors = dropUnder(f.errors, p, SourceSchema, SourceServer)
	f.revalidateAfterChangeLocked(p)
}

func (f *Form) clearValueLocked(p fieldpath.Path) {
	if !pathOK(p) {
		return
	}
	cur, ok := fieldpath.Get(f.values, p)
	if !ok {
		return
	}
	if p.IsRoot() {
		f.values = fieldpath.Empty(cur).(map[string]any)
	} else {
		newRoot, ok := fieldpath.Set(f.values, p, fieldpath.Empty(cur)).(map[string]any)
		if !ok {
			return
		}
		f.values = newRoot
	}
	f.errors = dropUnder(f.errors, p, SourceSchema, SourceServer)
	f.revalidateAfterChangeLocked(p)
}

func (f *Form) deleteFieldLocked(p fieldpath.Path) {
	if p.IsRoot() || !pathOK(p) {
		return
	}
	if !fieldpath.Has(f.values, p) {
		return
	}
	newRoot, ok := fieldpath.Delete(f.values, p).(map[string]any)
	if !ok {
		return
	}
	f.values = newRoot

	parent := p.Parent()
	last, _ := p.Last()
	if last.IsIndex {
		f.errors = ReindexRemove(f.errors, parent, last.Index)
		f.reindexTouchedLocked(parent, removeRewrite(last.Index))
	} else {
		f.errors = dropUnder(f.errors, p, SourceSchema, SourceServer)
		f.dropTouchedUnderLocked(p)
	}
	f.revalidateAfterChangeLocked(parent)
}

func (f *Form) touchLocked(p fieldpath.Path, touched bool) {
	if touched {
		for i := 1; i <= len(p); i++ {
			f.touched[fieldpath.New(p[:i]...).Key()] = true
		}
		return
	}
	f.touched[p.Key()] = false
}

func (f *Form) touchAllLocked() {
	for _, p := range fieldpath.Collect(f.values) {
		f.touched[p.Key()] = true
	}
}

func (f *Form) setErrorsLocked(list FieldErrors) {
	out := make(FieldErrors, len(list))
	copy(out, list)
	f.errors = out
}

func (f *Form) setServerErrorsLocked(list FieldErrors) {
	kept := dropSource(f.errors, SourceServer)
	for _, e := range list {
		if !e.Path.IsRoot() && !fieldpath.Has(f.values, e.Path) {
			f.log.Debug("server error dropped: path does not resolve", "path", e.Path.String())
			continue
		}
		e.Source = SourceServer
		kept = append(kept, e)
	}
	f.errors = kept
}

func (f *Form) setServerErrorLocked(p fieldpath.Path, msgs ...string) {
	f.errors = ReplaceAt(f.errors, p, SourceServer, msgs...)
}

func (f *Form) setClientSubmissionErrorLocked(msgs ...string) {
	kept := dropSource(f.errors, SourceSubmit)
	for _, m := range msgs {
		kept = append(kept, FieldError{Message: m, Source: SourceSubmit})
	}
	f.errors = kept
}

func (f *Form) resetLocked(newBaseline map[string]any, force bool) bool {
	if f.submitting && !force {
		f.log.Warn("reset declined: submission in flight", "submission_id", f.submissionID)
		return false
	}
	if f.submitting {
		f.log.Warn("force reset cancelled in-flight submission", "submission_id", f.submissionID)
	}
	if newBaseline != nil {
		f.initial = fieldpath.Clone(newBaseline).(map[string]any)
	}
	if f.deb != nil {
		f.deb.Stop()
	}
	f.values = fieldpath.Clone(f.initial).(map[string]any)
	f.touched = map[string]bool{}
	f.errors = nil
	f.submitting = false
	f.submissionID = ""
	f.canSubmit = true
	f.lastValidated = time.Time{}
	return true
}

// revalidateAfterChangeLocked re-runs the schema after a mutation when
// change-triggered validation is on. Inline passes replace schema errors
// only inside the written subtree; a configured debouncer defers a full-tree
// pass to the trailing edge instead.
func (f *Form) revalidateAfterChangeLocked(scope fieldpath.Path) {
	if !f.validateOnChange || f.schema == nil {
		return
	}
	if f.deb != nil {
		f.deb.Trigger(func() { f.Validate(context.Background(), false) })
		return
	}
	res := ValidateValues(context.Background(), f.schema, f.values)
	kept := make(FieldErrors, 0, len(f.errors))
	for _, e := range f.errors {
		if e.source() == SourceSchema && e.Path.HasPrefix(scope) {
			continue
		}
		kept = append(kept, e)
	}
	f.errors = append(kept, res.Errors.Under(scope)...)
	f.canSubmit = res.Valid
	f.lastValidated = time.Now()
}

// ---- touched-map bookkeeping ----

func (f *Form) reindexTouchedLocked(arrayPath fieldpath.Path, rewrite func(int) (int, bool)) {
	out := make(map[string]bool, len(f.touched))
	for k, v := range f.touched {
		p, err := fieldpath.FromKey(k)
		if err != nil {
			out[k] = v
			continue
		}
		np, keep := reindexPath(p, arrayPath, rewrite)
		if !keep {
			continue
		}
		out[np.Key()] = v
	}
	f.touched = out
}

func (f *Form) dropTouchedUnderLocked(p fieldpath.Path) {
	for k := range f.touched {
		kp, err := fieldpath.FromKey(k)
		if err != nil {
			continue
		}
		if kp.HasPrefix(p) {
			delete(f.touched, k)
		}
	}
}

func pathOK(p fieldpath.Path) bool {
	for _, s := range p {
		if s.IsIndex && s.Index < 0 {
			return false
		}
	}
	return true
}

// ---- sequence item operations (used by ArrayView) ----

func (f *Form) appendItemLocked(arrayPath fieldpath.Path, item any) {
	cur, _ := fieldpath.Get(f.values, arrayPath)
	arr, _ := cur.([]any)
	f.setValueLocked(arrayPath.At(len(arr)), item)
}

func (f *Form) moveItemLocked(arrayPath fieldpath.Path, from, to int) {
	arr, ok := f.sequenceAtLocked(arrayPath)
	if !ok {
		return
	}
	n := len(arr)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	out := make([]any, 0, n)
	out = append(out, arr[:from]...)
	out = append(out, arr[from+1:]...)
	out = append(out, nil)
	copy(out[to+1:], out[to:])
	out[to] = arr[from]

	f.values = fieldpath.Set(f.values, arrayPath, out).(map[string]any)
	f.errors = ReindexMove(f.errors, arrayPath, from, to)
	f.reindexTouchedLocked(arrayPath, moveRewrite(from, to))
	f.revalidateAfterChangeLocked(arrayPath)
}

func (f *Form) insertItemLocked(arrayPath fieldpath.Path, i int, item any) {
	arr, ok := f.sequenceAtLocked(arrayPath)
	if !ok {
		return
	}
	if i < 0 || i > len(arr) {
		return
	}
	out := make([]any, 0, len(arr)+1)
	out = append(out, arr[:i]...)
	out = append(out, item)
	out = append(out, arr[i:]...)

	f.values = fieldpath.Set(f.values, arrayPath, out).(map[string]any)
	f.errors = ReindexInsert(f.errors, arrayPath, i)
	f.reindexTouchedLocked(arrayPath, insertRewrite(i))
	f.revalidateAfterChangeLocked(arrayPath)
}

func (f *Form) swapItemsLocked(arrayPath fieldpath.Path, i, j int) {
	arr, ok := f.sequenceAtLocked(arrayPath)
	if !ok {
		return
	}
	n := len(arr)
	if i < 0 || i >= n || j < 0 || j >= n || i == j {
		return
	}
	out := make([]any, n)
	copy(out, arr)
	out[i], out[j] = out[j], out[i]

	f.values = fieldpath.Set(f.values, arrayPath, out).(map[string]any)
	f.errors = ReindexSwap(f.errors, arrayPath, i, j)
	f.reindexTouchedLocked(arrayPath, swapRewrite(i, j))
	f.revalidateAfterChangeLocked(arrayPath)
}

// sequenceAtLocked resolves the sequence at a non-root path. Missing paths
// and non-sequence values report false; item operations then degrade to
// no-ops.
func (f *Form) sequenceAtLocked(arrayPath fieldpath.Path) ([]any, bool) {
	if arrayPath.IsRoot() || !pathOK(arrayPath) {
		return nil, false
	}
	cur, ok := fieldpath.Get(f.values, arrayPath)
	if !ok {
		return nil, false
	}
	arr, ok := cur.([]any)
	return arr, ok
}
