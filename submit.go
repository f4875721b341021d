package forma

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reoring/forma/fieldpath"
)

// SubmitHandler is the caller-supplied submission function. It receives the
// values current at submission time and a helper bundle scoped to that
// submission. A returned error (or a panic) becomes a client-submission
// error on the form; it never escapes Submit.
type SubmitHandler func(ctx context.Context, values map[string]any, helpers *SubmitHelpers) error

// Submit drives one submission attempt:
//
//  1. While another submission is in flight the call is declined with a
//     logged warning and returns false.
//  2. Server and client-submission errors are cleared, every existing field
//     path is marked touched, and a fresh submission identity is generated.
//  3. Full-tree validation runs. On an invalid result the errors land on the
//     form and the handler is never invoked.
//  4. Otherwise the handler runs with a helper bundle bound to this
//     submission's identity. A handler error or panic is recorded as a
//     client-submission error.
//
// Submit returns true whenever the attempt ran, whatever its outcome; the
// outcome itself is visible on the form state. It blocks until the handler
// returns, so callers wanting fire-and-forget semantics run it on its own
// goroutine.
//
// A forced reset while the handler is pending invalidates the submission's
// identity: the helper bundle's mutations turn into no-ops and the
// completion bookkeeping of the superseded attempt leaves the form alone.
func (f *Form) Submit(ctx context.Context) bool {
	f.mu.Lock()
	if f.submitting {
		f.log.Warn("submit declined: submission in flight", "submission_id", f.submissionID)
		f.mu.Unlock()
		return false
	}
	if f.deb != nil {
		f.deb.Stop()
	}
	f.errors = dropSource(dropSource(f.errors, SourceServer), SourceSubmit)
	f.touchAllLocked()
	id := uuid.New().String()
	f.submissionID = id
	f.submitting = true
	values := f.values
	schema := f.schema
	handler := f.handler
	st, subs := f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)

	res := ValidateValues(ctx, schema, values)

	f.mu.Lock()
	if f.submissionID != id {
		f.mu.Unlock()
		return true
	}
	f.errors = append(dropSource(f.errors, SourceSchema), res.Errors...)
	f.canSubmit = res.Valid
	f.lastValidated = time.Now()
	if !res.Valid {
		f.submitting = false
		st, subs = f.snapshotAndSubsLocked()
		f.mu.Unlock()
		publish(st, subs)
		return true
	}
	st, subs = f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)

	if handler != nil {
		if err := runSubmitHandler(ctx, handler, values, &SubmitHelpers{form: f, id: id}); err != nil {
			f.log.Warn("submit handler failed", "submission_id", id, "error", err)
			f.mu.Lock()
			if f.submissionID == id {
				f.setClientSubmissionErrorLocked(err.Error())
				st, subs = f.snapshotAndSubsLocked()
				f.mu.Unlock()
				publish(st, subs)
			} else {
				f.mu.Unlock()
			}
		}
	}

	f.mu.Lock()
	if f.submissionID != id {
		f.mu.Unlock()
		return true
	}
	f.submitting = false
	st, subs = f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)
	return true
}

// runSubmitHandler confines handler panics to the submission boundary.
func runSubmitHandler(ctx context.Context, h SubmitHandler, values map[string]any, helpers *SubmitHelpers) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit handler panicked: %v", r)
		}
	}()
	return h(ctx, values, helpers)
}

// SubmitHelpers is the mutation surface handed to a submit handler. Every
// method checks, under the form's lock, that the submission it was issued
// for is still the current one; once a forced reset or a later submission
// has invalidated that identity, the methods silently no-op. A slow handler
// can therefore never corrupt state it no longer owns.
type SubmitHelpers struct {
	form *Form
	id   string
}

// SubmissionID returns the identity of the submission the bundle is bound
// to.
func (h *SubmitHelpers) SubmissionID() string { return h.id }

// run executes mutate under the form lock when the bundle's submission is
// still current.
func (h *SubmitHelpers) run(mutate func(*Form)) {
	f := h.form
	f.mu.Lock()
	if f.submissionID != h.id {
		f.log.Debug("stale submission helper ignored", "submission_id", h.id)
		f.mu.Unlock()
		return
	}
	mutate(f)
	st, subs := f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)
}

// SetValue is Form.SetValue guarded by the submission identity.
func (h *SubmitHelpers) SetValue(p fieldpath.Path, v any) {
	h.run(func(f *Form) { f.setValueLocked(p, v) })
}

// ClearValue is Form.ClearValue guarded by the submission identity.
func (h *SubmitHelpers) ClearValue(p fieldpath.Path) {
	h.run(func(f *Form) { f.clearValueLocked(p) })
}

// DeleteField is Form.DeleteField guarded by the submission identity.
func (h *SubmitHelpers) DeleteField(p fieldpath.Path) {
	h.run(func(f *Form) { f.deleteFieldLocked(p) })
}

// SetFieldTouched is Form.SetFieldTouched guarded by the submission
// identity.
func (h *SubmitHelpers) SetFieldTouched(p fieldpath.Path, touched bool) {
	h.run(func(f *Form) { f.touchLocked(p, touched) })
}

// SetErrors is Form.SetErrors guarded by the submission identity.
func (h *SubmitHelpers) SetErrors(list FieldErrors) {
	h.run(func(f *Form) { f.setErrorsLocked(list) })
}

// SetServerErrors is Form.SetServerErrors guarded by the submission
// identity.
func (h *SubmitHelpers) SetServerErrors(list FieldErrors) {
	h.run(func(f *Form) { f.setServerErrorsLocked(list) })
}

// SetServerError is Form.SetServerError guarded by the submission identity.
func (h *SubmitHelpers) SetServerError(p fieldpath.Path, msgs ...string) {
	h.run(func(f *Form) { f.setServerErrorLocked(p, msgs...) })
}

// SetClientSubmissionError is Form.SetClientSubmissionError guarded by the
// submission identity.
func (h *SubmitHelpers) SetClientSubmissionError(msgs ...string) {
	h.run(func(f *Form) { f.setClientSubmissionErrorLocked(msgs...) })
}

// ClearClientSubmissionError is Form.ClearClientSubmissionError guarded by
// the submission identity.
func (h *SubmitHelpers) ClearClientSubmissionError() {
	h.run(func(f *Form) { f.setClientSubmissionErrorLocked() })
}

// Reset restores the baseline like Form.Reset. Without force it declines
// while the submission is in flight; with force it cancels the very
// submission the bundle belongs to, after which every further helper call
// no-ops.
func (h *SubmitHelpers) Reset(force bool) bool {
	return h.resetTo(nil, force)
}

// ResetWithValues is Form.ResetWithValues guarded by the submission
// identity.
func (h *SubmitHelpers) ResetWithValues(values map[string]any, force bool) bool {
	if values == nil {
		values = map[string]any{}
	}
	return h.resetTo(values, force)
}

func (h *SubmitHelpers) resetTo(newBaseline map[string]any, force bool) bool {
	f := h.form
	f.mu.Lock()
	if f.submissionID != h.id {
		f.log.Debug("stale submission helper ignored", "submission_id", h.id)
		f.mu.Unlock()
		return false
	}
	if !f.resetLocked(newBaseline, force) {
		f.mu.Unlock()
		return false
	}
	st, subs := f.snapshotAndSubsLocked()
	f.mu.Unlock()
	publish(st, subs)
	return true
}
