package forma

import (
	"log/slog"
	"time"

	"github.com/reoring/forma/fieldpath"
	"github.com/reoring/forma/internal/debounce"
)

// Option configures a Form at construction time.
type Option func(*Form)

// WithInitialValues sets the baseline value tree. The tree is deep-copied,
// so the caller's map stays independent of the form. Reset restores this
// baseline until ResetWithValues adopts a new one.
func WithInitialValues(values map[string]any) Option {
	return func(f *Form) {
		if values == nil {
			return
		}
		f.initial = fieldpath.Clone(values).(map[string]any)
	}
}

// WithSchema sets the validator run by Validate, change-triggered validation
// and Submit. Without a schema every validation pass succeeds.
func WithSchema(s Schema) Option {
	return func(f *Form) { f.schema = s }
}

// WithSubmitHandler sets the function Submit invokes once validation passes.
func WithSubmitHandler(h SubmitHandler) Option {
	return func(f *Form) { f.handler = h }
}

// WithLogger sets the logger for declined resets, duplicate submissions and
// handler failures. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// WithValidateOnChange re-runs schema validation after every value mutation,
// reattaching errors scoped to the written subtree.
func WithValidateOnChange() Option {
	return func(f *Form) { f.validateOnChange = true }
}

// WithValidationDebounce coalesces change-triggered validation passes into
// one full-tree pass after d of quiet. Implies WithValidateOnChange. The
// mutation itself is never deferred; only the re-validation is.
func WithValidationDebounce(d time.Duration) Option {
	return func(f *Form) {
		if d <= 0 {
			return
		}
		f.deb = debounce.New(d)
		f.validateOnChange = true
	}
}
