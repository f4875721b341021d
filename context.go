package forma

import (
	"context"
)

// ctxKeyForm is a private context key; the struct type guarantees no
// collisions with other packages' keys.
type ctxKeyForm struct{}

// NewContext attaches a form to the context so an arbitrary tree of callees
// can reach the one shared instance without threading it through every
// signature.
func NewContext(ctx context.Context, f *Form) context.Context {
	return context.WithValue(ctx, ctxKeyForm{}, f)
}

// FromContext retrieves the form attached by NewContext.
func FromContext(ctx context.Context) (*Form, bool) {
	f, ok := ctx.Value(ctxKeyForm{}).(*Form)
	return f, ok
}
