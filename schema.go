package forma

import (
	"context"
)

// Schema is the contract a validator must satisfy to drive a form. Parse
// transforms an unknown value tree into its validated form, returning an
// error when validation fails. When the error carries FieldErrors (via
// errors.As), each entry's path locates the offending field; any other error
// is attributed to the root.
//
// Drivers for concrete validators live under validator/.
type Schema interface {
	Parse(ctx context.Context, v any) (any, error)
}

// SchemaFunc adapts a plain function to the Schema interface.
type SchemaFunc func(ctx context.Context, v any) (any, error)

func (f SchemaFunc) Parse(ctx context.Context, v any) (any, error) { return f(ctx, v) }

// Result is the normalized outcome of a validation pass.
type Result struct {
	Valid bool
	// Value is the parsed value on success and nil otherwise.
	Value  any
	Errors FieldErrors
}

// ValidateOpt tunes a validation pass. Pass at most one; when several are
// given the last wins.
type ValidateOpt struct {
	// AsServer tags produced errors SourceServer instead of SourceSchema,
	// for validating against a server-side schema copy.
	AsServer bool
	// RootMessages appends root-path SourceServer errors and vetoes success:
	// when present the result is invalid even if the schema accepts the
	// input.
	RootMessages []string
}

// AsServer returns a ValidateOpt that tags produced errors SourceServer.
func AsServer() ValidateOpt { return ValidateOpt{AsServer: true} }

// RootMessages returns a ValidateOpt carrying root-level messages.
func RootMessages(msgs ...string) ValidateOpt { return ValidateOpt{RootMessages: msgs} }

// ValidateValues runs the schema over a value tree and normalizes the
// outcome. A nil schema accepts everything. Root messages are attached as
// SourceServer errors at the root path and force an invalid result with a
// nil value even when the schema itself passed.
func ValidateValues(ctx context.Context, s Schema, v any, opts ...ValidateOpt) Result {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}

	res := Result{Valid: true, Value: v}
	if s != nil {
		parsed, err := s.Parse(ctx, v)
		if err != nil {
			res = Result{Errors: normalizeErrors(err, opt.AsServer)}
		} else {
			res = Result{Valid: true, Value: parsed}
		}
	}

	if len(opt.RootMessages) > 0 {
		for _, m := range opt.RootMessages {
			res.Errors = AppendFieldErrors(res.Errors, FieldError{Message: m, Source: SourceServer})
		}
		res.Valid = false
		res.Value = nil
	}
	return res
}

// ValidateValuesAsync runs ValidateValues on its own goroutine and delivers
// the result on a one-shot channel. The channel is buffered, so the result
// is never lost even when the receiver gives up.
func ValidateValuesAsync(ctx context.Context, s Schema, v any, opts ...ValidateOpt) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- ValidateValues(ctx, s, v, opts...)
	}()
	return ch
}

func normalizeErrors(err error, asServer bool) FieldErrors {
	fe, ok := AsFieldErrors(err)
	if !ok || len(fe) == 0 {
		fe = FieldErrors{{Message: err.Error()}}
	}
	out := make(FieldErrors, len(fe))
	for i, e := range fe {
		if asServer {
			e.Source = SourceServer
		} else if e.Source == "" {
			e.Source = SourceSchema
		}
		out[i] = e
	}
	return out
}
