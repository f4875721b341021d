package forma_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	forma "github.com/reoring/forma"
	"github.com/reoring/forma/fieldpath"
)

// requireMinLen builds a schema that demands a minimum length for one
// string field. The tests use it instead of a full validator backend so the
// behavior under test stays the adapter's, not a third-party library's.
func requireMinLen(field string, n int) forma.Schema {
	return forma.SchemaFunc(func(ctx context.Context, v any) (any, error) {
		m, _ := v.(map[string]any)
		s, _ := m[field].(string)
		if len(s) < n {
			return nil, forma.FieldErrors{{
				Path:    fieldpath.MustParse(field),
				Message: fmt.Sprintf("must be at least %d characters", n),
			}}
		}
		return v, nil
	})
}

// TestValidateValues_NilSchemaAlwaysValid checks the no-schema rule: every
// run is valid and the input comes back as the value.
func TestValidateValues_NilSchemaAlwaysValid(t *testing.T) {
	in := map[string]any{"name": ""}
	res := forma.ValidateValues(context.Background(), nil, in)
	if !res.Valid {
		t.Fatalf("expected valid result without a schema, got: %+v", res)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got: %v", res.Errors)
	}
	if got, ok := res.Value.(map[string]any); !ok || got["name"] != "" {
		t.Fatalf("expected input passed through as value, got: %v", res.Value)
	}
}

// TestValidateValues_TagsSchemaSource checks that untagged errors from a
// schema come out as client errors.
func TestValidateValues_TagsSchemaSource(t *testing.T) {
	res := forma.ValidateValues(context.Background(), requireMinLen("name", 2), map[string]any{"name": "x"})
	if res.Valid {
		t.Fatalf("expected invalid result, got: %+v", res)
	}
	if res.Value != nil {
		t.Fatalf("expected nil value on failure, got: %v", res.Value)
	}
	if len(res.Errors) != 1 || res.Errors[0].Source != forma.SourceSchema {
		t.Fatalf("expected one client-sourced error, got: %v", res.Errors)
	}
	if !res.Errors[0].Path.Equal(fieldpath.MustParse("name")) {
		t.Fatalf("expected error at /name, got: %v", res.Errors[0].Path)
	}
}

// TestValidateValues_AsServerRetagsErrors checks the server-mode knob: the
// same schema failure is reported as a server error.
func TestValidateValues_AsServerRetagsErrors(t *testing.T) {
	res := forma.ValidateValues(context.Background(), requireMinLen("name", 2),
		map[string]any{"name": ""}, forma.AsServer())
	if res.Valid || len(res.Errors) != 1 {
		t.Fatalf("expected one error, got: %+v", res)
	}
	if res.Errors[0].Source != forma.SourceServer {
		t.Fatalf("expected server source, got: %v", res.Errors[0].Source)
	}
}

// TestValidateValues_PlainErrorBecomesRootMessage checks that a schema
// returning a non-FieldErrors error surfaces as a single root entry.
func TestValidateValues_PlainErrorBecomesRootMessage(t *testing.T) {
	s := forma.SchemaFunc(func(ctx context.Context, v any) (any, error) {
		return nil, errors.New("backend unreachable")
	})
	res := forma.ValidateValues(context.Background(), s, map[string]any{})
	if res.Valid || len(res.Errors) != 1 {
		t.Fatalf("expected one error, got: %+v", res)
	}
	e := res.Errors[0]
	if !e.Path.IsRoot() || e.Message != "backend unreachable" || e.Source != forma.SourceSchema {
		t.Fatalf("expected root client error with the message, got: %+v", e)
	}
}

// TestValidateValues_RootMessagesVeto checks that root messages force an
// otherwise passing run to fail with root-level server errors.
func TestValidateValues_RootMessagesVeto(t *testing.T) {
	res := forma.ValidateValues(context.Background(), requireMinLen("name", 2),
		map[string]any{"name": "long enough"}, forma.RootMessages("form locked"))
	if res.Valid {
		t.Fatalf("expected veto to fail the run, got: %+v", res)
	}
	if res.Value != nil {
		t.Fatalf("expected nil value under veto, got: %v", res.Value)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly the veto error, got: %v", res.Errors)
	}
	e := res.Errors[0]
	if !e.Path.IsRoot() || e.Message != "form locked" || e.Source != forma.SourceServer {
		t.Fatalf("expected root server error, got: %+v", e)
	}
}

// TestValidateValues_RootMessagesAppendToFailures checks that veto messages
// stack on top of real schema errors rather than replacing them.
func TestValidateValues_RootMessagesAppendToFailures(t *testing.T) {
	res := forma.ValidateValues(context.Background(), requireMinLen("name", 2),
		map[string]any{"name": ""}, forma.RootMessages("form locked"))
	if res.Valid || len(res.Errors) != 2 {
		t.Fatalf("expected schema error plus veto, got: %+v", res)
	}
	if got := res.Errors.BySource(forma.SourceServer).Messages(); len(got) != 1 || got[0] != "form locked" {
		t.Fatalf("expected the veto as a server error, got: %v", got)
	}
}

// TestValidateValues_LastOptionWins checks the option-merging rule for
// repeated options.
func TestValidateValues_LastOptionWins(t *testing.T) {
	res := forma.ValidateValues(context.Background(), requireMinLen("name", 2),
		map[string]any{"name": ""},
		forma.ValidateOpt{AsServer: true},
		forma.ValidateOpt{AsServer: false},
	)
	if len(res.Errors) != 1 || res.Errors[0].Source != forma.SourceSchema {
		t.Fatalf("expected the last option to win, got: %v", res.Errors)
	}
}

// TestValidateValuesAsync_DeliversOneResult checks the channel variant:
// one result, then the channel closes.
func TestValidateValuesAsync_DeliversOneResult(t *testing.T) {
	ch := forma.ValidateValuesAsync(context.Background(), requireMinLen("name", 2),
		map[string]any{"name": "x"})

	select {
	case res := <-ch:
		if res.Valid || len(res.Errors) != 1 {
			t.Fatalf("expected the synchronous outcome, got: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a result before the deadline")
	}

	if _, open := <-ch; open {
		t.Fatalf("expected the channel to be closed after the result")
	}
}
