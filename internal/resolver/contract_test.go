package resolver

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapContractError(t *testing.T) {
	root := errors.New("root")
	err := WrapContractError(StagePlugins, ErrCodePluginLoad, "load plugin a.cue", root)
	if err == nil {
		t.Fatalf("expected wrapped error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "[PLUGINS:PLUGIN_LOAD_FAILED]") {
		t.Fatalf("missing stage/code in error: %s", msg)
	}
	if !strings.Contains(msg, "load plugin a.cue") {
		t.Fatalf("missing op in error: %s", msg)
	}
	if !errors.Is(err, root) {
		t.Fatalf("wrapped error should unwrap to root cause")
	}
	var ce *ContractError
	if !errors.As(err, &ce) || ce.Code != ErrCodePluginLoad {
		t.Fatalf("expected ContractError with plugin load code, got %#v", err)
	}
}

func TestWrapContractErrorNil(t *testing.T) {
	if err := WrapContractError(StageFlags, ErrCodeSchemaShape, "op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestContractErrorWithoutOp(t *testing.T) {
	err := WrapContractError(StageSelectors, ErrCodeUnknownSource, "", errors.New(`no source "nope"`))
	if got, want := err.Error(), `[SELECTORS:UNKNOWN_SOURCE] no source "nope"`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	var nilErr *ContractError
	if nilErr.Error() != "<nil>" || nilErr.Unwrap() != nil {
		t.Fatalf("nil ContractError should render as <nil>")
	}
}

func TestStableErrorCodesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, code := range StableErrorCodes {
		if code == "" {
			t.Fatalf("empty error code")
		}
		if seen[code] {
			t.Fatalf("duplicate error code %s", code)
		}
		seen[code] = true
	}
}
