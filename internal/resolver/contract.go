package resolver

import "fmt"

// Stage is the phase of argument resolution that failed: reading the
// source and handler selectors, loading plugins, or declaring and parsing
// request flags.
type Stage string

const (
	StageSelectors Stage = "SELECTORS"
	StagePlugins   Stage = "PLUGINS"
	StageFlags     Stage = "FLAGS"
)

// ContractError reports why a command line could not be turned into a
// request. Code is one of the stable codes in error_codes.go; Op names the
// selector, plugin path or flag involved, when there is one.
type ContractError struct {
	Stage Stage
	Code  string
	Op    string
	Err   error
}

func (e *ContractError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == "" {
		return fmt.Sprintf("[%s:%s] %v", e.Stage, e.Code, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Code, e.Op, e.Err)
}

func (e *ContractError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WrapContractError tags err with the phase and code the CLI reports for
// it. A nil err stays nil, so callers can wrap unconditionally.
func WrapContractError(stage Stage, code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ContractError{
		Stage: stage,
		Code:  code,
		Op:    op,
		Err:   err,
	}
}
