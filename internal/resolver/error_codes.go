package resolver

import "errors"

const (
	// Selectors stage
	ErrCodeUnknownSource         = "UNKNOWN_SOURCE"
	ErrCodeUnknownRequestHandler = "UNKNOWN_REQUEST_HANDLER"
	ErrCodeRegistry              = "REGISTRY_BUILD_ERROR"

	// Plugins stage
	ErrCodePluginLoad = "PLUGIN_LOAD_FAILED"

	// Flags stage
	ErrCodeSchemaShape  = "SCHEMA_SHAPE_MISMATCH"
	ErrCodeFlagConflict = "FLAG_CONFLICT"
)

// StableErrorCodes is the canonical registry of resolution error codes.
var StableErrorCodes = []string{
	ErrCodeUnknownSource,
	ErrCodeUnknownRequestHandler,
	ErrCodeRegistry,
	ErrCodePluginLoad,
	ErrCodeSchemaShape,
	ErrCodeFlagConflict,
}

var (
	// ErrUnknownSelector is returned when a source or request handler id
	// given on the command line is not registered.
	ErrUnknownSelector = errors.New("unknown selector")
	// ErrSchemaShape is returned when a request schema is not an object.
	ErrSchemaShape = errors.New("request schema is not an object")
	// ErrFlagConflict is returned when a synthesized flag is already declared.
	ErrFlagConflict = errors.New("flag already declared")
)
