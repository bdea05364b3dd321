package aspect

import (
	"errors"
	"fmt"
)

var (
	// ErrBinding matches every *BindingError.
	ErrBinding = errors.New("argument binding failed")
	// ErrUnboundCall matches every *UnboundCallError.
	ErrUnboundCall = errors.New("unbound method call")
	// ErrMatchPattern matches every *MatchPatternError.
	ErrMatchPattern = errors.New("invalid point-cut pattern")
)

// BindingError reports actual arguments that cannot satisfy a signature.
type BindingError struct {
	Function string
	Reason   string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("aspect: %s(): %s", e.Function, e.Reason)
}

func (e *BindingError) Unwrap() error { return ErrBinding }

// UnboundCallError reports an instance method invoked without an instance.
type UnboundCallError struct {
	Function string
	Reason   string
}

func (e *UnboundCallError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("aspect: %s(): missing owning instance", e.Function)
	}
	return fmt.Sprintf("aspect: %s(): %s", e.Function, e.Reason)
}

func (e *UnboundCallError) Unwrap() error { return ErrUnboundCall }

// MatchPatternError reports a point-cut pattern that does not compile.
type MatchPatternError struct {
	Pattern string
	Err     error
}

func (e *MatchPatternError) Error() string {
	return fmt.Sprintf("aspect: pattern %q: %v", e.Pattern, e.Err)
}

func (e *MatchPatternError) Unwrap() []error { return []error{ErrMatchPattern, e.Err} }
