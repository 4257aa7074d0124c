package agent

import (
	"errors"
	"fmt"
)

var errEmptyStatement = errors.New("sql statement is empty")

// SchemaError marks a failed schema introspection. It is fatal for the
// request: no query is attempted without schema grounding.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema introspection failed: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ModelError marks a failed model call. Fatal for the current request only;
// the call is never retried.
type ModelError struct {
	Purpose string
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model request (%s) failed: %v", e.Purpose, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
