package executor

import "errors"

// GraphQLError is an entry of the response "errors" list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExtendedError is implemented by resolver errors that carry GraphQL error
// extensions, such as a database error number.
type ExtendedError interface {
	error
	Extensions() map[string]any
}

// ExecutionResult is the response of one operation.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

func (s *executionState) addResolverError(err error, path Path) {
	gerr := GraphQLError{Message: err.Error(), Path: path}
	var ext ExtendedError
	if errors.As(err, &ext) {
		gerr.Extensions = ext.Extensions()
	}
	s.errors = append(s.errors, gerr)
}
