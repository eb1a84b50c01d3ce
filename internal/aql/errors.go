package aql

import "fmt"

// SchemaConsistencyError reports a selected field the schema does not define.
type SchemaConsistencyError struct {
	Type  string
	Field string
}

func (e *SchemaConsistencyError) Error() string {
	return fmt.Sprintf("aql: field %q is not defined on type %q", e.Field, e.Type)
}

// BuilderConfigError reports missing or contradictory directive arguments.
type BuilderConfigError struct {
	Builder string
	Reason  string
}

func (e *BuilderConfigError) Error() string {
	return fmt.Sprintf("aql: @%s: %s", e.Builder, e.Reason)
}

func configErrorf(builder, format string, args ...any) error {
	return &BuilderConfigError{Builder: builder, Reason: fmt.Sprintf(format, args...)}
}

// InterpolationError reports a token expression that cannot be resolved.
type InterpolationError struct {
	Text   string
	Offset int
	Reason string
}

func (e *InterpolationError) Error() string {
	return fmt.Sprintf("aql: interpolation at offset %d: %s", e.Offset, e.Reason)
}
