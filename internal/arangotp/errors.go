package arangotp

import (
	"errors"
	"fmt"

	driver "github.com/arangodb/go-driver"
)

var (
	// ErrClosed is returned by Query after Close.
	ErrClosed = errors.New("arangotp: closed")
)

// QueryError is a query rejected by the database. It exposes the server's
// error number as GraphQL error extensions.
type QueryError struct {
	Code     int
	ErrorNum int
	Message  string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("arangodb: %s (error %d)", e.Message, e.ErrorNum)
}

func (e *QueryError) Extensions() map[string]any {
	return map[string]any{
		"code":     "DATABASE_ERROR",
		"errorNum": e.ErrorNum,
	}
}

// queryError converts a driver error answered by the server; other errors are
// returned as they are.
func queryError(err error) error {
	if ae, ok := driver.AsArangoError(err); ok {
		return &QueryError{Code: ae.Code, ErrorNum: ae.ErrorNum, Message: ae.ErrorMessage}
	}
	return err
}
