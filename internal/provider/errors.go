package provider

import "fmt"

// DataSourceError wraps any failure to obtain data from the upstream source:
// network errors, timeouts, non-200 responses, API-level errors and
// undecodable payloads. The caller abandons the current cycle.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
