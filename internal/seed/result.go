// Package seed backfills the historical dataset from finished fixtures of
// past rounds, through the same admission path as the live loop.
package seed

import "fmt"

// Result tracks counts and errors from a backfill run.
type Result struct {
	LeaguesFetched int
	Fetched        int
	Admitted       int
	Duplicates     int
	Incomplete     int
	Errors         []string
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.LeaguesFetched += other.LeaguesFetched
	r.Fetched += other.Fetched
	r.Admitted += other.Admitted
	r.Duplicates += other.Duplicates
	r.Incomplete += other.Incomplete
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the backfill.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"leagues=%d fetched=%d admitted=%d duplicates=%d incomplete=%d errors=%d",
		r.LeaguesFetched, r.Fetched, r.Admitted,
		r.Duplicates, r.Incomplete, len(r.Errors),
	)
}
