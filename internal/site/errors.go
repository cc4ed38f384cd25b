// Package site stages generated pages in memory and publishes them as one
// atomic output tree with its sitemap, robots.txt and data export.
package site

import "fmt"

// AssembleError reports a problem staging or publishing the output tree
type AssembleError struct {
	Path    string
	Message string
	Cause   error
}

func (e *AssembleError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("assemble error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("assemble error: %s", msg)
}

func (e *AssembleError) Unwrap() error {
	return e.Cause
}
