// Package types provides type definitions for structured data used throughout the permitindex system.
package types

import (
	"fmt"
	"time"
)

// DateLayout is the ISO date format used by the dataset and the sitemap.
const DateLayout = "2006-01-02"

// PermitRecord is one row of the permit dataset.
// Records are built once by the loader and never mutated afterwards.
type PermitRecord struct {
	AgencyShort            string
	RequestType            string
	Cost                   string
	HowToDescription       string
	PaymentFormURL         string
	EstimatedMonthlyVolume string
	DeadlineWindow         string
	EffortHours            string
	OnlineAvailable        bool
	APIAvailable           bool
	MCPAvailable           bool
	RelatedPages           string
	DateExtracted          time.Time
	SourceURL              string // internal only, never rendered or exported
	AgencyFull             string
	Eligibility            string
	LocationApplicability  string
	DocumentRequirements   string

	// Provenance for error reporting
	SourceFile string
	Line       int
}

// Key returns the composite key of the record as a display string.
func (r *PermitRecord) Key() string {
	return fmt.Sprintf("(%q, %q)", r.AgencyShort, r.RequestType)
}

// Location returns "file:line" for the row the record was loaded from.
func (r *PermitRecord) Location() string {
	if r.SourceFile == "" {
		return fmt.Sprintf("row %d", r.Line)
	}
	return fmt.Sprintf("%s:%d", r.SourceFile, r.Line)
}

// Title is the display title used in links to the record's page.
func (r *PermitRecord) Title() string {
	return fmt.Sprintf("%s (%s)", r.RequestType, r.AgencyShort)
}

// RowRef identifies a dataset row in an error report.
type RowRef struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line"`
	Key  string `json:"key,omitempty"`
}

func (r RowRef) String() string {
	loc := fmt.Sprintf("row %d", r.Line)
	if r.File != "" {
		loc = fmt.Sprintf("%s:%d", r.File, r.Line)
	}
	if r.Key != "" {
		return loc + " " + r.Key
	}
	return loc
}

// RefOf builds a RowRef for a record.
func RefOf(r *PermitRecord) RowRef {
	return RowRef{File: r.SourceFile, Line: r.Line, Key: r.Key()}
}
