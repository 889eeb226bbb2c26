// Package reconcile compares client-submitted figures with server computations.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest accepted absolute difference between two money amounts.
var Tolerance = decimal.RequireFromString("0.01")

// ErrRejected marks a document refused because of one or more findings.
var ErrRejected = errors.New("reconcile: document rejected")

// Finding records a single disagreement.
type Finding struct {
	Field      string `json:"field"`
	Calculated string `json:"calculated,omitempty"`
	Provided   string `json:"provided,omitempty"`
	Message    string `json:"message"`
}

// Report collects findings in the order they were detected. The zero value is ready to use.
type Report struct {
	findings []Finding
}

// OK reports whether the document was accepted.
func (r *Report) OK() bool {
	return r == nil || len(r.findings) == 0
}

// Len returns the number of findings.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.findings)
}

// Findings returns a copy of the collected findings.
func (r *Report) Findings() []Finding {
	if r == nil {
		return nil
	}
	return append([]Finding(nil), r.findings...)
}

// Messages returns the human readable diagnostics.
func (r *Report) Messages() []string {
	out := make([]string, 0, r.Len())
	for _, f := range r.Findings() {
		out = append(out, f.Message)
	}
	return out
}

// String joins every message the way clients expect to display them.
func (r *Report) String() string {
	return strings.Join(r.Messages(), ", ")
}

// Add appends a free-form finding, typically an input validation failure.
func (r *Report) Add(field, message string) {
	r.findings = append(r.findings, Finding{Field: field, Message: message})
}

// Addf is Add with formatting.
func (r *Report) Addf(field, format string, args ...any) {
	r.Add(field, fmt.Sprintf(format, args...))
}

// Merge appends all findings of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.findings = append(r.findings, other.findings...)
}

// CheckLine compares a per-line amount such as a tax column or the line total.
func (r *Report) CheckLine(column, itemName string, calculated, provided decimal.Decimal) bool {
	if Matches(calculated, provided) {
		return true
	}
	r.findings = append(r.findings, Finding{
		Field:      column,
		Calculated: calculated.String(),
		Provided:   provided.String(),
		Message:    fmt.Sprintf("Mismatch in %s for item %s: Calculated %s, Provided %s", column, itemName, calculated.String(), provided.String()),
	})
	return false
}

// CheckTotal compares a document-level money figure.
func (r *Report) CheckTotal(label string, calculated, provided decimal.Decimal) bool {
	if Matches(calculated, provided) {
		return true
	}
	r.findings = append(r.findings, Finding{
		Field:      label,
		Calculated: calculated.String(),
		Provided:   provided.String(),
		Message:    fmt.Sprintf("%s is incorrect: %s", label, provided.String()),
	})
	return false
}

// CheckCount compares integer figures exactly.
func (r *Report) CheckCount(label string, calculated, provided int64) bool {
	if calculated == provided {
		return true
	}
	r.findings = append(r.findings, Finding{
		Field:      label,
		Calculated: fmt.Sprint(calculated),
		Provided:   fmt.Sprint(provided),
		Message:    fmt.Sprintf("%s is incorrect: %d", label, provided),
	})
	return false
}

// Err returns nil for an accepted report and a *RejectedError otherwise.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return &RejectedError{Report: r}
}

// Matches applies the money tolerance after rounding the calculated value.
func Matches(calculated, provided decimal.Decimal) bool {
	return calculated.Round(2).Sub(provided).Abs().LessThanOrEqual(Tolerance)
}

// RejectedError carries the report that caused a rejection.
type RejectedError struct {
	Report *Report
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejected.Error(), e.Report.String())
}

// Unwrap exposes ErrRejected for errors.Is.
func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// AsReport extracts the report from an error chain.
func AsReport(err error) (*Report, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Report, true
	}
	return nil, false
}
