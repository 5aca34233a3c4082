// Package report collects the diagnostics produced by the compiler stages.
// Every diagnostic is an error wrapping the underlying cause, so callers may
// use errors.Is against the sentinel errors of the stage which produced it.
package report

import (
	"fmt"
	"sync"

	"github.com/susji/sol0/span"
)

type Severity int

const (
	Warning Severity = iota
	ParserError
	DeclarationError
	TypeError
)

var severitynames = [...]string{
	"Warning",
	"ParserError",
	"DeclarationError",
	"TypeError",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severitynames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severitynames[s]
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(name string) (Severity, bool) {
	for i, cur := range severitynames {
		if cur == name {
			return Severity(i), true
		}
	}
	return 0, false
}

// Location is a source range within a named file.
type Location struct {
	File string
	Span span.Span
}

// Diagnostic is a single located message.
type Diagnostic struct {
	Severity Severity
	Location Location
	Wrapped  error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		d.Location.File, d.Location.Span.Lineno0, d.Location.Span.Col0,
		d.Severity, d.Wrapped)
}

func (d *Diagnostic) Unwrap() error {
	return d.Wrapped
}

// Message is the diagnostic text without location and severity.
func (d *Diagnostic) Message() string {
	return d.Wrapped.Error()
}

// Errorf creates a diagnostic without reporting it anywhere. The format is
// handled by fmt.Errorf so %w may be used to wrap sentinel errors.
func Errorf(sev Severity, loc Location, format string, a ...interface{}) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Location: loc,
		Wrapped:  fmt.Errorf(format, a...),
	}
}

// Reporter accumulates diagnostics. It is safe for concurrent use.
type Reporter struct {
	mu    sync.Mutex
	diags []*Diagnostic
}

func New() *Reporter {
	return &Reporter{}
}

func (r *Reporter) add(d *Diagnostic) *Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
	return d
}

func (r *Reporter) Warning(loc Location, format string, a ...interface{}) *Diagnostic {
	return r.add(Errorf(Warning, loc, format, a...))
}

func (r *Reporter) TypeError(loc Location, format string, a ...interface{}) *Diagnostic {
	return r.add(Errorf(TypeError, loc, format, a...))
}

func (r *Reporter) DeclarationError(loc Location, format string, a ...interface{}) *Diagnostic {
	return r.add(Errorf(DeclarationError, loc, format, a...))
}

func (r *Reporter) ParserError(loc Location, format string, a ...interface{}) *Diagnostic {
	return r.add(Errorf(ParserError, loc, format, a...))
}

// Add reports errors produced elsewhere. Errors which are not diagnostics
// are reported as located-nowhere parser errors.
func (r *Reporter) Add(errs ...error) {
	for _, err := range errs {
		if d, ok := err.(*Diagnostic); ok {
			r.add(d)
			continue
		}
		r.add(&Diagnostic{Severity: ParserError, Wrapped: err})
	}
}

// Diagnostics returns a copy of everything reported so far, in reporting
// order.
func (r *Reporter) Diagnostics() []*Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]*Diagnostic, len(r.diags))
	copy(ret, r.diags)
	return ret
}

func (r *Reporter) ContainsOnlyWarnings() bool {
	return ContainsOnlyWarnings(r.Diagnostics())
}

func ContainsOnlyWarnings(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d.Severity != Warning {
			return false
		}
	}
	return true
}
