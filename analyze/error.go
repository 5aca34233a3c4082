package analyze

import "github.com/susji/sol0/report"

// ContainsErrors tells whether errs has anything more severe than a warning.
func ContainsErrors(errs []error) bool {
	for _, err := range errs {
		if d, ok := err.(*report.Diagnostic); !ok || d.Severity != report.Warning {
			return true
		}
	}
	return false
}
