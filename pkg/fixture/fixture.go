// Package fixture reads expected-diagnostic annotations out of test source
// files. A fixture line carries its expectation in a trailing comment:
//
//	*a = 1;  // error: operand of unary '*' must have pointer type
//	int x;   // warning: unused variable 'x'
//
// The harness checks the file and compares what the checker produced against
// what the comments promise.
package fixture

import (
	"sort"
	"strings"

	"github.com/xplshn/gmc/pkg/diag"
)

// Expectation is one promised diagnostic, pinned to a source line. Columns
// are deliberately not part of the contract; fixtures would be unmaintainable
// if every formatting tweak shifted a column number.
type Expectation struct {
	Line     int
	Severity string // "error" or "warning"
	Message  string
}

const (
	errorMarker   = "// error:"
	warningMarker = "// warning:"
)

// Parse extracts the expectations from fixture source, in line order.
func Parse(src string) []Expectation {
	var expectations []Expectation
	for i, line := range strings.Split(src, "\n") {
		if exp, ok := parseLine(i+1, line); ok {
			expectations = append(expectations, exp)
		}
	}
	return expectations
}

func parseLine(lineNum int, line string) (Expectation, bool) {
	marker, severity := errorMarker, "error"
	idx := strings.Index(line, marker)
	if idx < 0 {
		marker, severity = warningMarker, "warning"
		idx = strings.Index(line, marker)
	}
	if idx < 0 {
		return Expectation{}, false
	}
	return Expectation{
		Line:     lineNum,
		Severity: severity,
		Message:  strings.TrimSpace(line[idx+len(marker):]),
	}, true
}

// FromDiagnostics converts checker output into the same shape as parsed
// expectations so the two can be diffed directly.
func FromDiagnostics(diags []diag.Diagnostic) []Expectation {
	expectations := make([]Expectation, 0, len(diags))
	for _, d := range diags {
		severity := "error"
		if d.Severity == diag.Warning {
			severity = "warning"
		}
		expectations = append(expectations, Expectation{
			Line: d.Tok.Line, Severity: severity, Message: d.Message,
		})
	}
	return expectations
}

// Sort orders expectations by line, then severity, then message. Emission
// order and annotation order can legitimately differ (unused-variable
// warnings surface when a scope closes), so both sides are normalized before
// comparison.
func Sort(expectations []Expectation) {
	sort.Slice(expectations, func(i, j int) bool {
		a, b := expectations[i], expectations[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return a.Message < b.Message
	})
}
