package diag

import (
	"fmt"
	"io"
	"strings"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// SourceMap holds the source code of all input files so diagnostics can be
// rendered with their offending line. It is passed around explicitly; there
// is no package-global registry.
type SourceMap struct {
	files []SourceFileRecord
}

func NewSourceMap() *SourceMap { return &SourceMap{} }

// Add registers a file's content and returns its index for use in tokens.
func (sm *SourceMap) Add(name string, content []rune) int {
	sm.files = append(sm.files, SourceFileRecord{Name: name, Content: content})
	return len(sm.files) - 1
}

func (sm *SourceMap) Name(fileIndex int) string {
	if sm == nil || fileIndex < 0 || fileIndex >= len(sm.files) {
		return "unknown"
	}
	return sm.files[fileIndex].Name
}

// line extracts the text of a 1-based line from a registered file.
func (sm *SourceMap) line(fileIndex, lineNum int) (string, bool) {
	if sm == nil || fileIndex < 0 || fileIndex >= len(sm.files) || lineNum == 0 {
		return "", false
	}
	content := sm.files[fileIndex].Content
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}
	return string(content[lineStart:lineEnd]), true
}

// Printer renders diagnostics in the familiar file:line:col format with the
// offending source line and a caret underneath.
type Printer struct {
	Sources *SourceMap
	Color   bool
}

func (p *Printer) paint(code string) string {
	if !p.Color {
		return ""
	}
	return code
}

// Print writes one diagnostic.
func (p *Printer) Print(w io.Writer, d Diagnostic) {
	label, color := "error:", "\033[31m"
	if d.Severity == Warning {
		label, color = "warning:", "\033[33m"
	}
	fmt.Fprintf(w, "%s:%d:%d: %s%s%s %s", p.Sources.Name(d.Tok.FileIndex), d.Tok.Line, d.Tok.Column,
		p.paint(color), label, p.paint("\033[0m"), d.Message)
	if d.Severity == Warning {
		fmt.Fprintf(w, " [-W%s]", d.Kind)
	}
	fmt.Fprintln(w)
	p.printCaretLine(w, d)
}

func (p *Printer) printCaretLine(w io.Writer, d Diagnostic) {
	line, ok := p.Sources.line(d.Tok.FileIndex, d.Tok.Line)
	if !ok || d.Tok.Column < 1 {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	fmt.Fprintf(w, "  %s%s^", strings.Repeat(" ", d.Tok.Column-1), p.paint("\033[32m"))
	if d.Tok.Len > 1 {
		fmt.Fprint(w, strings.Repeat("~", d.Tok.Len-1))
	}
	fmt.Fprintf(w, "%s\n", p.paint("\033[0m"))
}

// PrintAll writes every diagnostic in order.
func (p *Printer) PrintAll(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		p.Print(w, d)
	}
}
