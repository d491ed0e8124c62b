// Package diag collects and renders the diagnostics produced while checking
// a program. Diagnostics are accumulated, never fatal: every pass runs to
// completion and the caller decides what to do with the result.
package diag

import (
	"fmt"

	"github.com/xplshn/gmc/pkg/token"
)

// Kind identifies what rule a diagnostic was produced by.
type Kind int

const (
	// Core expression-checking errors
	InvalidAddrOfNonLvalue Kind = iota
	DerefOfNonPointer
	AssignToNonLvalue
	AssignToNonWritableLvalue
	InvalidConversion

	// Other semantic errors
	InvalidBinaryOperands
	UndeclaredName
	Redefinition
	IncompleteType
	NotAFunction
	FunctionAsValue
	WrongArgCount
	NonScalarCondition
	BadReturn

	// Front end
	SyntaxError

	// Warnings
	UnusedVariable
	ShadowedDecl
)

var kindNames = map[Kind]string{
	InvalidAddrOfNonLvalue:    "addr-of-non-lvalue",
	DerefOfNonPointer:         "deref-of-non-pointer",
	AssignToNonLvalue:         "assign-to-non-lvalue",
	AssignToNonWritableLvalue: "assign-to-non-writable",
	InvalidConversion:         "invalid-conversion",
	InvalidBinaryOperands:     "invalid-operands",
	UndeclaredName:            "undeclared-name",
	Redefinition:              "redefinition",
	IncompleteType:            "incomplete-type",
	NotAFunction:              "not-a-function",
	FunctionAsValue:           "function-as-value",
	WrongArgCount:             "wrong-arg-count",
	NonScalarCondition:        "non-scalar-condition",
	BadReturn:                 "bad-return",
	SyntaxError:               "syntax",
	UnusedVariable:            "unused-variable",
	ShadowedDecl:              "shadow",
}

func (k Kind) String() string { return kindNames[k] }

// Severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

// Diagnostic is a single finding. It is immutable once created.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Tok      token.Token
	Message  string
}

// Bag is an append-only sequence of diagnostics, in emission order.
// The zero value is ready to use.
type Bag struct {
	diags  []Diagnostic
	errors int
}

func NewBag() *Bag { return &Bag{} }

// Errorf records an error diagnostic.
func (b *Bag) Errorf(kind Kind, tok token.Token, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{
		Kind: kind, Severity: Error, Tok: tok, Message: fmt.Sprintf(format, args...),
	})
	b.errors++
}

// Warnf records a warning diagnostic. Whether a warning category is enabled
// is the caller's decision; the bag records whatever it is given.
func (b *Bag) Warnf(kind Kind, tok token.Token, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{
		Kind: kind, Severity: Warning, Tok: tok, Message: fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns the recorded sequence without consuming it.
func (b *Bag) Diagnostics() []Diagnostic { return b.diags }

// Drain returns the recorded sequence and resets the bag.
func (b *Bag) Drain() []Diagnostic {
	d := b.diags
	b.diags, b.errors = nil, 0
	return d
}

// Merge appends another bag's diagnostics, preserving their order.
func (b *Bag) Merge(other *Bag) {
	b.diags = append(b.diags, other.diags...)
	b.errors += other.errors
}

func (b *Bag) HasErrors() bool { return b.errors > 0 }
func (b *Bag) ErrorCount() int { return b.errors }
func (b *Bag) Len() int        { return len(b.diags) }
