package checker

import (
	"github.com/xplshn/gmc/pkg/ast"
)

// LvalueClass describes whether an expression designates a storage location,
// and if so whether that location may be written through.
type LvalueClass int

const (
	NotLvalue LvalueClass = iota
	ReadOnlyLvalue
	WritableLvalue
)

func (c LvalueClass) IsLvalue() bool { return c != NotLvalue }

// ClassifyLvalue decides the lvalue class of an expression. Only two forms
// designate storage in this subset: a name bound to a variable or parameter,
// and a pointer dereference. Dereferencing a pointer to void names a
// location that conceptually exists but has no complete type to write
// through, so it classifies as a read-only lvalue. Everything else, literals
// and the values produced by operators included, is not an lvalue.
//
// The function is pure: it inspects the node's shape, the symbol table, and
// the already-resolved type of a deref's operand, and never emits a
// diagnostic itself. The caller decides whether a missing lvalue is an error.
func ClassifyLvalue(node *ast.Node, lookup func(name string) *Symbol, typeOf func(*ast.Node) *ast.CType) LvalueClass {
	if node == nil {
		return NotLvalue
	}
	switch node.Type {
	case ast.Ident:
		sym := lookup(node.Data.(ast.IdentNode).Name)
		if sym == nil || sym.Kind == SymFunc {
			return NotLvalue
		}
		return WritableLvalue
	case ast.Deref:
		operandType := typeOf(node.Data.(ast.DerefNode).Expr)
		if !operandType.IsPointer() {
			return NotLvalue
		}
		if operandType.Base.Kind == ast.TYPE_VOID {
			return ReadOnlyLvalue
		}
		return WritableLvalue
	}
	return NotLvalue
}
