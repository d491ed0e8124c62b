package checker

import (
	"github.com/xplshn/gmc/pkg/ast"
)

// Assignable reports whether a value of type src may be stored in a location
// of type dst. rhsIsZero marks the one syntactic special case: the literal 0
// converts to any pointer type as the null pointer constant.
//
// If either side is the error sentinel the conversion is vacuously accepted:
// the defect was already reported where the type came from, and repeating it
// here would only drown the real findings.
func Assignable(dst, src *ast.CType, rhsIsZero bool) bool {
	if dst.IsError() || src.IsError() {
		return true
	}
	if ast.TypesEqual(dst, src) {
		return true
	}
	if dst.IsPointer() && rhsIsZero {
		return true
	}
	return false
}
