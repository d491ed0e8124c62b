package ast

// CTypeKind defines the kind of a CType
type CTypeKind int

// CType kinds enum
const (
	TYPE_PRIMITIVE CTypeKind = iota
	TYPE_POINTER
	TYPE_VOID
	TYPE_ERROR
)

// CType represents a type in the checked C subset. Pointer types hold their
// pointee in Base; TYPE_ERROR is the sentinel given to any expression whose
// checking already failed, so that enclosing expressions stay quiet.
type CType struct {
	Kind CTypeKind
	Base *CType // Pointee type for pointers
	Name string // Name for primitive types
}

// Pre-defined types
var (
	TypeInt   = &CType{Kind: TYPE_PRIMITIVE, Name: "int"}
	TypeVoid  = &CType{Kind: TYPE_VOID, Name: "void"}
	TypeError = &CType{Kind: TYPE_ERROR, Name: "<error>"}
)

// PointerTo returns the pointer type with the given pointee. Pointer-ness is
// only ever attached to a successfully resolved pointee: wrapping the error
// sentinel yields the sentinel itself.
func PointerTo(base *CType) *CType {
	if base == nil || base.Kind == TYPE_ERROR {
		return TypeError
	}
	return &CType{Kind: TYPE_POINTER, Base: base}
}

func (t *CType) IsPointer() bool { return t != nil && t.Kind == TYPE_POINTER }
func (t *CType) IsError() bool   { return t == nil || t.Kind == TYPE_ERROR }
func (t *CType) IsInt() bool     { return t != nil && t.Kind == TYPE_PRIMITIVE }

// IsScalar reports whether a value of this type can be used where a truth
// value is expected (if/while conditions).
func (t *CType) IsScalar() bool { return t.IsInt() || t.IsPointer() }

// TypesEqual reports structural equality of two types. The error sentinel
// compares equal to nothing, itself included; callers handle it first.
func TypesEqual(a, b *CType) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind == TYPE_ERROR || b.Kind == TYPE_ERROR {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TYPE_POINTER:
		return TypesEqual(a.Base, b.Base)
	case TYPE_PRIMITIVE:
		return a.Name == b.Name
	default:
		return true
	}
}

// TypeToString renders a type the way it appears in diagnostics.
func TypeToString(t *CType) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TYPE_POINTER:
		return TypeToString(t.Base) + "*"
	default:
		return t.Name
	}
}
