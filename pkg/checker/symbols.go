package checker

import (
	"github.com/xplshn/gmc/pkg/ast"
	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/token"
)

type SymbolKind int

const (
	SymVar SymbolKind = iota
	SymParam
	SymFunc
)

// Symbol is one declared name. Symbols within a scope form a linked list,
// newest first, so shadowing is a matter of which entry is found first.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Type    *ast.CType
	Tok     token.Token
	Params  []*ast.CType // Parameter types, for functions
	HasBody bool
	Used    bool
	Next    *Symbol
}

type Scope struct {
	symbols *Symbol
	parent  *Scope
}

func NewScope(parent *Scope) *Scope { return &Scope{parent: parent} }

// Define adds a symbol to this scope. It returns the previously defined
// symbol of the same name in this scope, if any; the caller reports the
// redefinition.
func (s *Scope) Define(sym *Symbol) *Symbol {
	if existing := s.LookupLocal(sym.Name); existing != nil {
		return existing
	}
	sym.Next = s.symbols
	s.symbols = sym
	return nil
}

// LookupLocal finds a name in this scope only.
func (s *Scope) LookupLocal(name string) *Symbol {
	for sym := s.symbols; sym != nil; sym = sym.Next {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// Lookup finds a name in this scope or any enclosing one.
func (s *Scope) Lookup(name string) *Symbol {
	sym, _ := s.lookupEntry(name)
	return sym
}

// lookupEntry finds a name and reports which scope defined it, so the caller
// can tell locals from file-scope symbols.
func (s *Scope) lookupEntry(name string) (*Symbol, *Scope) {
	for scope := s; scope != nil; scope = scope.parent {
		if sym := scope.LookupLocal(name); sym != nil {
			return sym, scope
		}
	}
	return nil, nil
}

// collectGlobals builds the file scope from the top-level declarations. The
// returned scope is complete before any function body is checked, so bodies
// may refer to functions declared later in the file, and so the scope can be
// shared read-only between concurrently checked functions.
func collectGlobals(decls []*ast.Node, bag *diag.Bag) *Scope {
	globals := NewScope(nil)
	for _, decl := range decls {
		switch decl.Type {
		case ast.FuncDecl:
			data := decl.Data.(ast.FuncDeclNode)
			paramTypes := make([]*ast.CType, len(data.Params))
			for i, param := range data.Params {
				paramTypes[i] = param.Data.(ast.VarDeclNode).Type
			}
			sym := &Symbol{
				Name: data.Name, Kind: SymFunc, Type: data.ReturnType,
				Tok: decl.Tok, Params: paramTypes, HasBody: data.Body != nil,
			}
			if existing := globals.Define(sym); existing != nil {
				// A declaration may precede the definition; only a
				// mismatched signature or a second body is an error.
				switch {
				case !sameSignature(existing, sym):
					bag.Errorf(diag.Redefinition, decl.Tok, "conflicting declaration of '%s'", data.Name)
				case existing.HasBody && sym.HasBody:
					bag.Errorf(diag.Redefinition, decl.Tok, "redefinition of '%s'", data.Name)
				default:
					existing.HasBody = existing.HasBody || sym.HasBody
				}
			}
		case ast.VarDecl:
			defineGlobalVar(globals, decl, bag)
		case ast.MultiVarDecl:
			for _, d := range decl.Data.(ast.MultiVarDeclNode).Decls {
				defineGlobalVar(globals, d, bag)
			}
		}
	}
	return globals
}

func defineGlobalVar(globals *Scope, decl *ast.Node, bag *diag.Bag) {
	data := decl.Data.(ast.VarDeclNode)
	declType := data.Type
	if declType.Kind == ast.TYPE_VOID {
		bag.Errorf(diag.IncompleteType, decl.Tok, "variable '%s' has incomplete type 'void'", data.Name)
		declType = ast.TypeError // uses of the name stay quiet
	}
	sym := &Symbol{Name: data.Name, Kind: SymVar, Type: declType, Tok: decl.Tok}
	if globals.Define(sym) != nil {
		bag.Errorf(diag.Redefinition, decl.Tok, "redefinition of '%s'", data.Name)
	}
}

func sameSignature(a, b *Symbol) bool {
	if a.Kind != SymFunc || b.Kind != SymFunc || !ast.TypesEqual(a.Type, b.Type) {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !ast.TypesEqual(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}
