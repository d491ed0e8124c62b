// Package checker implements the semantic pass: it classifies expressions as
// lvalues or values, propagates types bottom-up through operators, and
// records a diagnostic for every ill-typed construct while always walking the
// whole tree.
package checker

import (
	"sync"

	"github.com/xplshn/gmc/pkg/ast"
	"github.com/xplshn/gmc/pkg/config"
	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/token"
)

type Checker struct {
	cfg     *config.Config
	bag     *diag.Bag
	globals *Scope
	types   map[*ast.Node]*ast.CType
	curFunc *ast.FuncDeclNode
}

func NewChecker(cfg *config.Config, bag *diag.Bag) *Checker {
	return &Checker{cfg: cfg, bag: bag}
}

// Check runs the pass over a file's top-level declarations. The file scope
// is collected up front and then frozen, so bodies may call functions
// declared later in the file, and so function bodies can be checked
// concurrently against the shared read-only scope.
//
// Re-running Check over the same tree produces the identical diagnostic
// sequence: resolved types live in an out-of-band map that is rebuilt each
// run, and nothing the pass reads is mutated by the pass itself.
func (c *Checker) Check(decls []*ast.Node) {
	c.types = make(map[*ast.Node]*ast.CType)
	c.globals = collectGlobals(decls, c.bag)

	var funcs []*ast.Node
	for _, decl := range decls {
		switch decl.Type {
		case ast.FuncDecl:
			if decl.Data.(ast.FuncDeclNode).Body != nil {
				funcs = append(funcs, decl)
			}
		case ast.VarDecl:
			c.checkGlobalInit(decl)
		case ast.MultiVarDecl:
			for _, d := range decl.Data.(ast.MultiVarDeclNode).Decls {
				c.checkGlobalInit(d)
			}
		}
	}

	if c.cfg.IsFeatureEnabled(config.FeatParallel) && len(funcs) > 1 {
		c.checkFunctionsParallel(funcs)
		return
	}
	for _, fn := range funcs {
		c.checkFunction(fn)
	}
}

// checkFunctionsParallel checks each function body in its own goroutine.
// Units share only the frozen file scope; every unit gets a private bag and
// type map, merged back in declaration order so the output is
// indistinguishable from a sequential run.
func (c *Checker) checkFunctionsParallel(funcs []*ast.Node) {
	subs := make([]*Checker, len(funcs))
	var wg sync.WaitGroup
	for i, fn := range funcs {
		sub := &Checker{
			cfg: c.cfg, bag: diag.NewBag(), globals: c.globals,
			types: make(map[*ast.Node]*ast.CType),
		}
		subs[i] = sub
		wg.Add(1)
		go func(sub *Checker, fn *ast.Node) {
			defer wg.Done()
			sub.checkFunction(fn)
		}(sub, fn)
	}
	wg.Wait()

	for _, sub := range subs {
		c.bag.Merge(sub.bag)
		for node, typ := range sub.types {
			c.types[node] = typ
		}
	}
}

// TypeOf returns the resolved type of an expression node from the last run.
func (c *Checker) TypeOf(node *ast.Node) *ast.CType {
	if t, ok := c.types[node]; ok {
		return t
	}
	return ast.TypeError
}

func (c *Checker) setType(node *ast.Node, t *ast.CType) *ast.CType {
	c.types[node] = t
	if c.cfg.IsFeatureEnabled(config.FeatAnnotate) {
		node.Typ = t
	}
	return t
}

// --- Declarations ---

func (c *Checker) checkGlobalInit(decl *ast.Node) {
	data := decl.Data.(ast.VarDeclNode)
	if data.Init == nil {
		return
	}
	target := data.Type
	if target.Kind == ast.TYPE_VOID {
		target = ast.TypeError // already reported during collection
	}
	rt := c.checkExpr(data.Init, c.globals)
	if !Assignable(target, rt, ast.IsZeroLiteral(data.Init)) {
		c.bag.Errorf(diag.InvalidConversion, data.Init.Tok, "invalid conversion between types")
	}
}

func (c *Checker) checkFunction(decl *ast.Node) {
	data := decl.Data.(ast.FuncDeclNode)
	prevFunc := c.curFunc
	c.curFunc = &data

	scope := NewScope(c.globals)
	for _, param := range data.Params {
		pd := param.Data.(ast.VarDeclNode)
		declType := pd.Type
		if declType.Kind == ast.TYPE_VOID {
			c.bag.Errorf(diag.IncompleteType, param.Tok, "parameter '%s' has incomplete type 'void'", pd.Name)
			declType = ast.TypeError
		}
		sym := &Symbol{Name: pd.Name, Kind: SymParam, Type: declType, Tok: param.Tok}
		if scope.Define(sym) != nil {
			c.bag.Errorf(diag.Redefinition, param.Tok, "redefinition of parameter '%s'", pd.Name)
		}
	}

	// The body's outermost block shares the parameter scope, so a local
	// redeclaring a parameter is a redefinition, not a shadow.
	for _, stmt := range data.Body.Data.(ast.BlockNode).Stmts {
		c.checkStmt(stmt, scope)
	}
	c.warnUnused(scope)
	c.curFunc = prevFunc
}

func (c *Checker) declareLocal(decl *ast.Node, scope *Scope) {
	data := decl.Data.(ast.VarDeclNode)
	declType := data.Type
	if declType.Kind == ast.TYPE_VOID {
		c.bag.Errorf(diag.IncompleteType, decl.Tok, "variable '%s' has incomplete type 'void'", data.Name)
		declType = ast.TypeError
	}

	if c.cfg.IsWarningEnabled(config.WarnShadow) && scope.LookupLocal(data.Name) == nil {
		if outer := scope.Lookup(data.Name); outer != nil && outer.Kind != SymFunc {
			c.bag.Warnf(diag.ShadowedDecl, decl.Tok, "declaration of '%s' shadows a previous declaration", data.Name)
		}
	}

	sym := &Symbol{Name: data.Name, Kind: SymVar, Type: declType, Tok: decl.Tok}
	if scope.Define(sym) != nil {
		c.bag.Errorf(diag.Redefinition, decl.Tok, "redefinition of '%s'", data.Name)
	}

	if data.Init != nil {
		rt := c.checkExpr(data.Init, scope)
		if !Assignable(declType, rt, ast.IsZeroLiteral(data.Init)) {
			c.bag.Errorf(diag.InvalidConversion, data.Init.Tok, "invalid conversion between types")
		}
	}
}

// warnUnused reports locals that were never read or written after their
// declaration. Parameters and globals are exempt.
func (c *Checker) warnUnused(scope *Scope) {
	if !c.cfg.IsWarningEnabled(config.WarnUnused) {
		return
	}
	var unused []*Symbol
	for sym := scope.symbols; sym != nil; sym = sym.Next {
		if sym.Kind == SymVar && !sym.Used {
			unused = append(unused, sym)
		}
	}
	// The symbol list is newest-first; report in source order.
	for i := len(unused) - 1; i >= 0; i-- {
		c.bag.Warnf(diag.UnusedVariable, unused[i].Tok, "unused variable '%s'", unused[i].Name)
	}
}

// --- Statements ---

func (c *Checker) checkStmt(node *ast.Node, scope *Scope) {
	if node == nil {
		return
	}
	switch node.Type {
	case ast.VarDecl:
		c.declareLocal(node, scope)
	case ast.MultiVarDecl:
		for _, d := range node.Data.(ast.MultiVarDeclNode).Decls {
			c.declareLocal(d, scope)
		}
	case ast.Block:
		blockScope := NewScope(scope)
		for _, stmt := range node.Data.(ast.BlockNode).Stmts {
			c.checkStmt(stmt, blockScope)
		}
		c.warnUnused(blockScope)
	case ast.If:
		data := node.Data.(ast.IfNode)
		c.checkCondition(data.Cond, scope)
		c.checkStmt(data.ThenBody, scope)
		c.checkStmt(data.ElseBody, scope)
	case ast.While:
		data := node.Data.(ast.WhileNode)
		c.checkCondition(data.Cond, scope)
		c.checkStmt(data.Body, scope)
	case ast.Return:
		c.checkReturn(node, scope)
	default:
		c.checkExpr(node, scope)
	}
}

func (c *Checker) checkCondition(cond *ast.Node, scope *Scope) {
	t := c.checkExpr(cond, scope)
	if !t.IsError() && !t.IsScalar() {
		c.bag.Errorf(diag.NonScalarCondition, cond.Tok, "condition must have scalar type")
	}
}

func (c *Checker) checkReturn(node *ast.Node, scope *Scope) {
	data := node.Data.(ast.ReturnNode)
	retType := c.curFunc.ReturnType

	if data.Expr == nil {
		if retType.Kind != ast.TYPE_VOID {
			c.bag.Errorf(diag.BadReturn, node.Tok, "return with no value in function returning '%s'", ast.TypeToString(retType))
		}
		return
	}

	t := c.checkExpr(data.Expr, scope)
	if retType.Kind == ast.TYPE_VOID {
		if !t.IsError() {
			c.bag.Errorf(diag.BadReturn, node.Tok, "return with a value in function returning 'void'")
		}
		return
	}
	if !Assignable(retType, t, ast.IsZeroLiteral(data.Expr)) {
		c.bag.Errorf(diag.InvalidConversion, data.Expr.Tok, "invalid conversion between types")
	}
}

// --- Expressions ---

// checkExpr resolves the type of an expression post-order: operand types
// first, then the operator rule. Once a subexpression is the error sentinel,
// enclosing operators stay quiet so one root cause yields one diagnostic.
func (c *Checker) checkExpr(node *ast.Node, scope *Scope) *ast.CType {
	if node == nil {
		return ast.TypeError
	}
	switch node.Type {
	case ast.Number:
		return c.setType(node, ast.TypeInt)
	case ast.Ident:
		return c.checkIdent(node, scope)
	case ast.Assign:
		return c.checkAssign(node, scope)
	case ast.AddressOf:
		return c.checkAddressOf(node, scope)
	case ast.Deref:
		return c.checkDeref(node, scope)
	case ast.BinaryOp:
		return c.checkBinaryOp(node, scope)
	case ast.UnaryOp:
		return c.checkUnaryOp(node, scope)
	case ast.FuncCall:
		return c.checkFuncCall(node, scope)
	}
	return c.setType(node, ast.TypeError)
}

func (c *Checker) checkIdent(node *ast.Node, scope *Scope) *ast.CType {
	name := node.Data.(ast.IdentNode).Name
	sym, defScope := scope.lookupEntry(name)
	if sym == nil {
		c.bag.Errorf(diag.UndeclaredName, node.Tok, "use of undeclared identifier '%s'", name)
		return c.setType(node, ast.TypeError)
	}
	if sym.Kind == SymFunc {
		c.bag.Errorf(diag.FunctionAsValue, node.Tok, "function '%s' used as a value", name)
		return c.setType(node, ast.TypeError)
	}
	if defScope != c.globals {
		sym.Used = true
	}
	return c.setType(node, sym.Type)
}

func (c *Checker) checkAssign(node *ast.Node, scope *Scope) *ast.CType {
	data := node.Data.(ast.AssignNode)
	lt := c.checkExpr(data.Lhs, scope)
	rt := c.checkExpr(data.Rhs, scope)

	if lt.IsError() {
		// The left side already failed; its diagnostic was emitted where
		// it originated.
		return c.setType(node, ast.TypeError)
	}

	switch ClassifyLvalue(data.Lhs, scope.Lookup, c.TypeOf) {
	case NotLvalue:
		c.bag.Errorf(diag.AssignToNonLvalue, node.Tok, "expression on left of '=' is not assignable")
		return c.setType(node, ast.TypeError)
	case ReadOnlyLvalue:
		c.bag.Errorf(diag.AssignToNonWritableLvalue, node.Tok, "expression on left of '=' is not assignable")
		return c.setType(node, ast.TypeError)
	}

	if !Assignable(lt, rt, ast.IsZeroLiteral(data.Rhs)) {
		c.bag.Errorf(diag.InvalidConversion, node.Tok, "invalid conversion between types")
	}
	// The value of an assignment has the target's type, even when the
	// conversion was rejected.
	return c.setType(node, lt)
}

func (c *Checker) checkAddressOf(node *ast.Node, scope *Scope) *ast.CType {
	data := node.Data.(ast.AddressOfNode)
	t := c.checkExpr(data.Expr, scope)
	if t.IsError() {
		return c.setType(node, ast.TypeError)
	}
	if !ClassifyLvalue(data.Expr, scope.Lookup, c.TypeOf).IsLvalue() {
		c.bag.Errorf(diag.InvalidAddrOfNonLvalue, data.Expr.Tok, "operand of unary '&' must be lvalue")
		return c.setType(node, ast.TypeError)
	}
	return c.setType(node, ast.PointerTo(t))
}

func (c *Checker) checkDeref(node *ast.Node, scope *Scope) *ast.CType {
	data := node.Data.(ast.DerefNode)
	t := c.checkExpr(data.Expr, scope)
	if t.IsError() {
		return c.setType(node, ast.TypeError)
	}
	if !t.IsPointer() {
		c.bag.Errorf(diag.DerefOfNonPointer, node.Tok, "operand of unary '*' must have pointer type")
		return c.setType(node, ast.TypeError)
	}
	return c.setType(node, t.Base)
}

func (c *Checker) checkBinaryOp(node *ast.Node, scope *Scope) *ast.CType {
	data := node.Data.(ast.BinaryOpNode)
	lt := c.checkExpr(data.Left, scope)
	rt := c.checkExpr(data.Right, scope)
	if lt.IsError() || rt.IsError() {
		return c.setType(node, ast.TypeError)
	}

	var result *ast.CType
	switch data.Op {
	case token.Plus:
		switch {
		case lt.IsInt() && rt.IsInt():
			result = ast.TypeInt
		case completePointer(lt) && rt.IsInt():
			result = lt
		case lt.IsInt() && completePointer(rt):
			result = rt
		}
	case token.Minus:
		switch {
		case lt.IsInt() && rt.IsInt():
			result = ast.TypeInt
		case completePointer(lt) && rt.IsInt():
			result = lt
		case completePointer(lt) && ast.TypesEqual(lt, rt):
			result = ast.TypeInt
		}
	case token.Star, token.Slash, token.Rem:
		if lt.IsInt() && rt.IsInt() {
			result = ast.TypeInt
		}
	case token.EqEq, token.Neq, token.Lt, token.Gt, token.Lte, token.Gte:
		if (lt.IsInt() && rt.IsInt()) ||
			(lt.IsPointer() && rt.IsPointer() && ast.TypesEqual(lt, rt)) ||
			(lt.IsPointer() && ast.IsZeroLiteral(data.Right)) ||
			(rt.IsPointer() && ast.IsZeroLiteral(data.Left)) {
			result = ast.TypeInt
		}
	case token.AndAnd, token.OrOr:
		if lt.IsScalar() && rt.IsScalar() {
			result = ast.TypeInt
		}
	}
	if result == nil {
		c.bag.Errorf(diag.InvalidBinaryOperands, node.Tok, "invalid operands to binary '%s'", opName(data.Op))
		return c.setType(node, ast.TypeError)
	}
	return c.setType(node, result)
}

// completePointer reports a pointer whose pointee can be stepped over.
// Arithmetic on void* has no element size to scale by and is rejected.
func completePointer(t *ast.CType) bool {
	return t.IsPointer() && t.Base.Kind != ast.TYPE_VOID
}

func (c *Checker) checkUnaryOp(node *ast.Node, scope *Scope) *ast.CType {
	data := node.Data.(ast.UnaryOpNode)
	t := c.checkExpr(data.Expr, scope)
	if t.IsError() {
		return c.setType(node, ast.TypeError)
	}

	ok := false
	switch data.Op {
	case token.Minus, token.Complement:
		ok = t.IsInt()
	case token.Not:
		ok = t.IsScalar()
	}
	if !ok {
		c.bag.Errorf(diag.InvalidBinaryOperands, node.Tok, "invalid operand to unary '%s'", opName(data.Op))
		return c.setType(node, ast.TypeError)
	}
	return c.setType(node, ast.TypeInt)
}

func (c *Checker) checkFuncCall(node *ast.Node, scope *Scope) *ast.CType {
	data := node.Data.(ast.FuncCallNode)

	var sym *Symbol
	if data.FuncExpr.Type == ast.Ident {
		name := data.FuncExpr.Data.(ast.IdentNode).Name
		sym, _ = scope.lookupEntry(name)
		if sym == nil {
			c.bag.Errorf(diag.UndeclaredName, data.FuncExpr.Tok, "use of undeclared identifier '%s'", name)
		} else if sym.Kind != SymFunc {
			c.bag.Errorf(diag.NotAFunction, data.FuncExpr.Tok, "called object '%s' is not a function", name)
			sym = nil
		}
	} else {
		// The callee is some other expression; nothing in this subset
		// produces a callable value.
		if t := c.checkExpr(data.FuncExpr, scope); !t.IsError() {
			c.bag.Errorf(diag.NotAFunction, data.FuncExpr.Tok, "called object is not a function")
		}
	}

	// Arguments are always checked for their own defects, even when the
	// callee is unusable.
	argTypes := make([]*ast.CType, len(data.Args))
	for i, arg := range data.Args {
		argTypes[i] = c.checkExpr(arg, scope)
	}
	if sym == nil {
		return c.setType(node, ast.TypeError)
	}

	if len(data.Args) != len(sym.Params) {
		c.bag.Errorf(diag.WrongArgCount, node.Tok, "function '%s' expects %d argument(s), got %d",
			sym.Name, len(sym.Params), len(data.Args))
		return c.setType(node, sym.Type)
	}
	for i, arg := range data.Args {
		if !Assignable(sym.Params[i], argTypes[i], ast.IsZeroLiteral(arg)) {
			c.bag.Errorf(diag.InvalidConversion, arg.Tok, "invalid conversion between types")
		}
	}
	return c.setType(node, sym.Type)
}

var opNames = map[token.Type]string{
	token.Plus: "+", token.Minus: "-", token.Star: "*", token.Slash: "/",
	token.Rem: "%", token.Not: "!", token.Complement: "~",
	token.EqEq: "==", token.Neq: "!=", token.Lt: "<", token.Gt: ">",
	token.Lte: "<=", token.Gte: ">=", token.AndAnd: "&&", token.OrOr: "||",
}

func opName(op token.Type) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "?"
}
