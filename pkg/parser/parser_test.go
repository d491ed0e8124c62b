package parser

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/xplshn/gmc/pkg/ast"
	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/lexer"
	"github.com/xplshn/gmc/pkg/token"
)

func parse(src string) ([]*ast.Node, *diag.Bag) {
	bag := diag.NewBag()
	tokens := lexer.NewLexer([]rune(src), 0, bag).Tokenize()
	return NewParser(tokens, bag).Parse(), bag
}

func TestFunctionDecl(t *testing.T) {
	decls, bag := parse("int* find(int key, int* table) { return table; }")
	be.Equal(t, bag.Len(), 0)
	be.Equal(t, len(decls), 1)

	fn := decls[0].Data.(ast.FuncDeclNode)
	be.Equal(t, fn.Name, "find")
	be.Equal(t, len(fn.Params), 2)
	be.True(t, fn.ReturnType.IsPointer())
	be.Equal(t, fn.Params[0].Data.(ast.VarDeclNode).Type, ast.TypeInt)
	be.True(t, fn.Params[1].Data.(ast.VarDeclNode).Type.IsPointer())
}

func TestFunctionPrototype(t *testing.T) {
	decls, bag := parse("int add(int a, int b);")
	be.Equal(t, bag.Len(), 0)
	fn := decls[0].Data.(ast.FuncDeclNode)
	be.Equal(t, fn.Name, "add")
	var noBody *ast.Node
	be.Equal(t, fn.Body, noBody)
}

func TestMultiDeclaratorStars(t *testing.T) {
	// The star binds to the declarator, not the base type.
	decls, bag := parse("int main() { int *a, b; return 0; }")
	be.Equal(t, bag.Len(), 0)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	multi := body.Stmts[0].Data.(ast.MultiVarDeclNode)
	be.Equal(t, len(multi.Decls), 2)
	be.True(t, multi.Decls[0].Data.(ast.VarDeclNode).Type.IsPointer())
	be.Equal(t, multi.Decls[1].Data.(ast.VarDeclNode).Type, ast.TypeInt)
}

func TestDeclarationWithInit(t *testing.T) {
	decls, bag := parse("int main() { int a = 1 + 2; return a; }")
	be.Equal(t, bag.Len(), 0)
	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	decl := body.Stmts[0].Data.(ast.VarDeclNode)
	be.Equal(t, decl.Name, "a")
	be.Equal(t, decl.Init.Type, ast.BinaryOp)
}

func TestPrecedence(t *testing.T) {
	decls, bag := parse("int main() { x = 1 + 2 * 3; }")
	be.Equal(t, bag.Len(), 0)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	assign := body.Stmts[0].Data.(ast.AssignNode)
	add := assign.Rhs.Data.(ast.BinaryOpNode)
	be.Equal(t, add.Op, token.Plus)
	mul := add.Right.Data.(ast.BinaryOpNode)
	be.Equal(t, mul.Op, token.Star)
}

func TestAssignmentRightAssociative(t *testing.T) {
	decls, bag := parse("int main() { a = b = 1; }")
	be.Equal(t, bag.Len(), 0)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	outer := body.Stmts[0].Data.(ast.AssignNode)
	be.Equal(t, outer.Lhs.Type, ast.Ident)
	be.Equal(t, outer.Rhs.Type, ast.Assign)
}

func TestUnaryOperators(t *testing.T) {
	decls, bag := parse("int main() { x = &*-~!y; }")
	be.Equal(t, bag.Len(), 0)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	assign := body.Stmts[0].Data.(ast.AssignNode)
	be.Equal(t, assign.Rhs.Type, ast.AddressOf)
	deref := assign.Rhs.Data.(ast.AddressOfNode).Expr
	be.Equal(t, deref.Type, ast.Deref)
}

func TestAnythingParsesAsAssignTarget(t *testing.T) {
	// Whether the left side is assignable is the checker's business; the
	// parser accepts any expression there.
	_, bag := parse("int main() { 1 = x; a + b = 2; }")
	be.Equal(t, bag.Len(), 0)
}

func TestCallArguments(t *testing.T) {
	decls, bag := parse("int main() { f(1, x, g()); }")
	be.Equal(t, bag.Len(), 0)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	call := body.Stmts[0].Data.(ast.FuncCallNode)
	be.Equal(t, len(call.Args), 3)
	be.Equal(t, call.Args[2].Type, ast.FuncCall)
}

func TestIfElseWhile(t *testing.T) {
	decls, bag := parse("int main() { if (a) { x = 1; } else while (b) x = 2; }")
	be.Equal(t, bag.Len(), 0)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	ifData := body.Stmts[0].Data.(ast.IfNode)
	be.Equal(t, ifData.ThenBody.Type, ast.Block)
	be.Equal(t, ifData.ElseBody.Type, ast.While)
}

func TestVoidParameterList(t *testing.T) {
	decls, bag := parse("int main(void) { return 0; }")
	be.Equal(t, bag.Len(), 0)
	be.Equal(t, len(decls[0].Data.(ast.FuncDeclNode).Params), 0)
}

func TestRecoversAfterSyntaxError(t *testing.T) {
	decls, bag := parse("int main() { x = ; y = 1; }\nint other() { return 0; }")
	be.True(t, bag.HasErrors())
	// The second function still parses.
	be.Equal(t, len(decls), 2)
	be.Equal(t, decls[1].Data.(ast.FuncDeclNode).Name, "other")
}

func TestParentLinks(t *testing.T) {
	decls, _ := parse("int main() { x = 1 + 2; }")
	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	assign := body.Stmts[0]
	add := assign.Data.(ast.AssignNode).Rhs
	be.Equal(t, add.Parent, assign)
	be.Equal(t, add.Data.(ast.BinaryOpNode).Left.Parent, add)
}
