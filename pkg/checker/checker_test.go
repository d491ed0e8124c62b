package checker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"

	"github.com/xplshn/gmc/pkg/ast"
	"github.com/xplshn/gmc/pkg/config"
	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/fixture"
	"github.com/xplshn/gmc/pkg/lexer"
	"github.com/xplshn/gmc/pkg/parser"
)

// quietConfig disables all warnings so tests can assert on exact diagnostic
// sequences without listing incidental ones.
func quietConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.SetAllWarnings(false)
	return cfg
}

func parseSource(t *testing.T, src string) []*ast.Node {
	t.Helper()
	bag := diag.NewBag()
	tokens := lexer.NewLexer([]rune(src), 0, bag).Tokenize()
	decls := parser.NewParser(tokens, bag).Parse()
	be.Equal(t, bag.HasErrors(), false)
	return decls
}

func checkSource(t *testing.T, src string, cfg *config.Config) *diag.Bag {
	t.Helper()
	bag := diag.NewBag()
	NewChecker(cfg, bag).Check(parseSource(t, src))
	return bag
}

// checkBody wraps a statement list in a main function with the declarations
// the scenarios assume: int a, b; int* c; void* p;
func checkBody(t *testing.T, body string) *diag.Bag {
	t.Helper()
	src := "int main() {\n" +
		"    int a, b;\n" +
		"    int* c;\n" +
		"    void* p;\n" +
		"    " + body + "\n" +
		"    return 0;\n" +
		"}\n"
	return checkSource(t, src, quietConfig())
}

func kinds(bag *diag.Bag) []diag.Kind {
	var out []diag.Kind
	for _, d := range bag.Diagnostics() {
		out = append(out, d.Kind)
	}
	return out
}

func TestAddrOfNonLvalue(t *testing.T) {
	bag := checkBody(t, "&(a + b);")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidAddrOfNonLvalue})
}

func TestAddrOfLiteral(t *testing.T) {
	bag := checkBody(t, "&1;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidAddrOfNonLvalue})
}

func TestAddrOfVariable(t *testing.T) {
	bag := checkBody(t, "c = &a;")
	be.Equal(t, bag.Len(), 0)
}

func TestAddrOfVoidPointerDeref(t *testing.T) {
	// *p is a valid (if non-writable) lvalue, so its address can be taken.
	bag := checkBody(t, "&*p;")
	be.Equal(t, bag.Len(), 0)
}

func TestDerefOfNonPointer(t *testing.T) {
	bag := checkBody(t, "*a;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.DerefOfNonPointer})
}

func TestDerefOfPointer(t *testing.T) {
	bag := checkBody(t, "c = &a; *c = 5; a = *c;")
	be.Equal(t, bag.Len(), 0)
}

func TestAssignPointerIntoInt(t *testing.T) {
	bag := checkBody(t, "a = &b;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidConversion})
}

func TestNullPointerConstant(t *testing.T) {
	bag := checkBody(t, "c = 0; p = 0;")
	be.Equal(t, bag.Len(), 0)
}

func TestNonzeroIntIntoPointer(t *testing.T) {
	bag := checkBody(t, "c = 10;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidConversion})
}

func TestIntExpressionIntoPointer(t *testing.T) {
	// Only the literal 0 is a null pointer constant; a zero-valued
	// expression does not qualify.
	bag := checkBody(t, "a = 0; c = a;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidConversion})
}

func TestMismatchedPointerTypes(t *testing.T) {
	bag := checkBody(t, "p = c;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidConversion})
}

func TestAssignToNonLvalue(t *testing.T) {
	bag := checkBody(t, "a + b = 1;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.AssignToNonLvalue})
}

func TestAssignToLiteral(t *testing.T) {
	bag := checkBody(t, "1 = a;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.AssignToNonLvalue})
}

func TestAssignThroughVoidPointer(t *testing.T) {
	bag := checkBody(t, "*p = 1;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.AssignToNonWritableLvalue})
}

func TestDerefAssignCascade(t *testing.T) {
	// The bad deref is the single root cause; the assignment must not
	// pile AssignToNonLvalue or InvalidConversion on top.
	bag := checkBody(t, "*a = 1;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.DerefOfNonPointer})
}

func TestCascadeThroughOperators(t *testing.T) {
	bag := checkBody(t, "a = *b + 1;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.DerefOfNonPointer})
}

func TestIndependentErrorsBothReported(t *testing.T) {
	// Two separate root causes in one statement are both reported.
	bag := checkBody(t, "*a = *b;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.DerefOfNonPointer, diag.DerefOfNonPointer})
}

func TestPointerArithmetic(t *testing.T) {
	bag := checkBody(t, "c = &a; c = c + 1; c = 1 + c; c = c - 1; a = c - c;")
	be.Equal(t, bag.Len(), 0)
}

func TestVoidPointerArithmetic(t *testing.T) {
	bag := checkBody(t, "p = 0; p = p + 1;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidBinaryOperands})
}

func TestUndeclaredIdentifier(t *testing.T) {
	bag := checkSource(t, "int main() { x = 1; return 0; }", quietConfig())
	be.Equal(t, kinds(bag), []diag.Kind{diag.UndeclaredName})
}

func TestDiagnosticOrder(t *testing.T) {
	bag := checkBody(t, "*a; c = 10; &(a + b);")
	be.Equal(t, kinds(bag), []diag.Kind{
		diag.DerefOfNonPointer,
		diag.InvalidConversion,
		diag.InvalidAddrOfNonLvalue,
	})
}

func TestIdempotence(t *testing.T) {
	src := "int main() {\n    int a;\n    int* c;\n    *a = 1;\n    c = 5;\n    return 0;\n}\n"
	decls := parseSource(t, src)

	bag1 := diag.NewBag()
	NewChecker(quietConfig(), bag1).Check(decls)
	bag2 := diag.NewBag()
	NewChecker(quietConfig(), bag2).Check(decls)

	be.Equal(t, cmp.Diff(bag1.Diagnostics(), bag2.Diagnostics()), "")
}

func TestParallelMatchesSequential(t *testing.T) {
	src := `
int first(int* p) {
    *p = p;
    return 0;
}
int second() {
    int a;
    a = &a;
    return a;
}
int third(void* v) {
    *v = 1;
    return 0;
}
`
	decls := parseSource(t, src)

	seqBag := diag.NewBag()
	NewChecker(quietConfig(), seqBag).Check(decls)

	parCfg := quietConfig()
	parCfg.SetFeature(config.FeatParallel, true)
	parBag := diag.NewBag()
	NewChecker(parCfg, parBag).Check(decls)

	be.Equal(t, cmp.Diff(seqBag.Diagnostics(), parBag.Diagnostics()), "")
}

func TestTypeAnnotation(t *testing.T) {
	src := "int main() {\n    int a;\n    a = 1;\n    return a;\n}\n"
	decls := parseSource(t, src)
	bag := diag.NewBag()
	c := NewChecker(quietConfig(), bag)
	c.Check(decls)
	be.Equal(t, bag.Len(), 0)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	assign := body.Stmts[1]
	be.Equal(t, assign.Type, ast.Assign)
	be.Equal(t, c.TypeOf(assign), ast.TypeInt)
	be.Equal(t, assign.Typ, ast.TypeInt)
}

func TestAnnotationDisabled(t *testing.T) {
	src := "int main() {\n    int a;\n    a = 1;\n    return a;\n}\n"
	decls := parseSource(t, src)
	cfg := quietConfig()
	cfg.SetFeature(config.FeatAnnotate, false)
	c := NewChecker(cfg, diag.NewBag())
	c.Check(decls)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	assign := body.Stmts[1]
	var unset *ast.CType
	be.Equal(t, assign.Typ, unset)
	// The out-of-band map still has the answer.
	be.Equal(t, c.TypeOf(assign), ast.TypeInt)
}

func TestAssignmentResultType(t *testing.T) {
	// The value of an assignment has the target's type, so chained
	// assignments through a pointer target work.
	bag := checkBody(t, "c = p = 0;")
	be.Equal(t, kinds(bag), []diag.Kind{diag.InvalidConversion})

	bag = checkBody(t, "a = b = 1;")
	be.Equal(t, bag.Len(), 0)
}

func TestUnusedVariableWarning(t *testing.T) {
	src := "int main() {\n    int used;\n    int never;\n    used = 1;\n    return used;\n}\n"
	bag := checkSource(t, src, config.NewConfig())
	diags := bag.Diagnostics()
	be.Equal(t, len(diags), 1)
	be.Equal(t, diags[0].Kind, diag.UnusedVariable)
	be.Equal(t, diags[0].Severity, diag.Warning)
	be.Equal(t, bag.HasErrors(), false)
}

func TestShadowWarning(t *testing.T) {
	src := "int main() {\n    int a;\n    a = 0;\n    {\n        int a;\n        a = 1;\n    }\n    return 0;\n}\n"
	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnShadow, true)
	bag := checkSource(t, src, cfg)
	be.Equal(t, kinds(bag), []diag.Kind{diag.ShadowedDecl})
}

func TestClassifyLvalue(t *testing.T) {
	src := "int main() {\n    int a;\n    int* c;\n    void* p;\n    a = 0; c = 0; p = 0;\n    *c; *p; *a;\n    return 0;\n}\n"
	decls := parseSource(t, src)
	bag := diag.NewBag()
	c := NewChecker(quietConfig(), bag)
	c.Check(decls)

	body := decls[0].Data.(ast.FuncDeclNode).Body.Data.(ast.BlockNode)
	derefC, derefP, derefA := body.Stmts[6], body.Stmts[7], body.Stmts[8]

	scope := c.globals
	be.Equal(t, ClassifyLvalue(derefC, scope.Lookup, c.TypeOf), WritableLvalue)
	be.Equal(t, ClassifyLvalue(derefP, scope.Lookup, c.TypeOf), ReadOnlyLvalue)
	be.Equal(t, ClassifyLvalue(derefA, scope.Lookup, c.TypeOf), NotLvalue)
	be.Equal(t, ClassifyLvalue(body.Stmts[3], scope.Lookup, c.TypeOf), NotLvalue) // an assignment
}

func TestAssignable(t *testing.T) {
	intPtr := ast.PointerTo(ast.TypeInt)
	voidPtr := ast.PointerTo(ast.TypeVoid)

	be.True(t, Assignable(ast.TypeInt, ast.TypeInt, false))
	be.True(t, Assignable(intPtr, intPtr, false))
	be.True(t, Assignable(intPtr, ast.TypeInt, true))
	be.True(t, Assignable(voidPtr, ast.TypeInt, true))
	be.True(t, Assignable(ast.TypeError, intPtr, false))
	be.True(t, Assignable(ast.TypeInt, ast.TypeError, false))

	be.Equal(t, Assignable(ast.TypeInt, intPtr, false), false)
	be.Equal(t, Assignable(intPtr, ast.TypeInt, false), false)
	be.Equal(t, Assignable(intPtr, voidPtr, false), false)
	be.Equal(t, Assignable(ast.TypeInt, ast.TypeInt, true), true)
}

// TestFixtures runs every annotated file under testdata through the full
// pipeline, the same way the gmctest harness does.
func TestFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.c"))
	be.Err(t, err, nil)
	be.True(t, len(files) > 0)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			content, err := os.ReadFile(file)
			be.Err(t, err, nil)

			expected := fixture.Parse(string(content))

			bag := diag.NewBag()
			runes := []rune(string(content))
			tokens := lexer.NewLexer(runes, 0, bag).Tokenize()
			decls := parser.NewParser(tokens, bag).Parse()
			NewChecker(config.NewConfig(), bag).Check(decls)

			actual := fixture.FromDiagnostics(bag.Diagnostics())
			fixture.Sort(expected)
			fixture.Sort(actual)
			be.Equal(t, cmp.Diff(expected, actual), "")
		})
	}
}
