package diag

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/xplshn/gmc/pkg/token"
)

func tok(line, col, length int) token.Token {
	return token.Token{Line: line, Column: col, Len: length}
}

func TestBagAccumulates(t *testing.T) {
	bag := NewBag()
	be.Equal(t, bag.HasErrors(), false)

	bag.Errorf(DerefOfNonPointer, tok(1, 1, 1), "operand of unary '*' must have pointer type")
	bag.Warnf(UnusedVariable, tok(2, 5, 1), "unused variable 'x'")
	bag.Errorf(InvalidConversion, tok(3, 7, 1), "invalid conversion between types")

	be.Equal(t, bag.Len(), 3)
	be.Equal(t, bag.ErrorCount(), 2)
	be.True(t, bag.HasErrors())

	diags := bag.Diagnostics()
	be.Equal(t, diags[0].Kind, DerefOfNonPointer)
	be.Equal(t, diags[1].Severity, Warning)
	be.Equal(t, diags[2].Kind, InvalidConversion)
}

func TestBagDrain(t *testing.T) {
	bag := NewBag()
	bag.Errorf(SyntaxError, tok(1, 1, 1), "expected ';'")

	drained := bag.Drain()
	be.Equal(t, len(drained), 1)
	be.Equal(t, bag.Len(), 0)
	be.Equal(t, bag.HasErrors(), false)
}

func TestBagMergePreservesOrder(t *testing.T) {
	first := NewBag()
	first.Errorf(UndeclaredName, tok(1, 1, 1), "first")
	second := NewBag()
	second.Errorf(UndeclaredName, tok(2, 1, 1), "second")
	second.Warnf(ShadowedDecl, tok(3, 1, 1), "third")

	first.Merge(second)
	be.Equal(t, first.Len(), 3)
	be.Equal(t, first.ErrorCount(), 2)
	be.Equal(t, first.Diagnostics()[1].Message, "second")
	be.Equal(t, first.Diagnostics()[2].Message, "third")
}

func TestKindNames(t *testing.T) {
	be.Equal(t, UnusedVariable.String(), "unused-variable")
	be.Equal(t, AssignToNonLvalue.String(), "assign-to-non-lvalue")
}

func TestPrinterCaret(t *testing.T) {
	sources := NewSourceMap()
	idx := sources.Add("test.c", []rune("int a;\n*a = 1;\n"))

	bag := NewBag()
	bag.Errorf(DerefOfNonPointer, token.Token{FileIndex: idx, Line: 2, Column: 1, Len: 2},
		"operand of unary '*' must have pointer type")

	var sb strings.Builder
	printer := &Printer{Sources: sources, Color: false}
	printer.PrintAll(&sb, bag.Diagnostics())

	want := "test.c:2:1: error: operand of unary '*' must have pointer type\n" +
		"  *a = 1;\n" +
		"  ^~\n"
	be.Equal(t, sb.String(), want)
}

func TestPrinterWarningTag(t *testing.T) {
	sources := NewSourceMap()
	idx := sources.Add("test.c", []rune("int x;\n"))

	bag := NewBag()
	bag.Warnf(UnusedVariable, token.Token{FileIndex: idx, Line: 1, Column: 5, Len: 1}, "unused variable 'x'")

	var sb strings.Builder
	printer := &Printer{Sources: sources, Color: false}
	printer.PrintAll(&sb, bag.Diagnostics())

	want := "test.c:1:5: warning: unused variable 'x' [-Wunused-variable]\n" +
		"  int x;\n" +
		"      ^\n"
	be.Equal(t, sb.String(), want)
}

func TestSourceMapUnknownFile(t *testing.T) {
	sources := NewSourceMap()
	be.Equal(t, sources.Name(7), "unknown")
}
