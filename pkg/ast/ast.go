// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"github.com/xplshn/gmc/pkg/token"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	// Expressions
	Number NodeType = iota
	Ident
	Assign
	BinaryOp
	UnaryOp
	AddressOf
	Deref
	FuncCall

	// Statements
	FuncDecl
	VarDecl
	MultiVarDecl
	If
	While
	Return
	Block
)

// Node represents a node in the Abstract Syntax Tree
type Node struct {
	Type   NodeType
	Tok    token.Token
	Parent *Node
	Data   interface{}
	Typ    *CType // Set by the checker when type annotation is enabled
}

// --- Node Data Structs ---
type NumberNode struct{ Value int64 }
type IdentNode struct{ Name string }
type AssignNode struct{ Lhs, Rhs *Node }
type BinaryOpNode struct {
	Op          token.Type
	Left, Right *Node
}
type UnaryOpNode struct {
	Op   token.Type
	Expr *Node
}
type AddressOfNode struct{ Expr *Node }
type DerefNode struct{ Expr *Node }
type FuncCallNode struct {
	FuncExpr *Node
	Args     []*Node
}
type FuncDeclNode struct {
	Name       string
	Params     []*Node
	Body       *Node
	ReturnType *CType
}
type VarDeclNode struct {
	Name string
	Type *CType
	Init *Node
}
type MultiVarDeclNode struct{ Decls []*Node }
type IfNode struct{ Cond, ThenBody, ElseBody *Node }
type WhileNode struct{ Cond, Body *Node }
type ReturnNode struct{ Expr *Node }
type BlockNode struct{ Stmts []*Node }

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}, children ...*Node) *Node {
	node := &Node{Type: nodeType, Tok: tok, Data: data}
	for _, child := range children {
		if child != nil {
			child.Parent = node
		}
	}
	return node
}

func NewNumber(tok token.Token, value int64) *Node {
	return newNode(tok, Number, NumberNode{Value: value})
}
func NewIdent(tok token.Token, name string) *Node {
	return newNode(tok, Ident, IdentNode{Name: name})
}
func NewAssign(tok token.Token, lhs, rhs *Node) *Node {
	return newNode(tok, Assign, AssignNode{Lhs: lhs, Rhs: rhs}, lhs, rhs)
}
func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, BinaryOp, BinaryOpNode{Op: op, Left: left, Right: right}, left, right)
}
func NewUnaryOp(tok token.Token, op token.Type, expr *Node) *Node {
	return newNode(tok, UnaryOp, UnaryOpNode{Op: op, Expr: expr}, expr)
}
func NewAddressOf(tok token.Token, expr *Node) *Node {
	return newNode(tok, AddressOf, AddressOfNode{Expr: expr}, expr)
}
func NewDeref(tok token.Token, expr *Node) *Node {
	return newNode(tok, Deref, DerefNode{Expr: expr}, expr)
}
func NewFuncCall(tok token.Token, funcExpr *Node, args []*Node) *Node {
	node := newNode(tok, FuncCall, FuncCallNode{FuncExpr: funcExpr, Args: args}, funcExpr)
	for _, arg := range args {
		arg.Parent = node
	}
	return node
}
func NewFuncDecl(tok token.Token, name string, params []*Node, body *Node, returnType *CType) *Node {
	node := newNode(tok, FuncDecl, FuncDeclNode{
		Name: name, Params: params, Body: body, ReturnType: returnType,
	}, body)
	for _, p := range params {
		p.Parent = node
	}
	return node
}
func NewVarDecl(tok token.Token, name string, varType *CType, init *Node) *Node {
	return newNode(tok, VarDecl, VarDeclNode{Name: name, Type: varType, Init: init}, init)
}
func NewMultiVarDecl(tok token.Token, decls []*Node) *Node {
	node := newNode(tok, MultiVarDecl, MultiVarDeclNode{Decls: decls})
	for _, d := range decls {
		d.Parent = node
	}
	return node
}
func NewIf(tok token.Token, cond, thenBody, elseBody *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, ThenBody: thenBody, ElseBody: elseBody}, cond, thenBody, elseBody)
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body}, cond, body)
}
func NewReturn(tok token.Token, expr *Node) *Node {
	return newNode(tok, Return, ReturnNode{Expr: expr}, expr)
}
func NewBlock(tok token.Token, stmts []*Node) *Node {
	node := newNode(tok, Block, BlockNode{Stmts: stmts})
	for _, s := range stmts {
		if s != nil {
			s.Parent = node
		}
	}
	return node
}

// IsZeroLiteral reports whether the node is the integer literal 0, the one
// integer form accepted as a null pointer constant.
func IsZeroLiteral(node *Node) bool {
	if node == nil || node.Type != Number {
		return false
	}
	return node.Data.(NumberNode).Value == 0
}
