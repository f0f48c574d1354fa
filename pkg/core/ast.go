package core

import "github.com/leapstack-labs/leaplineage/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
}

// Expr is a marker interface for expression nodes.
//
// The set of expression kinds is closed: only types in this package
// implement exprNode, so a type switch over Expr is exhaustive.
type Expr interface {
	Node
	exprNode()
}

// TableRef is a marker interface for FROM clause items.
type TableRef interface {
	Node
	tableRefNode()
}

// NodeInfo carries the source position of a node.
type NodeInfo struct {
	Start token.Position
}

// Pos implements Node.
func (n NodeInfo) Pos() token.Position { return n.Start }
