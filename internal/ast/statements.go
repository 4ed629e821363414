package ast

func (*ExprStmt) stmtNode()     {}
func (*AssignStmt) stmtNode()   {}
func (*ForwardDecl) stmtNode()  {}
func (*IfStmt) stmtNode()       {}
func (*ForStmt) stmtNode()      {}
func (*ImportStmt) stmtNode()   {}
func (*FromImport) stmtNode()   {}
func (*ResourceDecl) stmtNode() {}
func (*TypedefDecl) stmtNode()  {}
func (*EnumDecl) stmtNode()     {}

// ConstructorDecl is also a Stmt so parseDecorated can hand a decorated
// overload back to parseResourceDecl through its ast.Stmt return value.
func (*ConstructorDecl) stmtNode() {}

// ExprStmt is a bare expression used as a statement (e.g. a constructor
// call whose value is discarded, or a plugin call for side effects).
type ExprStmt struct {
	Base
	X Expr
}

// AssignStmt is `name = value` or `name: Type = value`. TypeAnn is nil when
// no annotation is present (the identifier must already carry one from a
// prior ForwardDecl, or its type is inferred from Value).
type AssignStmt struct {
	Base
	Target  Expr // Ident, DotExpr (self.prop), or IndexExpr
	TypeAnn TypeExpr
	Value   Expr
}

// ForwardDecl is `name: Type` with no value — declares the binding's type so
// it may be assigned exactly once later in the same scope.
type ForwardDecl struct {
	Base
	Name string
	Type TypeExpr
}

// ElifClause is one `elif cond:` arm of an IfStmt.
type ElifClause struct {
	Cond Expr
	Body []Stmt
}

// IfStmt is `if cond: ... elif cond: ... else: ...`.
type IfStmt struct {
	Base
	Cond  Expr
	Then  []Stmt
	Elifs []ElifClause
	Else  []Stmt
}

// ForStmt is `for name in expr: body`.
type ForStmt struct {
	Base
	Var      string
	Iterable Expr
	Body     []Stmt
}

// ImportStmt is `import a.b.c [as alias]`; Dots counts leading dots for
// relative imports.
type ImportStmt struct {
	Base
	Dots  int
	Path  []string
	Alias string
}

// FromImport is `from a.b import x, y as z`.
type FromImportName struct {
	Name  string
	Alias string
}

type FromImport struct {
	Base
	Dots  int
	Path  []string
	Names []FromImportName
}

// Decorator is `@name(args...)` attached to the following declaration.
type Decorator struct {
	Base
	Name string
	Args []Expr
}

// Param is a single constructor/overload parameter.
type Param struct {
	Name    string
	Type    TypeExpr
	Default Expr // nil if required
}

// ConstructorDecl is one `implement Name(self, ...):` or
// `def __init__(self, ...):` overload body inside a resource declaration.
type ConstructorDecl struct {
	Base
	Name       string // identifier after `implement`, or "__init__" for a `def` overload
	Params     []Param
	Constraint Expr // non-nil if decorated with @constraint(expr)
	Body       []Stmt
}

// PropertyDecl is one property line in a resource body:
// `name: Type [= default]` or `promise name: Type`.
type PropertyDecl struct {
	Name    string
	Type    TypeExpr
	Default Expr
	Promise bool
}

// ResourceDecl is `resource Name(Parent): ... ` or `resource Name: ...`.
// InheritOnly is true when the body is exactly `...`.
type ResourceDecl struct {
	Base
	Name         string
	Parent       string // "" if none
	Decorators   []Decorator
	Properties   []PropertyDecl
	Constructors []*ConstructorDecl
	InheritOnly  bool
}

// TypedefDecl is `typedef Name BaseType [if expr]`.
type TypedefDecl struct {
	Base
	Name       string
	BaseType   TypeExpr
	Refinement Expr // nil if unrefined
}

// EnumDecl is `enum Name: member1 member2 ...`.
type EnumDecl struct {
	Base
	Name    string
	Members []string
}
