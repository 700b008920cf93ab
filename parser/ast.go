// Package parser builds an abstract syntax tree from a lexer.Token
// sequence. The tree is a tagged variant: every Node reports its Kind and
// callers dispatch with a type switch rather than virtual methods.
package parser

// Kind tags a Node with the variant it represents.
type Kind int

const (
	KindCreateTable Kind = iota
	KindDropTable
	KindInsert
	KindSelect
	KindWhere
	KindBinaryOp
	KindColumnDef
	KindIdentifier
	KindConstant
	KindOrderItem
)

func (k Kind) String() string {
	switch k {
	case KindCreateTable:
		return "CreateTable"
	case KindDropTable:
		return "DropTable"
	case KindInsert:
		return "Insert"
	case KindSelect:
		return "Select"
	case KindWhere:
		return "Where"
	case KindBinaryOp:
		return "BinaryOp"
	case KindColumnDef:
		return "ColumnDef"
	case KindIdentifier:
		return "Identifier"
	case KindConstant:
		return "Constant"
	case KindOrderItem:
		return "OrderItem"
	default:
		return "Unknown"
	}
}

// Node is any AST variant. Expressions (BinaryOp, Identifier, Constant) are
// also Nodes; there is no separate Expr interface since Go's type switch
// already dispatches on the concrete type.
type Node interface {
	Kind() Kind
}

// ColumnDef is one column declaration inside CREATE TABLE: name, a SQL
// surface type name (e.g. "varchar"), and an optional size/currency
// argument parsed from the parenthesized suffix ("varchar(255)",
// "money(USD)").
type ColumnDef struct {
	Name    string
	SQLType string
	Arg     string
	HasArg  bool
}

func (ColumnDef) Kind() Kind { return KindColumnDef }

// CreateTable is `CREATE TABLE name (col type, ...)`.
type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

func (CreateTable) Kind() Kind { return KindCreateTable }

// DropTable is `DROP TABLE name`.
type DropTable struct {
	Table string
}

func (DropTable) Kind() Kind { return KindDropTable }

// Insert is `INSERT INTO name (cols) VALUES (values)`. Each element of
// Values is either a *Constant or a *Identifier standing in for a named
// parameter (IsParam true, Name without the leading ':').
type Insert struct {
	Table   string
	Columns []string
	Values  []Node
}

func (Insert) Kind() Kind { return KindInsert }

// Select is `SELECT cols|* FROM name [WHERE expr]`.
type Select struct {
	Table   string
	Columns []string // empty means "*"
	Star    bool
	Where   *Where // nil means no WHERE clause
}

func (Select) Kind() Kind { return KindSelect }

// Where wraps a boolean expression tree (BinaryOp/Identifier/Constant).
type Where struct {
	Expr Node
}

func (Where) Kind() Kind { return KindWhere }

// BinaryOp is a comparison (=, !=, <, <=, >, >=) or logical (AND, OR)
// combination of two sub-expressions.
type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
}

func (BinaryOp) Kind() Kind { return KindBinaryOp }

// Identifier is a bare column reference, or — when IsParam is true — a
// named bind parameter (":name" without the colon, stored in Name).
type Identifier struct {
	Name    string
	IsParam bool
}

func (Identifier) Kind() Kind { return KindIdentifier }

// ConstantType tags the literal kind carried by a Constant node.
type ConstantType int

const (
	ConstInt ConstantType = iota
	ConstFloat
	ConstString
	ConstBool
)

// Constant is a literal value appearing in VALUES or WHERE.
type Constant struct {
	Type ConstantType
	Text string // raw lexeme; caller converts per the column's type engine
}

func (Constant) Kind() Kind { return KindConstant }

// OrderItem is reserved for a future ORDER BY production; the SQL surface
// named in the wire interfaces does not require it yet, but the AST
// variant set names it, so parser consumers can type-switch exhaustively.
type OrderItem struct {
	Column string
	Desc   bool
}

func (OrderItem) Kind() Kind { return KindOrderItem }
