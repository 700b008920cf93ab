package parser

import (
	"strings"

	"github.com/gopherdb/notionsql/internal/nerr"
	"github.com/gopherdb/notionsql/lexer"
)

// typeKeywords is the SQL surface's accepted column type names.
var typeKeywords = map[string]bool{
	"INT": true, "VARCHAR": true, "TITLE_VARCHAR": true, "BOOL": true,
	"DATE": true, "NUMBER": true, "MONEY": true,
}

// Parser is a recursive-descent parser over a fully materialized token
// slice. It does not resolve identifiers against schema; that is the
// caller's job once an AST exists.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses a single statement.
func Parse(sql string) (Node, error) {
	toks, err := lexer.Lex(sql)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseStatement()
}

func (p *Parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == lexer.KEYWORD && t.Lexeme == kw
}

func (p *Parser) atSymbol(sym string) bool {
	t := p.cur()
	return t.Kind == lexer.SYMBOL && t.Lexeme == sym
}

func (p *Parser) expectKeyword(kw string) (lexer.Token, error) {
	if !p.atKeyword(kw) {
		return lexer.Token{}, p.syntaxErrorf("expected keyword %q, got %s %q", kw, p.cur().Kind, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) expectSymbol(sym string) (lexer.Token, error) {
	if !p.atSymbol(sym) {
		return lexer.Token{}, p.syntaxErrorf("expected symbol %q, got %s %q", sym, p.cur().Kind, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) expectIdentifier() (lexer.Token, error) {
	if p.cur().Kind != lexer.IDENTIFIER {
		return lexer.Token{}, p.syntaxErrorf("expected identifier, got %s %q", p.cur().Kind, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) syntaxErrorf(format string, args ...any) error {
	return nerr.Newf(nerr.KindSyntax, "parser", format, args...)
}

func (p *Parser) parseStatement() (Node, error) {
	switch {
	case p.atKeyword("CREATE"):
		return p.parseCreateTable()
	case p.atKeyword("DROP"):
		return p.parseDropTable()
	case p.atKeyword("INSERT"):
		return p.parseInsert()
	case p.atKeyword("SELECT"):
		return p.parseSelect()
	default:
		return nil, p.syntaxErrorf("expected CREATE, DROP, INSERT, or SELECT, got %s %q", p.cur().Kind, p.cur().Lexeme)
	}
}

func (p *Parser) parseCreateTable() (Node, error) {
	if _, err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var cols []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.atSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &CreateTable{Table: name.Lexeme, Columns: cols}, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return ColumnDef{}, err
	}
	t := p.cur()
	if t.Kind != lexer.KEYWORD || !typeKeywords[t.Lexeme] {
		return ColumnDef{}, p.syntaxErrorf("expected column type, got %s %q", t.Kind, t.Lexeme)
	}
	p.advance()
	col := ColumnDef{Name: name.Lexeme, SQLType: strings.ToLower(t.Lexeme)}
	if p.atSymbol("(") {
		p.advance()
		argTok := p.advance()
		col.Arg = argTok.Lexeme
		col.HasArg = true
		if _, err := p.expectSymbol(")"); err != nil {
			return ColumnDef{}, err
		}
	}
	return col, nil
}

func (p *Parser) parseDropTable() (Node, error) {
	if _, err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	return &DropTable{Table: name.Lexeme}, nil
}

func (p *Parser) parseInsert() (Node, error) {
	if _, err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var cols []string
	for {
		id, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		cols = append(cols, id.Lexeme)
		if p.atSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var vals []Node
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.atSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if len(cols) != len(vals) {
		return nil, p.syntaxErrorf("column count %d does not match value count %d", len(cols), len(vals))
	}
	return &Insert{Table: name.Lexeme, Columns: cols, Values: vals}, nil
}

// parseValue parses a single literal or a named parameter (":name").
func (p *Parser) parseValue() (Node, error) {
	if p.atSymbol(":") {
		p.advance()
		id, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &Identifier{Name: id.Lexeme, IsParam: true}, nil
	}
	return p.parseLiteral()
}

func (p *Parser) parseLiteral() (Node, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.NUMBER:
		p.advance()
		if strings.Contains(t.Lexeme, ".") {
			return &Constant{Type: ConstFloat, Text: t.Lexeme}, nil
		}
		return &Constant{Type: ConstInt, Text: t.Lexeme}, nil
	case lexer.STRING:
		p.advance()
		return &Constant{Type: ConstString, Text: t.Lexeme}, nil
	default:
		return nil, p.syntaxErrorf("expected literal or parameter, got %s %q", t.Kind, t.Lexeme)
	}
}

func (p *Parser) parseSelect() (Node, error) {
	if _, err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	sel := &Select{}
	if p.atSymbol("*") {
		p.advance()
		sel.Star = true
	} else {
		for {
			id, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			sel.Columns = append(sel.Columns, id.Lexeme)
			if p.atSymbol(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	sel.Table = name.Lexeme
	if p.atKeyword("WHERE") {
		p.advance()
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		sel.Where = &Where{Expr: expr}
	}
	return sel, nil
}

// parseOrExpr / parseAndExpr give AND higher precedence than OR, per the
// SQL surface: "a AND b OR c" parses as "(a AND b) OR c".
func (p *Parser) parseOrExpr() (Node, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("OR") {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("AND") {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

var cmpOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *Parser) parseComparison() (Node, error) {
	if p.atSymbol("(") {
		p.advance()
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	if p.atKeyword("NOT") {
		p.advance()
		operand, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: "NOT", Left: operand}, nil
	}
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	if t.Kind != lexer.SYMBOL || !cmpOps[t.Lexeme] {
		return nil, p.syntaxErrorf("expected comparison operator, got %s %q", t.Kind, t.Lexeme)
	}
	p.advance()
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Op: t.Lexeme, Left: left, Right: right}, nil
}

func (p *Parser) parseOperand() (Node, error) {
	if p.atSymbol(":") {
		p.advance()
		id, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &Identifier{Name: id.Lexeme, IsParam: true}, nil
	}
	t := p.cur()
	if t.Kind == lexer.IDENTIFIER {
		p.advance()
		return &Identifier{Name: t.Lexeme}, nil
	}
	return p.parseLiteral()
}
