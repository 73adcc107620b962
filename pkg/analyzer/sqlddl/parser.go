package sqlddl

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is a parsed CREATE TABLE statement
type Table struct {
	Name    string
	Columns []Column
}

// Column is a parsed column definition
type Column struct {
	Name       string
	Type       string // lowercased base type, e.g. "varchar"
	TypeArgs   []int  // length/precision arguments
	NotNull    bool
	PrimaryKey bool
	HasDefault bool
}

// Parser parses CREATE TABLE statements out of a DDL script. Statements
// other than CREATE TABLE are skipped.
type Parser struct {
	s *Scanner
}

// NewParser creates a Parser over the given DDL text
func NewParser(src string) *Parser {
	return &Parser{s: NewScanner(src)}
}

// Parse returns every CREATE TABLE statement in declared order
func (p *Parser) Parse() ([]Table, error) {
	var tables []Table
	for {
		tok := p.s.Next()
		if tok.Type == TokenEOF {
			break
		}
		if keywordIs(tok, "CREATE") && keywordIs(p.s.Peek(), "TABLE") {
			p.s.Next() // TABLE
			table, err := p.parseTable()
			if err != nil {
				return nil, err
			}
			tables = append(tables, table)
			continue
		}
		// Not a CREATE TABLE; consume through the statement terminator
		p.skipStatement(tok)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no CREATE TABLE statement found")
	}
	return tables, nil
}

func (p *Parser) parseTable() (Table, error) {
	// Optional IF NOT EXISTS
	if keywordIs(p.s.Peek(), "IF") {
		p.s.Next()
		if !keywordIs(p.s.Next(), "NOT") {
			return Table{}, fmt.Errorf("malformed IF NOT EXISTS clause")
		}
		p.s.Next() // EXISTS
	}

	name := p.s.Next()
	if name.Type != TokenIdentifier {
		return Table{}, fmt.Errorf("expected table name at offset %d, got %q", name.Pos, name.Text)
	}
	tableName := name.Text
	// schema-qualified name
	for p.s.Peek().Text == "." {
		p.s.Next()
		part := p.s.Next()
		if part.Type != TokenIdentifier {
			return Table{}, fmt.Errorf("malformed qualified table name at offset %d", part.Pos)
		}
		tableName = part.Text
	}

	if open := p.s.Next(); open.Text != "(" {
		return Table{}, fmt.Errorf("expected ( after table name %q", tableName)
	}

	table := Table{Name: tableName}
	for {
		tok := p.s.Peek()
		if tok.Type == TokenEOF {
			return Table{}, fmt.Errorf("unterminated column list for table %q", tableName)
		}
		if tok.Text == ")" {
			p.s.Next()
			break
		}

		if isTableConstraint(tok) {
			p.parseTableConstraint(&table)
		} else {
			col, err := p.parseColumn(tableName)
			if err != nil {
				return Table{}, err
			}
			table.Columns = append(table.Columns, col)
		}

		if p.s.Peek().Text == "," {
			p.s.Next()
		}
	}

	// Consume the trailing semicolon, if any
	if p.s.Peek().Text == ";" {
		p.s.Next()
	}
	return table, nil
}

func isTableConstraint(tok Token) bool {
	for _, kw := range []string{"PRIMARY", "UNIQUE", "FOREIGN", "CONSTRAINT", "CHECK"} {
		if keywordIs(tok, kw) {
			return true
		}
	}
	return false
}

// parseTableConstraint handles table-level constraint entries. A table-level
// PRIMARY KEY marks its columns; everything else is skipped.
func (p *Parser) parseTableConstraint(table *Table) {
	tok := p.s.Next()
	if keywordIs(tok, "CONSTRAINT") {
		p.s.Next() // constraint name
		tok = p.s.Next()
	}

	if keywordIs(tok, "PRIMARY") {
		p.s.Next() // KEY
		if p.s.Peek().Text == "(" {
			p.s.Next()
			for {
				col := p.s.Next()
				if col.Type == TokenIdentifier {
					markPrimary(table, col.Text)
				}
				sep := p.s.Next()
				if sep.Text != "," {
					break
				}
			}
		}
		return
	}

	// Skip the rest of the constraint up to the next top-level comma or the
	// closing paren of the column list.
	depth := 0
	for {
		next := p.s.Peek()
		if next.Type == TokenEOF {
			return
		}
		if depth == 0 && (next.Text == "," || next.Text == ")") {
			return
		}
		tok = p.s.Next()
		if tok.Text == "(" {
			depth++
		}
		if tok.Text == ")" {
			depth--
		}
	}
}

func markPrimary(table *Table, name string) {
	for i := range table.Columns {
		if strings.EqualFold(table.Columns[i].Name, name) {
			table.Columns[i].PrimaryKey = true
			table.Columns[i].NotNull = true
		}
	}
}

func (p *Parser) parseColumn(tableName string) (Column, error) {
	name := p.s.Next()
	if name.Type != TokenIdentifier {
		return Column{}, fmt.Errorf("expected column name in table %q at offset %d, got %q", tableName, name.Pos, name.Text)
	}

	typeTok := p.s.Next()
	if typeTok.Type != TokenIdentifier {
		return Column{}, fmt.Errorf("expected type for column %q in table %q", name.Text, tableName)
	}
	col := Column{Name: name.Text, Type: strings.ToLower(typeTok.Text)}

	// Multi-word types: DOUBLE PRECISION, CHARACTER VARYING, TIMESTAMP WITH
	// TIME ZONE
	switch col.Type {
	case "double":
		if keywordIs(p.s.Peek(), "PRECISION") {
			p.s.Next()
			col.Type = "double precision"
		}
	case "character":
		if keywordIs(p.s.Peek(), "VARYING") {
			p.s.Next()
			col.Type = "varchar"
		} else {
			col.Type = "char"
		}
	case "timestamp", "time":
		if keywordIs(p.s.Peek(), "WITH") || keywordIs(p.s.Peek(), "WITHOUT") {
			p.s.Next()
			p.s.Next() // TIME
			p.s.Next() // ZONE
		}
	}

	// Type arguments: VARCHAR(255), NUMERIC(10, 2)
	if p.s.Peek().Text == "(" {
		p.s.Next()
		for {
			arg := p.s.Next()
			if arg.Type == TokenNumber {
				if n, err := strconv.Atoi(arg.Text); err == nil {
					col.TypeArgs = append(col.TypeArgs, n)
				}
			}
			sep := p.s.Next()
			if sep.Text != "," {
				break
			}
		}
	}

	// Column options until the next top-level comma or closing paren
	for {
		tok := p.s.Peek()
		if tok.Type == TokenEOF || tok.Text == "," || tok.Text == ")" {
			break
		}
		p.s.Next()

		switch {
		case keywordIs(tok, "NOT"):
			if keywordIs(p.s.Peek(), "NULL") {
				p.s.Next()
				col.NotNull = true
			}
		case keywordIs(tok, "NULL"):
			col.NotNull = false
		case keywordIs(tok, "PRIMARY"):
			if keywordIs(p.s.Peek(), "KEY") {
				p.s.Next()
			}
			col.PrimaryKey = true
			col.NotNull = true
		case keywordIs(tok, "DEFAULT"):
			col.HasDefault = true
			p.skipValue()
		case keywordIs(tok, "REFERENCES"):
			p.s.Next() // referenced table
			p.skipParens()
		case keywordIs(tok, "CHECK"):
			p.skipParens()
		}
	}
	return col, nil
}

// skipValue consumes a DEFAULT expression: a literal, possibly a call
func (p *Parser) skipValue() {
	p.s.Next()
	if p.s.Peek().Text == "(" {
		p.skipParens()
	}
}

// skipParens consumes a balanced parenthesized group, if present
func (p *Parser) skipParens() {
	if p.s.Peek().Text != "(" {
		return
	}
	depth := 0
	for {
		tok := p.s.Next()
		if tok.Type == TokenEOF {
			return
		}
		if tok.Text == "(" {
			depth++
		}
		if tok.Text == ")" {
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipStatement consumes tokens through the next semicolon
func (p *Parser) skipStatement(first Token) {
	if first.Text == ";" {
		return
	}
	for {
		tok := p.s.Next()
		if tok.Type == TokenEOF || tok.Text == ";" {
			return
		}
	}
}
