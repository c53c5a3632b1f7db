package weaviate

import (
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
)

// clause is one parsed term of a filter expression. A membership clause
// matches records whose array property contains any of the values.
type clause struct {
	field      string
	values     []string
	membership bool
}

// parseFilter translates a filter expression into a Weaviate where clause.
// The grammar is the one the knowledge services emit: single-quoted
// equality clauses and a tags membership clause, joined by &&. Single
// quotes inside values are doubled.
//
//	projectCode == 'devops' && tags IN ['infra', 'sre']
//
// An empty expression yields a nil filter.
func parseFilter(expr string) (*filters.WhereBuilder, error) {
	clauses, err := parseClauses(expr)
	if err != nil {
		return nil, err
	}
	return buildWhere(clauses), nil
}

func parseClauses(expr string) ([]clause, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	p := &filterParser{input: expr}
	var clauses []clause
	for {
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)

		p.skipSpaces()
		if p.eof() {
			return clauses, nil
		}
		if !p.consume("&&") {
			return nil, p.errorf("expected && between clauses")
		}
	}
}

func buildWhere(clauses []clause) *filters.WhereBuilder {
	if len(clauses) == 0 {
		return nil
	}

	operands := make([]*filters.WhereBuilder, 0, len(clauses))
	for _, c := range clauses {
		operator := filters.Equal
		if c.membership {
			operator = filters.ContainsAny
		}
		operands = append(operands, filters.Where().
			WithPath([]string{c.field}).
			WithOperator(operator).
			WithValueString(c.values...))
	}

	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().
		WithOperator(filters.And).
		WithOperands(operands)
}

type filterParser struct {
	input string
	pos   int
}

func (p *filterParser) parseClause() (clause, error) {
	p.skipSpaces()
	field, err := p.parseIdentifier()
	if err != nil {
		return clause{}, err
	}
	p.skipSpaces()

	switch {
	case p.consume("=="):
		p.skipSpaces()
		value, err := p.parseQuotedString()
		if err != nil {
			return clause{}, err
		}
		return clause{field: field, values: []string{value}}, nil

	case p.consume("IN"):
		p.skipSpaces()
		values, err := p.parseStringList()
		if err != nil {
			return clause{}, err
		}
		return clause{field: field, values: values, membership: true}, nil

	default:
		return clause{}, p.errorf("expected == or IN after %q", field)
	}
}

func (p *filterParser) parseIdentifier() (string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", p.errorf("expected field name")
	}
	return p.input[start:p.pos], nil
}

func (p *filterParser) parseQuotedString() (string, error) {
	if p.eof() || p.input[p.pos] != '\'' {
		return "", p.errorf("expected quoted value")
	}
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c != '\'' {
			sb.WriteByte(c)
			p.pos++
			continue
		}
		// A doubled quote is an escaped literal quote.
		if p.pos+1 < len(p.input) && p.input[p.pos+1] == '\'' {
			sb.WriteByte('\'')
			p.pos += 2
			continue
		}
		p.pos++
		return sb.String(), nil
	}
	return "", p.errorf("unterminated quoted value")
}

func (p *filterParser) parseStringList() ([]string, error) {
	if p.eof() || p.input[p.pos] != '[' {
		return nil, p.errorf("expected [ after IN")
	}
	p.pos++

	var values []string
	for {
		p.skipSpaces()
		value, err := p.parseQuotedString()
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		p.skipSpaces()
		if p.eof() {
			return nil, p.errorf("unterminated list")
		}
		if p.input[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.input[p.pos] == ']' {
			p.pos++
			return values, nil
		}
		return nil, p.errorf("expected , or ] in list")
	}
}

func (p *filterParser) consume(token string) bool {
	if strings.HasPrefix(p.input[p.pos:], token) {
		p.pos += len(token)
		return true
	}
	return false
}

func (p *filterParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *filterParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *filterParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("filter expression: %s at position %d", fmt.Sprintf(format, args...), p.pos)
}
