package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/moneta/moneta/moneta/search"
	"github.com/moneta/moneta/moneta/storage/sqlbuilder"
	"github.com/moneta/moneta/moneta/topic"
)

// Builder allocates bind placeholders. *sqlbuilder.Builder satisfies it.
type Builder interface {
	Arg(v any) string
	Args() []any
}

// CompileOutput is the SELECT for one search request.
type CompileOutput struct {
	SQL          string
	Args         []any
	ExplainSteps []string
}

// Compiler translates a criteria tree into a WHERE clause.
type Compiler struct {
	builder      Builder
	explainSteps []string
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Compile builds the SELECT for req against t's table. Windowing is not part
// of the SQL; the caller applies it while reading rows.
func Compile(t topic.Topic, req search.SearchRequest, builder Builder) (*CompileOutput, error) {
	table, err := qualifiedTable(t)
	if err != nil {
		return nil, err
	}

	c := &Compiler{builder: builder}
	c.explainSteps = append(c.explainSteps, fmt.Sprintf("SCAN %s", table))

	where, err := c.compileCriteria(req.Criteria)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(table)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	return &CompileOutput{
		SQL:          sb.String(),
		Args:         builder.Args(),
		ExplainSteps: c.explainSteps,
	}, nil
}

func qualifiedTable(t topic.Topic) (string, error) {
	if !identRe.MatchString(t.Table) {
		return "", fmt.Errorf("topic %q: invalid table name %q", t.Name, t.Table)
	}
	if t.Schema == "" {
		return sqlbuilder.QuoteIdent(t.Table), nil
	}
	if !identRe.MatchString(t.Schema) {
		return "", fmt.Errorf("topic %q: invalid schema name %q", t.Name, t.Schema)
	}
	return sqlbuilder.QuoteIdent(t.Schema) + "." + sqlbuilder.QuoteIdent(t.Table), nil
}

// compileCriteria returns "" for a criteria that matches every row.
func (c *Compiler) compileCriteria(cr search.Criteria) (string, error) {
	switch n := cr.(type) {
	case search.FilterCriteria:
		return c.compileFilter(n)

	case search.CompositeCriteria:
		var joiner string
		switch n.Operator {
		case search.OperatorAnd:
			joiner = " AND "
		case search.OperatorOr:
			joiner = " OR "
		default:
			return "", fmt.Errorf("unknown composite operator %q", n.Operator)
		}

		// One unconstrained branch makes the whole OR unconstrained. Check
		// before compiling so no placeholder is allocated for the siblings.
		if n.Operator == search.OperatorOr && matchesAll(n) {
			return "", nil
		}

		parts := make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			part, err := c.compileCriteria(child)
			if err != nil {
				return "", err
			}
			if part == "" {
				continue
			}
			parts = append(parts, part)
		}
		switch len(parts) {
		case 0:
			return "", nil
		case 1:
			return parts[0], nil
		default:
			c.explainSteps = append(c.explainSteps, fmt.Sprintf("%s of %d predicates", n.Operator, len(parts)))
			return "(" + strings.Join(parts, joiner) + ")", nil
		}

	default:
		return "", fmt.Errorf("unsupported criteria type %T", cr)
	}
}

// matchesAll reports whether cr compiles to no predicate.
func matchesAll(cr search.Criteria) bool {
	n, ok := cr.(search.CompositeCriteria)
	if !ok {
		return false
	}
	switch n.Operator {
	case search.OperatorOr:
		if len(n.Children) == 0 {
			return true
		}
		for _, child := range n.Children {
			if matchesAll(child) {
				return true
			}
		}
		return false
	default:
		for _, child := range n.Children {
			if !matchesAll(child) {
				return false
			}
		}
		return true
	}
}

func (c *Compiler) compileFilter(f search.FilterCriteria) (string, error) {
	if !identRe.MatchString(f.FieldName) {
		return "", fmt.Errorf("invalid field name %q", f.FieldName)
	}
	col := sqlbuilder.QuoteIdent(f.FieldName)

	switch f.Operation {
	case search.OpEqual:
		if f.Value == nil {
			c.explainSteps = append(c.explainSteps, fmt.Sprintf("FILTER %s IS NULL", f.FieldName))
			return col + " IS NULL", nil
		}
		switch f.Value.(type) {
		case string, int64, float64, int:
		default:
			return "", fmt.Errorf("field %q: unsupported value type %T", f.FieldName, f.Value)
		}
		c.explainSteps = append(c.explainSteps, fmt.Sprintf("FILTER %s = %v", f.FieldName, f.Value))
		return col + " = " + c.builder.Arg(f.Value), nil
	default:
		return "", fmt.Errorf("field %q: unsupported operation %q", f.FieldName, f.Operation)
	}
}
